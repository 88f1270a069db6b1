package payment

type RequestPaymentRequest struct {
	Type   Type  `json:"type" binding:"required"`
	Amount int64 `json:"amount" validate:"gte=0"`
}

type SetStatusRequest struct {
	Status  Status `json:"status" binding:"required"`
	Comment string `json:"comment" validate:"max=1000"`
}
