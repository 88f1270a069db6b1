package payment

import "time"

type Type string

const (
	TypeRegistration   Type = "REGISTRATION"
	TypeDocumentReview Type = "DOCUMENT_REVIEW"
	TypeExamAccess     Type = "EXAM_ACCESS"
	TypeFullPackage    Type = "FULL_PACKAGE"
)

func (t Type) Valid() bool {
	switch t {
	case TypeRegistration, TypeDocumentReview, TypeExamAccess, TypeFullPackage:
		return true
	}
	return false
}

type Status string

const (
	StatusUnpaid  Status = "UNPAID"
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPending, StatusPaid:
		return true
	}
	return false
}

// Payment is one ledger row per user and type.
type Payment struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	UserID      int64      `json:"userId" gorm:"not null;uniqueIndex:idx_payments_user_type"`
	Type        Type       `json:"type" gorm:"type:varchar(32);not null;uniqueIndex:idx_payments_user_type"`
	Status      Status     `json:"status" gorm:"type:varchar(16);not null;default:'UNPAID';index"`
	Amount      int64      `json:"amount" gorm:"not null;default:0"`
	ConfirmedAt *time.Time `json:"confirmedAt"`
	Comment     string     `json:"comment" gorm:"type:text"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Payment) TableName() string {
	return "payments"
}
