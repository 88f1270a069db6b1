package payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"certhub/internal/pkg/response"
	"certhub/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListMine handles GET /api/v1/payments/me
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	payments, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list payments")
		return
	}
	response.Success(c, http.StatusOK, payments)
}

// Request handles POST /api/v1/payments
func (h *Handler) Request(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req RequestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs)
		return
	}

	p, err := h.service.Request(c.Request.Context(), userID, req.Type, req.Amount)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

// ListByUser handles GET /api/v1/admin/users/:id/payments
func (h *Handler) ListByUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	payments, err := h.service.ListByUser(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list payments")
		return
	}
	response.Success(c, http.StatusOK, payments)
}

// SetStatus handles PATCH /api/v1/admin/payments/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid payment ID")
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs)
		return
	}

	p, err := h.service.SetStatus(c.Request.Context(), id, req.Status, req.Comment)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidType):
		response.CustomError(c, http.StatusBadRequest, "INVALID_PAYMENT_TYPE", err)
	case errors.Is(err, ErrInvalidStatus):
		response.CustomError(c, http.StatusBadRequest, "INVALID_PAYMENT_STATUS", err)
	case errors.Is(err, ErrInvalidAmount):
		response.CustomError(c, http.StatusBadRequest, "INVALID_AMOUNT", err)
	case errors.Is(err, ErrAlreadyRequested):
		response.CustomError(c, http.StatusConflict, "PAYMENT_ALREADY_REQUESTED", err)
	case errors.Is(err, ErrPaymentNotFound):
		response.CustomError(c, http.StatusNotFound, "PAYMENT_NOT_FOUND", "Payment not found")
	default:
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process payment")
	}
}
