package target

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"certhub/internal/domain/user"
	"certhub/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(c *gin.Context) Actor {
	return Actor{ID: c.GetInt64("user_id"), Role: user.Role(c.GetString("role"))}
}

// GetTarget handles GET /api/v1/users/:id/target-level
func (h *Handler) GetTarget(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	view, err := h.service.GetState(c.Request.Context(), actorFrom(c), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SetTarget handles PATCH /api/v1/users/:id/target-level
func (h *Handler) SetTarget(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req SetTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if !req.TargetLevel.Present {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "targetLevel is required")
		return
	}

	res, err := h.service.SetTarget(c.Request.Context(), actorFrom(c), userID, req.TargetLevel.Level())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, ErrForbidden):
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrTargetLocked):
		response.CustomError(c, http.StatusForbidden, "TARGET_LOCKED", err)
	case errors.Is(err, ErrInvalidTargetLevel):
		response.CustomError(c, http.StatusBadRequest, "INVALID_TARGET_LEVEL", err)
	case errors.Is(err, ErrTargetBelowActive):
		response.CustomError(c, http.StatusBadRequest, "TARGET_BELOW_ACTIVE", err)
	case errors.Is(err, ErrUserNotFound):
		response.CustomError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, ErrTargetGroupNotConfigured):
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "TARGET_GROUP_NOT_CONFIGURED", "Target group is not configured")
	default:
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update target level")
	}
}

func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return 0, false
	}
	return id, true
}
