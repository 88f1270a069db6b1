package ranking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"certhub/internal/domain/user"
	"certhub/internal/pkg/response"
	"certhub/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListGroups handles GET /api/v1/groups
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list groups")
		return
	}
	response.Success(c, http.StatusOK, groups)
}

// CreateGroup handles POST /api/v1/admin/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs)
		return
	}

	g, err := h.service.CreateGroup(c.Request.Context(), req.Name, req.Rank)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, g)
}

// GetUserGroups handles GET /api/v1/users/:id/groups (self or admin)
func (h *Handler) GetUserGroups(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if c.GetInt64("user_id") != userID && c.GetString("role") != string(user.RoleAdmin) {
		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
		return
	}

	out, err := h.service.GetUserGroups(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// SetUserGroups handles PUT /api/v1/admin/users/:id/groups
func (h *Handler) SetUserGroups(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SetUserGroupsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs)
		return
	}

	out, err := h.service.SetUserGroups(c.Request.Context(), userID, req.GroupIDs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// AddUserGroup handles POST /api/v1/admin/users/:id/groups/:groupId
func (h *Handler) AddUserGroup(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	groupID, ok := parseID(c, "groupId")
	if !ok {
		return
	}

	out, err := h.service.AddUserToGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// RemoveUserGroup handles DELETE /api/v1/admin/users/:id/groups/:groupId
func (h *Handler) RemoveUserGroup(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}
	groupID, ok := parseID(c, "groupId")
	if !ok {
		return
	}

	out, err := h.service.RemoveUserFromGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		response.CustomError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, ErrUnknownGroup):
		response.CustomError(c, http.StatusBadRequest, "UNKNOWN_GROUP", err)
	case errors.Is(err, ErrInvalidGroup):
		response.CustomError(c, http.StatusBadRequest, "INVALID_GROUP", err)
	case errors.Is(err, ErrGroupExists):
		response.CustomError(c, http.StatusConflict, "GROUP_EXISTS", err)
	default:
		_ = c.Error(err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update groups")
	}
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+param)
		return 0, false
	}
	return id, true
}
