package ranking

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	protected.GET("/groups", h.ListGroups)
	protected.GET("/users/:id/groups", h.GetUserGroups)

	admin.POST("/groups", h.CreateGroup)
	admin.PUT("/users/:id/groups", h.SetUserGroups)
	admin.POST("/users/:id/groups/:groupId", h.AddUserGroup)
	admin.DELETE("/users/:id/groups/:groupId", h.RemoveUserGroup)
}
