package target

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the target endpoints on an authenticated group.
// Authorization is checked per request against the path user.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	users := protected.Group("/users/:id")
	{
		users.GET("/target-level", h.GetTarget)
		users.PATCH("/target-level", h.SetTarget)
	}
}
