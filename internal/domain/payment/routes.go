package payment

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	payments := protected.Group("/payments")
	{
		payments.GET("/me", h.ListMine)
		payments.POST("", h.Request)
	}

	admin.GET("/users/:id/payments", h.ListByUser)
	admin.PATCH("/payments/:id/status", h.SetStatus)
}
