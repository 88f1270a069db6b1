package notification

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the REST endpoints on protected and the websocket
// stream on stream, which must authenticate via query token as browsers
// cannot set headers on websocket requests.
func (h *Handler) RegisterRoutes(protected, stream *gin.RouterGroup) {
	notif := protected.Group("/notifications")
	{
		notif.GET("", h.GetNotifications)
		notif.GET("/unread-count", h.GetUnreadCount)
		notif.PATCH("/read-all", h.MarkAllAsRead)
		notif.PATCH("/:id/read", h.MarkAsRead)
	}

	stream.GET("/notifications/ws", h.Stream)
}
