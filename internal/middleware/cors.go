package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// localOrigins are always allowed for frontend development.
var localOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

func CORS(extraOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(localOrigins)+len(extraOrigins))
	for _, o := range localOrigins {
		allowed[o] = true
	}
	for _, o := range extraOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		// Reflect allowed origins so credentials work.
		if origin != "" && allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Authorization, Accept, Origin, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods",
			"GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Max-Age", "600")

		// Preflight ends here, before JWT and role checks.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Origins returns the full allow-list, for the websocket upgrader.
func Origins(extraOrigins []string) []string {
	out := make([]string, 0, len(localOrigins)+len(extraOrigins))
	out = append(out, localOrigins...)
	return append(out, extraOrigins...)
}
