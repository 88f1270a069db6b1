package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"certhub/internal/pkg/jwt"
	"certhub/internal/pkg/response"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// JWTAuth requires an "Authorization: Bearer <token>" header and stores
// user_id (int64) and role (string) on the context.
func JWTAuth(tokens TokenValidator) gin.HandlerFunc {
	return authenticate(tokens, false)
}

// JWTAuthWithQuery also accepts ?token=, for websocket clients that cannot
// set headers.
func JWTAuthWithQuery(tokens TokenValidator) gin.HandlerFunc {
	return authenticate(tokens, true)
}

func authenticate(tokens TokenValidator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, code, msg := bearerToken(c, allowQuery)
		if code != "" {
			response.CustomError(c, http.StatusUnauthorized, code, msg)
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context, allowQuery bool) (token, code, msg string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if allowQuery {
			if q := c.Query("token"); q != "" {
				return q, "", ""
			}
		}
		return "", "AUTH_HEADER_MISSING", "Authorization header is required"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
	}
	return strings.TrimSpace(parts[1]), "", ""
}
