package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobfill/services"
	"jobfill/utils"
)

// UserIDKey is the context key holding the authenticated user's id.
const UserIDKey = "user_id"

// JWTAuth requires a valid bearer token and stores its user id on the context.
func JWTAuth(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.UnauthorizedError(c, "Authorization header required")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			utils.LogWarn("token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			utils.UnauthorizedError(c, "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}
