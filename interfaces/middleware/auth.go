package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/naoterumaker/youtube-transcriber/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// Auth rejects requests whose Authorization header does not carry
// "Bearer <token>". An empty token disables the check.
func Auth(token string) gin.HandlerFunc {
	unauthorized := gin.H{"error": "Unauthorized"}

	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}
		authorization := ctx.GetHeader("Authorization")
		bearer, ok := strings.CutPrefix(authorization, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) != 1 {
			logger.GetLogger().WithFields(map[string]interface{}{
				"path":   ctx.FullPath(),
				"remote": ctx.ClientIP(),
			}).Warn("Rejected unauthorized request")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}
		ctx.Next()
	}
}
