package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskcal/internal/models"
)

const (
	CtxUserID  = "user_id"
	CtxSession = "session"
)

// TokenParser resolves an access token to a user id.
type TokenParser interface {
	ParseAccessToken(token string) (int64, error)
}

// список публичных эндпоинтов, которые не требуют токена
func isPublicPath(path string) bool {
	switch path {
	case "/login", "/signup", "/refresh", "/password/forgot", "/password/reset",
		"/integrations/telegram/webhook":
		return true
	}
	if strings.HasPrefix(path, "/swagger") ||
		strings.HasPrefix(path, "/healthz") {
		return true
	}
	return false
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "kind": "auth", "retryable": false})
}

// AuthMiddleware validates the Bearer token and stores a models.Session
// carrying the user id and loc for the handlers.
func AuthMiddleware(tokens TokenParser, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1) пропускаем preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		// 2) пропускаем публичные пути
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		// 3) читаем Authorization
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		// 4) парсим и валидируем токен
		userID, err := tokens.ParseAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		// 5) прокидываем user/session в контекст
		c.Set(CtxUserID, userID)
		c.Set(CtxSession, models.Session{UserID: userID, Location: loc})

		c.Next()
	}
}
