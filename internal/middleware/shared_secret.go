package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// JobKeyHeader carries the API key for the scheduled-job trigger endpoints.
	JobKeyHeader = "X-API-Key"
	// TelegramSecretHeader is set by Telegram on webhook deliveries.
	TelegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// JobAuthMiddleware guards the job trigger endpoints with the JOB_API_KEY.
func JobAuthMiddleware(apiKey string) gin.HandlerFunc {
	return requireSharedSecret(JobKeyHeader, apiKey, "JOB_API_NOT_CONFIGURED", "Job endpoints are not configured")
}

// TelegramWebhookAuth checks the secret token Telegram echoes on each webhook call.
func TelegramWebhookAuth(secret string) gin.HandlerFunc {
	return requireSharedSecret(TelegramSecretHeader, secret, "TELEGRAM_NOT_CONFIGURED", "Telegram webhook is not configured")
}

func requireSharedSecret(header, secret, notConfiguredCode, notConfiguredMsg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": notConfiguredCode, "message": notConfiguredMsg}})
			return
		}
		key := c.GetHeader(header)
		if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_API_KEY", "message": "Invalid or missing API key"}})
			return
		}
		c.Next()
	}
}
