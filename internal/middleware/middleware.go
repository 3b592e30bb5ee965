package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"gatepass/internal/cache"
	"gatepass/internal/logger"
	"gatepass/internal/service"

	"github.com/gin-gonic/gin"
)

// CORS handles cross-origin requests.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// Logger assigns each request an id, threads it through the request context
// so downstream log lines carry it, and emits one structured line per
// completed request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := logger.NewRequestID()
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		latency := time.Since(start)
		accountID, exists := logger.AccountIDFromContext(c.Request.Context())

		logFields := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}

		if exists {
			logFields = append(logFields, "account_id", accountID)
		}

		if c.Writer.Status() >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			slog.Error("Request completed with error", logFields...)
		}
	}
}

// Recovery turns panics into 500s with detailed logging.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// BasicAuth authenticates the caller with HTTP Basic Auth, checking the
// Valkey credential cache first and falling back to a bcrypt comparison
// against the database. A database hit backfills the cache.
func BasicAuth(accounts *service.AccountService, valkeyClient *cache.ValkeyClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", "Basic realm=\"Restricted\"")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ctx := c.Request.Context()

		if valkeyClient != nil {
			accountID, err := valkeyClient.GetAccountIDByAuth(ctx, email, password)
			if err == nil {
				c.Set("account_id", accountID)
				c.Request = c.Request.WithContext(logger.ContextWithAccountID(c.Request.Context(), accountID))
				c.Next()
				return
			}
		}

		account, err := accounts.Authenticate(ctx, email, password)
		if err != nil || account == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if valkeyClient != nil {
			if err := valkeyClient.SetAccountIDByAuth(ctx, email, password, account.AccountID); err != nil {
				slog.Warn("Failed to cache credentials", "error", err)
			}
		}

		c.Set("account_id", account.AccountID)
		c.Request = c.Request.WithContext(logger.ContextWithAccountID(c.Request.Context(), account.AccountID))

		c.Next()
	}
}
