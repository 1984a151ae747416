package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"safaristay/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates or assigns a request id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	log = logger.OrDiscard(log)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := requestFields(log, c, start)
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Info("request")
	}
}

// ErrorLogger logs detailed error information and recovers from panics.
func ErrorLogger(log logrus.FieldLogger) gin.HandlerFunc {
	log = logger.OrDiscard(log)
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				requestFields(log, c, start).WithFields(logrus.Fields{
					"type":  "panic",
					"error": err.Error(),
					"stack": string(debug.Stack()),
				}).Error("request_error")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "Internal server error",
					},
				})
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					requestFields(log, c, start).WithField("type", "http_error").Error("request_error")
				}
				return
			}

			for _, err := range c.Errors {
				entry := requestFields(log, c, start).WithFields(logrus.Fields{
					"type":  fmt.Sprintf("%v", err.Type),
					"error": err.Error(),
				})
				if err.Meta != nil {
					entry = entry.WithField("meta", err.Meta)
				}
				entry.Error("request_error")
			}
		}()

		c.Next()
	}
}

func requestFields(log logrus.FieldLogger, c *gin.Context, start time.Time) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"status":     c.Writer.Status(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"query":      c.Request.URL.RawQuery,
		"client_ip":  c.ClientIP(),
		"user_id":    c.GetInt64(CtxUserID),
		"role":       c.GetString(CtxRole),
		"request_id": c.GetString("request_id"),
		"latency":    time.Since(start).String(),
	})
}
