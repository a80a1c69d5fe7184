package middleware

import (
	"bytes"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"teamboard/internal/models"
	"teamboard/internal/services"
)

// AuditLog records write operations (POST/PUT/DELETE) to the activity log
// after the handler has run.
func AuditLog(logs *services.ActivityLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		// Capture the body for the audit row, then hand it back to the handler
		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > 2000 {
				bodySnippet = bodySnippet[:2000] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		var uid *uint
		if userID := GetUserID(c); userID > 0 {
			uid = &userID
		}

		logs.Record(&models.ActivityLog{
			UserID:    uid,
			Method:    method,
			Path:      c.Request.URL.Path,
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Body:      bodySnippet,
		})
	}
}

// maskSensitiveFields replaces sensitive values in a JSON body snippet.
func maskSensitiveFields(body string) string {
	for _, key := range []string{"password", "token", "secret"} {
		if strings.Contains(strings.ToLower(body), key) {
			body = maskJSONValue(body, key)
		}
	}
	return body
}

// maskJSONValue does a best-effort mask of the JSON string value for key.
func maskJSONValue(body, key string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, "\""+key+"\"")
	if idx == -1 {
		return body
	}

	colonIdx := strings.Index(body[idx+len(key)+2:], ":")
	if colonIdx == -1 {
		return body
	}
	valueStart := idx + len(key) + 2 + colonIdx + 1

	for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
		valueStart++
	}
	if valueStart >= len(body) {
		return body
	}

	if body[valueStart] == '"' {
		endQuote := strings.Index(body[valueStart+1:], "\"")
		if endQuote == -1 {
			return body
		}
		return body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
	}
	return body
}
