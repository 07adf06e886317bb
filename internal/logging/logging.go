package logging

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// RequestIDHeader carries the correlation id of an admin request
const RequestIDHeader = "X-Request-ID"

// Fields are the structured key/values of a log line
type Fields map[string]interface{}

var (
	mu     sync.Mutex
	logger = log.New(os.Stdout, "", 0)
)

// SetOutput redirects log lines, e.g. to a buffer in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// LogKV logs a structured JSON line with a level, message, and arbitrary fields.
func LogKV(level, msg string, fields Fields) {
	entry := map[string]interface{}{
		"level":   level,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"msg":     msg,
		"service": "catalog-admin-service",
	}
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}
	b, err := json.Marshal(entry)
	if err != nil {
		b, _ = json.Marshal(map[string]interface{}{"level": LevelError, "msg": "unencodable log entry", "orig_msg": msg})
	}
	mu.Lock()
	logger.Println(string(b))
	mu.Unlock()
}

// NewOpID returns a fresh correlation id for one deletion request.
func NewOpID() string {
	return uuid.NewString()
}

// JSONLogger returns a Gin middleware that logs requests as single-line JSON.
// It also assigns a request id, reusing the caller's X-Request-ID when sent.
func JSONLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		reqID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = NewOpID()
		}
		c.Set("request_id", reqID)
		c.Header(RequestIDHeader, reqID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		level := LevelInfo
		if status >= http.StatusInternalServerError || len(c.Errors) > 0 {
			level = LevelError
		}

		fields := Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"status":     status,
			"latency_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"bytes_out":  c.Writer.Size(),
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.String()
		}

		LogKV(level, "request", fields)
	}
}
