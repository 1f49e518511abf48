// Package middleware holds the gin middleware shared by every route.
package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amaumene/streamhub/pkg/logger"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzipWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzipWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzipWriter.Write([]byte(s))
}

// Gzip compresses responses for clients that accept it. Redirects and empty
// responses pass through untouched.
func Gzip() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		gz := gzip.NewWriter(c.Writer)
		c.Writer = &gzipResponseWriter{ResponseWriter: c.Writer, gzipWriter: gz}
		defer func() {
			if c.Writer.Size() <= 0 {
				// nothing written, drop the gzip trailer
				gz.Reset(nopWriter{})
			}
			_ = gz.Close()
		}()

		c.Next()
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestID reuses an incoming X-Request-ID or assigns a new uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger writes one access log line per request. Configuration segments
// carry API keys and are masked.
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := maskConfiguration(c.Request.URL.Path)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		line := "[HTTP] %s %s %s %d %v %s"
		args := []interface{}{GetRequestID(c), c.ClientIP(), c.Request.Method, status, latency, path}

		switch {
		case status >= 500:
			log.Errorf(line, args...)
		case status >= 400:
			log.Warnf(line, args...)
		default:
			log.Infof(line, args...)
		}
	}
}

// maskConfiguration hides the base64 configuration segment and resolver API
// keys of a request path.
func maskConfiguration(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) > 2 && parts[1] == "resolve" {
		if len(parts) > 3 {
			parts[3] = "***"
		}
		return strings.Join(parts, "/")
	}
	if len(parts) > 2 && len(parts[1]) > 16 {
		parts[1] = "***"
	}
	return strings.Join(parts, "/")
}
