package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestID    = "request_id"
)

// RequestID reuses an incoming X-Request-ID or mints a new one, echoes it
// back and logs the request outcome under it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)

		start := time.Now()
		c.Next()
		log.Printf("[http][%s] %s %s status=%d took=%s",
			id, c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start).Truncate(time.Microsecond))
	}
}
