package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures one bridge or client operation
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() Timer {
	return Timer{start: time.Now()}
}

// Elapsed returns the time since the timer started
func (t Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
