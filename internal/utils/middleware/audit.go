package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omnimedia/server/internal/infra/audit"
)

// Audit writes an audit entry for every request that reached an admission
// check. The last gin error, if any, becomes the entry's error.
func Audit(log *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if log == nil || !log.Enabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		bucket := c.GetString(BucketKey)
		if bucket == "" {
			return
		}

		status := c.Writer.Status()
		entry := audit.Entry{
			RequestID:  GetRequestID(c),
			Route:      c.FullPath(),
			Bucket:     bucket,
			Requester:  c.GetString(RequesterKey),
			StatusCode: status,
			LatencyMS:  float64(time.Since(start).Microseconds()) / 1000,
			Success:    status < 400,
		}
		if last := c.Errors.Last(); last != nil {
			entry.Error = last.Err.Error()
		}
		log.Record(entry)
	}
}
