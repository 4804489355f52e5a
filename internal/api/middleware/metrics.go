package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"exam-control/pkg/metrics"
)

// Metrics 记录每个路由的请求数与耗时
// 以路由模板（/envelopes/:id）而非实际路径为标签，避免标签基数膨胀；SSE 长连接不计耗时
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		if c.Writer.Header().Get("Content-Type") != "text/event-stream" {
			metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		}
	}
}
