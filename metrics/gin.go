package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GinMiddleware 记录每个请求的次数与耗时。
// 标签使用路由模板而非原始路径，未命中路由时为 "unknown"，避免高基数。
func GinMiddleware(m Meter) gin.HandlerFunc {
	if m == nil {
		m = Discard()
	}
	requests, _ := m.Counter("http_server_requests_total", "HTTP 请求总数")
	duration, _ := m.Histogram("http_server_request_duration_seconds", "HTTP 请求耗时", WithUnit("s"))

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		labels := []Label{
			L("method", c.Request.Method),
			L("route", route),
			L("status_class", strconv.Itoa(c.Writer.Status()/100)+"xx"),
		}
		requests.Inc(c.Request.Context(), labels...)
		duration.Record(c.Request.Context(), time.Since(start).Seconds(), labels...)
	}
}
