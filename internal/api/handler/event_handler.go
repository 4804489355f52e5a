package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"exam-control/internal/service"
	"exam-control/pkg/response"
)

// heartbeatInterval SSE 心跳间隔，低于常见反向代理 60s 的空闲超时
const heartbeatInterval = 25 * time.Second

// EventHandler 变更事件推送（Server-Sent Events）
type EventHandler struct {
	feed service.ChangeFeed
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(feed service.ChangeFeed) *EventHandler {
	return &EventHandler{feed: feed}
}

// Stream 订阅变更事件；客户端收到后按 kind 重新拉取对应资源
// GET /api/v1/events
func (h *EventHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	events, err := h.feed.Subscribe(ctx)
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	c.SSEvent("ready", gin.H{"at": time.Now()})
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Kind, ev)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", gin.H{"at": t})
			return true
		}
	})
}
