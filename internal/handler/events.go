package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

// keepAlive 间隔发送 ping，防止代理断开空闲连接
const keepAlive = 25 * time.Second

// Events 以 SSE 推送会话事件：snapshot / changed / toast
func Events(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	ch, stop := s.Watch()
	defer stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"year": s.Year(), "identity": s.Identity().String()})

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Kind), e)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now()})
			return true
		}
	})
}
