package middleware

import (
	"log/slog"

	"github.com/ting434252/lifebill/internal/persist"

	"github.com/gin-gonic/gin"
)

const CtxJournal = "journalSession"

// Identity 由当前用户推出；匿名设备返回零值
func Identity(c *gin.Context) persist.Identity {
	if user := CurrentUser(c); user != nil {
		return persist.Identity{UserID: user.ID, Email: user.Email}
	}
	return persist.Identity{}
}

// JournalMiddleware 取得 (设备, 当前身份) 的日志会话；不同身份各用各的会话，互不切换。
// 存储读取失败不阻断请求：会话里已经推送了 toast，状态为空。
func JournalMiddleware(m *persist.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		device := DeviceID(c)
		s, err := m.Session(c.Request.Context(), device, Identity(c))
		if err != nil {
			slog.Warn("journal session degraded", "device", device, "error", err)
		}
		c.Set(CtxJournal, s)
		c.Next()
	}
}

// Journal 返回当前请求的会话
func Journal(c *gin.Context) *persist.Session {
	v, _ := c.Get(CtxJournal)
	s, _ := v.(*persist.Session)
	return s
}
