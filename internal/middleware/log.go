package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ting434252/lifebill/internal/models"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// maxAuditBody 以内的请求体会附在动作描述后面
const maxAuditBody = 2000

// Owner 是审计日志和备份的归属："user:<id>" 或 "device:<id>"
func Owner(c *gin.Context) string {
	if user := CurrentUser(c); user != nil {
		return "user:" + strconv.FormatUint(uint64(user.ID), 10)
	}
	return "device:" + DeviceID(c)
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// AuditMiddleware 记录修改类请求，动作描述加密存储。
// 登录、注册请求体里有密码，不附请求体。
func AuditMiddleware(db *gorm.DB, encryptKey string, skipBody ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipBody))
	for _, p := range skipBody {
		skip[p] = true
	}
	return func(c *gin.Context) {
		if !mutating(c.Request.Method) {
			c.Next()
			return
		}

		// 读取请求体
		var bodyBytes []byte
		if c.Request.Body != nil && !skip[c.FullPath()] {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		c.Next()

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		if len(bodyBytes) > 0 && len(bodyBytes) < maxAuditBody {
			action += " " + string(bodyBytes)
		}
		encAction, err := util.EncryptField(encryptKey, action)
		if err != nil {
			slog.Warn("audit encrypt failed", "error", err)
			return
		}

		entry := models.AuditLog{
			Owner:     Owner(c),
			Method:    c.Request.Method,
			Path:      path,
			ActionEnc: encAction,
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if err := db.Create(&entry).Error; err != nil {
			slog.Warn("audit log write failed", "error", err)
		}
	}
}
