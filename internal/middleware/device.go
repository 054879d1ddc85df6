package middleware

import (
	"net/http"
	"regexp"

	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	DeviceHeader = "X-Device-ID"
	DeviceCookie = "lb_device"
	CtxDevice    = "deviceID"
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// DeviceMiddleware 识别设备：先看 X-Device-ID，再看 cookie，都没有就发一个新的。
// 未登录时设备 ID 就是本地存储的命名空间。
func DeviceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(DeviceHeader)
		if !deviceIDPattern.MatchString(id) {
			id, _ = c.Cookie(DeviceCookie)
		}
		if !deviceIDPattern.MatchString(id) {
			var err error
			id, err = util.RandomString(22)
			if err != nil {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "無法產生裝置識別碼")
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(DeviceCookie, id, 365*24*3600, "/", "", false, true)
		}
		c.Header(DeviceHeader, id)
		c.Set(CtxDevice, id)
		c.Next()
	}
}

// DeviceID 返回当前请求的设备 ID
func DeviceID(c *gin.Context) string {
	return c.GetString(CtxDevice)
}
