package handler

import (
	"github.com/ting434252/lifebill/internal/middleware"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
)

// GetMe 返回当前设备和登录用户信息；匿名时 user 为 null
func GetMe(c *gin.Context) {
	resp := util.Response{
		"device":   middleware.DeviceID(c),
		"identity": middleware.Identity(c).String(),
		"user":     nil,
	}
	if user := middleware.CurrentUser(c); user != nil {
		resp["user"] = userResp(user)
	}
	util.Success(c, resp)
}
