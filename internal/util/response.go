package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 通用返回结构里的 data 使用 map
type Response map[string]interface{}

// 业务错误码
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeNotFound     = 40401
	CodeConfirm      = 40901 // 破坏性操作需要确认
	CodeServerErr    = 50001
	CodeBackend      = 50201 // 存储后端读写失败
)

// Success 统一成功返回
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error 统一错误返回
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// ErrorWith 错误返回并附带额外字段（比如确认提示）
func ErrorWith(c *gin.Context, httpStatus int, code int, msg string, extra Response) {
	body := gin.H{
		"code":    code,
		"message": msg,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(httpStatus, body)
}
