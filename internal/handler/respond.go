package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/middleware"
	"github.com/ting434252/lifebill/internal/persist"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondErr 把领域错误映射为统一的错误返回
func respondErr(c *gin.Context, err error) {
	var ve *journal.ValidationError
	var ce *journal.ConfirmError
	switch {
	case errors.As(err, &ve):
		util.ErrorWith(c, http.StatusBadRequest, util.CodeInvalidParam, ve.Message, util.Response{"field": ve.Field})
	case errors.As(err, &ce):
		util.ErrorWith(c, http.StatusConflict, util.CodeConfirm, ce.Prompt, util.Response{"prompt": ce.Prompt})
	case errors.Is(err, journal.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case errors.Is(err, journal.ErrDuplicate),
		errors.Is(err, journal.ErrLastCategory),
		errors.Is(err, journal.ErrKindMismatch),
		errors.Is(err, journal.ErrBadBackup):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case persist.IsBackend(err):
		util.Error(c, http.StatusBadGateway, util.CodeBackend, err.Error())
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "伺服器錯誤")
	}
}

// session 取得当前会话；中间件未挂载时返回 nil 并写入错误
func session(c *gin.Context) *persist.Session {
	s := middleware.Journal(c)
	if s == nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "會話不存在")
	}
	return s
}

// confirmed 读取 ?confirm=true
func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

func badRequest(c *gin.Context, msg string) {
	util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, msg)
}

// bindFailed 回应请求体解析失败；能定位到字段时附带 field
func bindFailed(c *gin.Context, err error, msg string) {
	var ve validator.ValidationErrors
	var te *json.UnmarshalTypeError
	switch {
	case errors.As(err, &ve) && len(ve) > 0:
		util.ErrorWith(c, http.StatusBadRequest, util.CodeInvalidParam, msg, util.Response{"field": ve[0].Field()})
	case errors.As(err, &te) && te.Field != "":
		util.ErrorWith(c, http.StatusBadRequest, util.CodeInvalidParam, msg, util.Response{"field": te.Field})
	default:
		badRequest(c, msg)
	}
}
