package handler

import (
	"net/http"
	"strings"

	"github.com/ting434252/lifebill/internal/middleware"
	"github.com/ting434252/lifebill/internal/models"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UpdateProfileReq 更新基本资料请求
type UpdateProfileReq struct {
	DisplayName string `json:"display_name" binding:"max=64"`
}

// ChangePasswordReq 修改密码请求；只用 Google 登录过的账号可以不填旧密码
type ChangePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=64"`
}

// UpdateProfile 更新当前用户的昵称等资料
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登入")
			return
		}

		var req UpdateProfileReq
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err, "參數錯誤")
			return
		}
		req.DisplayName = strings.TrimSpace(req.DisplayName)

		if err := db.Model(user).Update("display_name", req.DisplayName).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "更新失敗")
			return
		}
		user.DisplayName = req.DisplayName

		util.Success(c, util.Response{"user": userResp(user)})
	}
}

// ChangePassword 修改当前用户密码，并作废其它设备上的登录
func ChangePassword(db *gorm.DB, cost int) gin.HandlerFunc {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登入")
			return
		}

		var req ChangePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err, "新密碼至少需要 6 位數")
			return
		}

		if user.PasswordHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
				badRequest(c, "原密碼錯誤")
				return
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), cost)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "密碼加密失敗")
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(user).Update("password_hash", string(hash)).Error; err != nil {
				return err
			}
			return tx.Model(&models.Session{}).
				Where("user_id = ? AND id <> ?", user.ID, c.GetString(middleware.CtxSessionID)).
				Update("revoked", true).Error
		})
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "更新密碼失敗")
			return
		}

		util.Success(c, util.Response{
			"message": "密碼修改成功，其他裝置需要重新登入",
		})
	}
}
