package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ting434252/lifebill/internal/models"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	CtxUser      = "currentUser"
	CtxSessionID = "sessionID"
	TokenCookie  = "lb_token"
)

func tokenFrom(c *gin.Context) string {
	// 1) Header: Authorization: Bearer xxx
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	// 2) ?token=xxx（下载、SSE 等无法自定义 Header 的场景）
	if tok := c.Query("token"); tok != "" {
		return tok
	}
	// 3) Cookie
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware 校验 JWT，并在 context 里放入当前用户。
// 没带 token 的请求视为匿名，照常放行；带了无效 token 则拒绝。
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			c.Next()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "登入已失效，請重新登入")
			c.Abort()
			return
		}

		if claims.ID != "" {
			var sess models.Session
			err := db.Where("id = ? AND user_id = ?", claims.ID, claims.UserID).First(&sess).Error
			if err != nil || sess.Revoked {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "登入已失效，請重新登入")
				c.Abort()
				return
			}
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "使用者不存在")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查詢使用者失敗")
			}
			c.Abort()
			return
		}

		c.Set(CtxUser, &user)
		c.Set(CtxSessionID, claims.ID)
		c.Next()
	}
}

// RequireAuth 只允许已登录用户
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登入")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser 返回已登录用户，匿名时为 nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
