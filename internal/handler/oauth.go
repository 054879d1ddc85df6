package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ting434252/lifebill/internal/models"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	oauthStateCookie  = "lb_oauth_state"
)

// GoogleConfig 返回 Google 授权码流程的配置
func GoogleConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

type googleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleLogin 跳转到 Google 授权页，state 放在 cookie 里
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.OAuth == nil {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "未啟用 Google 登入")
		return
	}
	state, err := util.RandomString(24)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "產生 state 失敗")
		return
	}
	c.SetCookie(oauthStateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.OAuth.AuthCodeURL(state))
}

// GoogleCallback 换取 token 并登录；新用户自动注册，同 Email 的账号会绑定 Google
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.OAuth == nil {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "未啟用 Google 登入")
		return
	}
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		badRequest(c, "登入狀態無效，請重新登入")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		badRequest(c, "缺少授權碼")
		return
	}

	gu, err := h.fetchGoogleUser(c.Request.Context(), code)
	if err != nil {
		slog.Warn("google sign in failed", "error", err)
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "Google 登入失敗")
		return
	}

	user, err := h.googleAccount(gu)
	if err != nil {
		slog.Error("google account", "error", err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "建立使用者失敗")
		return
	}
	h.signIn(c, user)
}

func (h *AuthHandler) fetchGoogleUser(ctx context.Context, code string) (*googleUser, error) {
	tok, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	resp, err := h.OAuth.Client(ctx, tok).Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("get userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get userinfo: status %d", resp.StatusCode)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if gu.Sub == "" || gu.Email == "" {
		return nil, errors.New("userinfo without subject or email")
	}
	return &gu, nil
}

// googleAccount 依次按 Google subject、已验证的 Email 查找，找不到就新建
func (h *AuthHandler) googleAccount(gu *googleUser) (*models.User, error) {
	var user models.User
	err := h.DB.Where("google_sub = ?", gu.Sub).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email := normalizeEmail(gu.Email)
	sub := gu.Sub
	if gu.EmailVerified {
		err = h.DB.Where("email = ?", email).First(&user).Error
		if err == nil {
			if err := h.DB.Model(&user).Update("google_sub", sub).Error; err != nil {
				return nil, err
			}
			user.GoogleSub = &sub
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	user = models.User{
		Email:       email,
		GoogleSub:   &sub,
		DisplayName: strings.TrimSpace(gu.Name),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
