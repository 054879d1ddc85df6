package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ting434252/lifebill/internal/middleware"
	"github.com/ting434252/lifebill/internal/models"
	"github.com/ting434252/lifebill/internal/persist"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// AuthHandler 负责登录/注册相关接口
type AuthHandler struct {
	DB         *gorm.DB
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
	MaxFails   int
	LockFor    time.Duration
	Sessions   *persist.Manager

	// Google 登录，未配置时为 nil
	OAuth       *oauth2.Config
	UserInfoURL string
}

// AuthOptions 是 AuthHandler 的可调参数
type AuthOptions struct {
	JWTSecret   string
	Issuer      string
	TTLHours    int
	BcryptCost  int
	MaxFails    int
	LockMinutes int
}

// NewAuthHandler 构造函数
func NewAuthHandler(db *gorm.DB, sessions *persist.Manager, opts AuthOptions) *AuthHandler {
	if opts.TTLHours <= 0 {
		opts.TTLHours = 24
	}
	if opts.BcryptCost < bcrypt.MinCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MaxFails <= 0 {
		opts.MaxFails = 5
	}
	if opts.LockMinutes <= 0 {
		opts.LockMinutes = 10
	}
	return &AuthHandler{
		DB:          db,
		JWTSecret:   opts.JWTSecret,
		Issuer:      opts.Issuer,
		TokenTTL:    time.Duration(opts.TTLHours) * time.Hour,
		BcryptCost:  opts.BcryptCost,
		MaxFails:    opts.MaxFails,
		LockFor:     time.Duration(opts.LockMinutes) * time.Minute,
		Sessions:    sessions,
		UserInfoURL: googleUserInfoURL,
	}
}

func userResp(u *models.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"email":        u.Email,
		"display_name": u.DisplayName,
		"google":       u.GoogleSub != nil,
		"created_at":   u.CreatedAt,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// signIn 为用户签发 token，并把当前设备切换到该用户的云端日志
func (h *AuthHandler) signIn(c *gin.Context, user *models.User) {
	now := time.Now()
	device := middleware.DeviceID(c)
	sess := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		DeviceID:  device,
		ExpiresAt: now.Add(h.TokenTTL),
	}
	if err := h.DB.Create(&sess).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "建立登入紀錄失敗")
		return
	}

	token, err := util.GenerateToken(h.JWTSecret, h.Issuer, sess.ID, user.ID, user.Email, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "產生 token 失敗")
		return
	}

	// 读取失败时会话会推送 toast，登录本身仍然成功
	id := persist.Identity{UserID: user.ID, Email: user.Email}
	if err := h.Sessions.Bind(c.Request.Context(), device, id); err != nil {
		slog.Warn("bind device after sign in", "device", device, "user_id", user.ID, "error", err)
	}

	c.SetCookie(middleware.TokenCookie, token, int(h.TokenTTL.Seconds()), "/", "", false, true)
	c.Set(middleware.CtxUser, user)
	util.Success(c, util.Response{
		"token": token,
		"user":  userResp(user),
	})
}

// ---------- 注册 ----------

type registerReq struct {
	Email       string `json:"email" binding:"required,email,max=128"`
	Password    string `json:"password" binding:"required,min=6,max=64"`
	DisplayName string `json:"display_name" binding:"max=64"`
}

// Register 注册后直接登录
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "請輸入有效的 Email 與至少 6 位數的密碼")
		return
	}
	req.Email = normalizeEmail(req.Email)

	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查詢使用者失敗")
		return
	}
	if count > 0 {
		badRequest(c, "此 Email 已被註冊")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.BcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "密碼加密失敗")
		return
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "建立使用者失敗")
		return
	}
	h.signIn(c, &user)
}

// ---------- 登录 ----------

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "參數錯誤")
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "帳號或密碼錯誤")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查詢使用者失敗")
		}
		return
	}

	now := time.Now()

	// 检查是否被锁定
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "帳號已鎖定，請稍後再試")
		return
	}

	// 只用 Google 登录过的账号没有密码哈希，比较必然失败
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= h.MaxFails {
			lockUntil := now.Add(h.LockFor)
			user.LockedUntil = &lockUntil
			user.FailedLoginAttempts = 0
		}
		_ = h.DB.Save(&user).Error
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "帳號或密碼錯誤")
		return
	}

	// 登录成功：重置失败次数和锁定时间，记录登录 IP 和时间
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginIP = c.ClientIP()
	user.LastLoginAt = &now
	_ = h.DB.Save(&user).Error

	h.signIn(c, &user)
}

// Logout 作废当前 token，关闭该用户在此设备上的会话；设备的本地会话不受影响
func (h *AuthHandler) Logout(c *gin.Context) {
	if jti := c.GetString(middleware.CtxSessionID); jti != "" {
		if err := h.DB.Model(&models.Session{}).Where("id = ?", jti).Update("revoked", true).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "登出失敗")
			return
		}
	}
	device := middleware.DeviceID(c)
	if err := h.Sessions.Unbind(c.Request.Context(), device, middleware.Identity(c)); err != nil {
		slog.Warn("unbind device after sign out", "device", device, "error", err)
	}
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	util.Success(c, util.Response{"message": "已登出"})
}
