package router

import (
	"github.com/ting434252/lifebill/internal/config"
	"github.com/ting434252/lifebill/internal/handler"
	"github.com/ting434252/lifebill/internal/middleware"
	"github.com/ting434252/lifebill/internal/persist"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and the /api routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, sessions *persist.Manager) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")
	api.Use(
		middleware.DeviceMiddleware(),
		middleware.AuthMiddleware(cfg.JWT.Secret, db),
		// 请求体里有密码或整份备份，不附上
		middleware.AuditMiddleware(db, cfg.Security.EncryptionKey,
			"/api/auth/register", "/api/auth/login", "/api/profile/password", "/api/import"),
	)

	// ====== 登录 ======
	authHandler := handler.NewAuthHandler(db, sessions, handler.AuthOptions{
		JWTSecret:   cfg.JWT.Secret,
		Issuer:      cfg.JWT.Issuer,
		TTLHours:    cfg.JWT.ExpireHours,
		BcryptCost:  cfg.Security.BcryptCost,
		MaxFails:    cfg.Security.MaxLoginFails,
		LockMinutes: cfg.Security.LockMinutes,
	})
	if cfg.OAuth.Enabled() {
		authHandler.OAuth = handler.GoogleConfig(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.RedirectURL)
	}
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/google/login", authHandler.GoogleLogin)
	api.GET("/auth/google/callback", authHandler.GoogleCallback)
	api.GET("/me", handler.GetMe)

	account := api.Group("")
	account.Use(middleware.RequireAuth())
	account.POST("/auth/logout", authHandler.Logout)
	account.POST("/profile", handler.UpdateProfile(db))
	account.POST("/profile/password", handler.ChangePassword(db, cfg.Security.BcryptCost))

	// ====== 日志数据（匿名设备用本地存储，登录用户用云端） ======
	j := api.Group("")
	j.Use(middleware.JournalMiddleware(sessions))

	recordHandler := handler.NewRecordHandler()
	j.GET("/records", recordHandler.ListRecords)
	j.POST("/records", recordHandler.CreateRecord)
	j.DELETE("/records", recordHandler.ClearRecords)
	j.GET("/records/:id", recordHandler.GetRecord)
	j.PATCH("/records/:id", recordHandler.UpdateRecord)
	j.DELETE("/records/:id", recordHandler.DeleteRecord)
	j.POST("/records/:id/duplicate", recordHandler.DuplicateRecord)
	j.GET("/balance", recordHandler.Balance)
	j.GET("/tea/suggestions", recordHandler.TeaSuggestions)

	settingsHandler := handler.NewSettingsHandler()
	j.GET("/settings", settingsHandler.GetSettings)
	j.PUT("/year", settingsHandler.SwitchYear)
	j.POST("/categories", settingsHandler.AddCategory)
	j.DELETE("/categories/:type/:name", settingsHandler.RemoveCategory)
	j.POST("/categories/:type/move", settingsHandler.MoveCategory)
	j.POST("/players", settingsHandler.AddPlayer)
	j.DELETE("/players/:name", settingsHandler.RemovePlayer)
	j.POST("/players/move", settingsHandler.MovePlayer)
	j.POST("/templates", settingsHandler.AddTemplate)
	j.DELETE("/templates/:id", settingsHandler.RemoveTemplate)
	j.POST("/templates/:id/apply", settingsHandler.ApplyTemplate)

	viewHandler := handler.NewViewHandler()
	j.GET("/stats/daily", viewHandler.DailyStats)
	j.GET("/stats/tea", viewHandler.TeaStats)
	j.GET("/stats/mahjong", viewHandler.MahjongStats)
	j.GET("/calendar", viewHandler.Calendar)
	j.GET("/calendar/:date", viewHandler.Day)

	importExportHandler := handler.NewImportExportHandler()
	j.GET("/export/csv", importExportHandler.ExportCSV)
	j.GET("/export/xlsx", importExportHandler.ExportXLSX)
	j.GET("/export/json", importExportHandler.ExportJSON)
	j.POST("/import", importExportHandler.Import)

	backupHandler := handler.NewBackupHandler(db, cfg.Security.EncryptionKey, cfg.Backup.Dir)
	j.POST("/backups", backupHandler.CreateBackup)
	j.GET("/backups", backupHandler.ListBackups)
	j.GET("/backups/:id/download", backupHandler.DownloadBackup)
	j.POST("/backups/:id/restore", backupHandler.RestoreBackup)
	j.DELETE("/backups/:id", backupHandler.DeleteBackup)

	j.GET("/events", handler.Events)

	logHandler := handler.NewLogHandler(db, cfg.Security.EncryptionKey)
	api.GET("/logs", logHandler.ListLogs)
	api.GET("/history", logHandler.ListRecordHistory)

	return r
}
