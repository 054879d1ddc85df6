package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/middleware"
	"github.com/ting434252/lifebill/internal/models"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupHandler 负责服务端加密备份
type BackupHandler struct {
	DB         *gorm.DB
	EncryptKey string
	BackupDir  string
}

// NewBackupHandler 构造函数
func NewBackupHandler(db *gorm.DB, encryptKey, backupDir string) *BackupHandler {
	return &BackupHandler{
		DB:         db,
		EncryptKey: encryptKey,
		BackupDir:  backupDir,
	}
}

func backupResp(b *models.Backup) gin.H {
	return gin.H{
		"id":         b.ID,
		"file_name":  b.FileName,
		"year":       b.Year,
		"records":    b.Records,
		"size":       b.Size,
		"created_at": b.CreatedAt,
	}
}

// find 只查当前归属者的备份；找不到时已写入错误
func (h *BackupHandler) find(c *gin.Context) (*models.Backup, bool) {
	var backup models.Backup
	err := h.DB.
		Where("id = ? AND owner = ?", c.Param("id"), middleware.Owner(c)).
		First(&backup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "備份不存在")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查詢備份失敗")
		}
		return nil, false
	}
	return &backup, true
}

// CreateBackup 把当前年度的数据（记录 + 设置）加密写入备份目录
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	ds, ok := snapshot(c)
	if !ok {
		return
	}

	var raw bytes.Buffer
	if err := journal.WriteBackup(&raw, ds, time.Now()); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "序列化失敗")
		return
	}
	enc, err := util.EncryptAES(h.EncryptKey, raw.Bytes())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "加密失敗")
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "建立備份目錄失敗")
		return
	}

	// 使用 uuid 作为文件名，归属者只记在表里
	fileName := fmt.Sprintf("backup-%d-%s.bin", ds.Year, uuid.New().String())
	filePath := filepath.Join(h.BackupDir, fileName)
	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "寫入備份檔案失敗")
		return
	}

	backup := models.Backup{
		Owner:    middleware.Owner(c),
		Year:     ds.Year,
		FileName: fileName,
		FilePath: filePath,
		Size:     int64(len(enc)),
		Records:  len(ds.Records),
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "保存備份紀錄失敗")
		return
	}

	util.Success(c, util.Response{"backup": backupResp(&backup)})
}

// ListBackups 列出当前归属者的备份
func (h *BackupHandler) ListBackups(c *gin.Context) {
	var list []models.Backup
	if err := h.DB.
		Where("owner = ?", middleware.Owner(c)).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查詢備份失敗")
		return
	}

	items := make([]gin.H, 0, len(list))
	for i := range list {
		items = append(items, backupResp(&list[i]))
	}
	util.Success(c, util.Response{"items": items})
}

// DownloadBackup 下载加密后的备份文件
func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	backup, ok := h.find(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", backup.FileName))
	c.File(backup.FilePath)
}

// DeleteBackup 删除备份记录及对应文件
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	backup, ok := h.find(c)
	if !ok {
		return
	}
	// 先删文件，再删记录
	_ = os.Remove(backup.FilePath)
	if err := h.DB.Delete(backup).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "刪除備份紀錄失敗")
		return
	}
	util.Success(c, util.Response{"message": "刪除成功"})
}

// RestoreBackup 用备份覆盖当前数据，需要 ?confirm=true。
// 备份年度与当前年度不同时先切换年度。
func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	backup, ok := h.find(c)
	if !ok {
		return
	}

	encData, err := os.ReadFile(backup.FilePath)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "讀取備份檔案失敗")
		return
	}
	raw, err := util.DecryptAES(h.EncryptKey, encData)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "解密備份檔案失敗")
		return
	}
	in, err := journal.ParseBackup(bytes.NewReader(raw))
	if err != nil {
		respondErr(c, err)
		return
	}

	if !confirmed(c) {
		respondErr(c, &journal.ConfirmError{
			Prompt: fmt.Sprintf("還原將覆蓋 %d 年度目前所有資料，確定要繼續嗎？", backup.Year),
		})
		return
	}
	if in.Year != 0 && in.Year != s.Year() {
		if err := s.SwitchYear(c.Request.Context(), in.Year); err != nil {
			respondErr(c, err)
			return
		}
	}
	err = s.Do(c.Request.Context(), func(j *journal.Journal) error {
		return j.Import(in, true)
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	util.Success(c, util.Response{
		"message": "還原成功",
		"year":    s.Year(),
		"records": len(in.Records),
	})
}
