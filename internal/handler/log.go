package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ting434252/lifebill/internal/middleware"
	"github.com/ting434252/lifebill/internal/models"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler 负责操作日志查询接口
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
}

func NewLogHandler(db *gorm.DB, encryptKey string) *LogHandler {
	return &LogHandler{
		DB:         db,
		EncryptKey: encryptKey,
	}
}

type logResp struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

func pageParams(c *gin.Context, defSize int) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defSize)))
	if size <= 0 || size > 100 {
		size = defSize
	}
	return page, size
}

// ListLogs 列出当前归属者的操作日志（分页 + 时间 + 路径关键字）
func (h *LogHandler) ListLogs(c *gin.Context) {
	page, size := pageParams(c, 20)

	base := h.DB.Model(&models.AuditLog{}).Where("owner = ?", middleware.Owner(c))

	// 时间筛选：start / end（格式 YYYY-MM-DD）
	if v := c.Query("start"); v != "" {
		start, err := time.Parse(util.DateLayout, v)
		if err != nil {
			badRequest(c, "開始日期格式錯誤")
			return
		}
		base = base.Where("created_at >= ?", start)
	}
	if v := c.Query("end"); v != "" {
		end, err := time.Parse(util.DateLayout, v)
		if err != nil {
			badRequest(c, "結束日期格式錯誤")
			return
		}
		base = base.Where("created_at < ?", end.Add(24*time.Hour))
	}
	// 动作描述是密文，关键字只匹配 path
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		base = base.Where("path LIKE ?", "%"+q+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查詢失敗")
		return
	}

	var logs []models.AuditLog
	if err := base.
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查詢失敗")
		return
	}

	items := make([]logResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		items = append(items, logResp{
			ID:        l.ID,
			Action:    util.DecryptField(h.EncryptKey, l.ActionEnc),
			Path:      l.Path,
			Method:    l.Method,
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

type recordHistoryResp struct {
	ID        uint      `json:"id"`
	Operation string    `json:"operation"`
	Category  string    `json:"category,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Date      string    `json:"date,omitempty"`
	Note      string    `json:"note,omitempty"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

func recordOperation(method string) string {
	switch method {
	case http.MethodPost:
		return "新增紀錄"
	case http.MethodPatch:
		return "修改紀錄"
	case http.MethodDelete:
		return "刪除紀錄"
	}
	return method
}

// fillFromAction 从动作描述里的请求体提取记录详情
func fillFromAction(item *recordHistoryResp, action string) {
	start := strings.Index(action, "{")
	end := strings.LastIndex(action, "}")
	if start < 0 || end <= start {
		return
	}
	var req map[string]any
	if json.Unmarshal([]byte(action[start:end+1]), &req) != nil {
		return
	}
	kind, _ := req["category"].(string)
	switch kind {
	case "daily":
		item.Category = "日常"
	case "tea":
		item.Category = "手搖飲"
	case "mahjong":
		item.Category = "麻將"
	}
	if v, ok := req["amount"].(float64); ok {
		item.Amount = strconv.FormatFloat(v, 'f', -1, 64) + " 元"
	}
	if v, ok := req["date"].(string); ok {
		item.Date = v
	}
	if v, ok := req["note"].(string); ok {
		item.Note = v
	}
}

// ListRecordHistory 查询记录相关的历史操作（仅增删改）
func (h *LogHandler) ListRecordHistory(c *gin.Context) {
	page, size := pageParams(c, 50)

	base := h.DB.Model(&models.AuditLog{}).
		Where("owner = ? AND path LIKE ?", middleware.Owner(c), "/api/records%").
		Where("method IN ?", []string{http.MethodPost, http.MethodPatch, http.MethodDelete})

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查詢失敗")
		return
	}

	var logs []models.AuditLog
	if err := base.
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "查詢失敗")
		return
	}

	items := make([]recordHistoryResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		item := recordHistoryResp{
			ID:        l.ID,
			Operation: recordOperation(l.Method),
			Status:    l.Status,
			IP:        l.IP,
			CreatedAt: l.CreatedAt,
		}
		fillFromAction(&item, util.DecryptField(h.EncryptKey, l.ActionEnc))
		items = append(items, item)
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
