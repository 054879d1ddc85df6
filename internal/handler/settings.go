package handler

import (
	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
)

// SettingsHandler 管理类别、牌友、范本和年度
type SettingsHandler struct{}

func NewSettingsHandler() *SettingsHandler {
	return &SettingsHandler{}
}

type nameReq struct {
	Name string `json:"name" binding:"required,notblank,max=30"`
}

type categoryReq struct {
	Type journal.Direction `json:"type" binding:"required,oneof=income expense"`
	Name string            `json:"name" binding:"required,notblank,max=30"`
}

type moveReq struct {
	From int `json:"from" binding:"min=0"`
	To   int `json:"to" binding:"min=0"`
}

type templateReq struct {
	Name        string            `json:"name" binding:"required,notblank,max=30"`
	Type        journal.Direction `json:"type" binding:"omitempty,oneof=income expense"`
	SubCategory string            `json:"subCategory" binding:"required"`
	Amount      float64           `json:"amount"`
	Note        string            `json:"note" binding:"max=200"`
}

type applyReq struct {
	Date string `json:"date" binding:"omitempty,ymd"`
}

type yearReq struct {
	Year int `json:"year" binding:"required,min=1900,max=9999"`
}

// GetSettings 返回当前年度及全部设置
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	var resp util.Response
	s.View(func(j *journal.Journal) {
		resp = util.Response{
			"year":       j.Year(),
			"categories": j.Categories(),
			"players":    j.Players(),
			"templates":  j.Templates(),
		}
	})
	resp["identity"] = s.Identity().String()
	util.Success(c, resp)
}

// mutate 执行一次修改并返回最新设置
func (h *SettingsHandler) mutate(c *gin.Context, fn func(j *journal.Journal) error) {
	s := session(c)
	if s == nil {
		return
	}
	if err := s.Do(c.Request.Context(), fn); err != nil {
		respondErr(c, err)
		return
	}
	h.GetSettings(c)
}

func (h *SettingsHandler) AddCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "參數錯誤")
		return
	}
	h.mutate(c, func(j *journal.Journal) error { return j.AddCategory(req.Type, req.Name) })
}

// RemoveCategory DELETE /categories/:type/:name?confirm=true
func (h *SettingsHandler) RemoveCategory(c *gin.Context) {
	d := journal.Direction(c.Param("type"))
	if !d.Valid() {
		badRequest(c, "請選擇收入或支出")
		return
	}
	h.mutate(c, func(j *journal.Journal) error {
		return j.RemoveCategory(d, c.Param("name"), confirmed(c))
	})
}

func (h *SettingsHandler) MoveCategory(c *gin.Context) {
	d := journal.Direction(c.Param("type"))
	if !d.Valid() {
		badRequest(c, "請選擇收入或支出")
		return
	}
	var req moveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "參數錯誤")
		return
	}
	h.mutate(c, func(j *journal.Journal) error { return j.MoveCategory(d, req.From, req.To) })
}

func (h *SettingsHandler) AddPlayer(c *gin.Context) {
	var req nameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "參數錯誤")
		return
	}
	h.mutate(c, func(j *journal.Journal) error { return j.AddPlayer(req.Name) })
}

func (h *SettingsHandler) RemovePlayer(c *gin.Context) {
	h.mutate(c, func(j *journal.Journal) error {
		return j.RemovePlayer(c.Param("name"), confirmed(c))
	})
}

func (h *SettingsHandler) MovePlayer(c *gin.Context) {
	var req moveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "參數錯誤")
		return
	}
	h.mutate(c, func(j *journal.Journal) error { return j.MovePlayer(req.From, req.To) })
}

func (h *SettingsHandler) AddTemplate(c *gin.Context) {
	var req templateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "參數錯誤")
		return
	}
	h.mutate(c, func(j *journal.Journal) error {
		_, err := j.AddTemplate(journal.Template{
			Name:        req.Name,
			Type:        req.Type,
			SubCategory: req.SubCategory,
			Amount:      req.Amount,
			Note:        req.Note,
		})
		return err
	})
}

func (h *SettingsHandler) RemoveTemplate(c *gin.Context) {
	h.mutate(c, func(j *journal.Journal) error {
		return j.RemoveTemplate(c.Param("id"), confirmed(c))
	})
}

// ApplyTemplate 用范本新增一笔日常记录
func (h *SettingsHandler) ApplyTemplate(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	var req applyReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err, "參數錯誤")
			return
		}
	}
	var created journal.Record
	err := s.Do(c.Request.Context(), func(j *journal.Journal) error {
		var err error
		created, err = j.ApplyTemplate(c.Param("id"), req.Date)
		return err
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	util.Success(c, util.Response{"record": created})
}

// SwitchYear 切换年度，只加载该年度的记录
func (h *SettingsHandler) SwitchYear(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	var req yearReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "年度格式錯誤")
		return
	}
	if err := s.SwitchYear(c.Request.Context(), req.Year); err != nil {
		respondErr(c, err)
		return
	}
	h.GetSettings(c)
}
