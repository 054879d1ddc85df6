package handler

import (
	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
)

// RecordHandler 负责日志记录的增删改查
type RecordHandler struct{}

func NewRecordHandler() *RecordHandler {
	return &RecordHandler{}
}

// 请求体按 category 区分三种表单
type recordReq struct {
	Category    journal.Kind      `json:"category" binding:"required,oneof=daily tea mahjong"`
	Date        string            `json:"date" binding:"omitempty,ymd"`
	Amount      float64           `json:"amount"`
	Note        string            `json:"note" binding:"max=200"`
	Type        journal.Direction `json:"type" binding:"omitempty,oneof=income expense"`
	SubCategory string            `json:"subCategory"`
	Shop        string            `json:"shop"`
	Item        string            `json:"item"`
	Sugar       string            `json:"sugar"`
	Ice         string            `json:"ice"`
	Rating      float64           `json:"rating"`
	IsWin       bool              `json:"isWin"`
	Players     []string          `json:"players"`
}

func (req recordReq) add(j *journal.Journal) (journal.Record, error) {
	switch req.Category {
	case journal.KindTea:
		return j.AddTea(journal.TeaForm{
			Date:   req.Date,
			Shop:   req.Shop,
			Item:   req.Item,
			Sugar:  req.Sugar,
			Ice:    req.Ice,
			Rating: req.Rating,
			Amount: req.Amount,
			Note:   req.Note,
		})
	case journal.KindMahjong:
		return j.AddMahjong(journal.MahjongForm{
			Date:    req.Date,
			IsWin:   req.IsWin,
			Players: req.Players,
			Amount:  req.Amount,
			Note:    req.Note,
		})
	default:
		return j.AddDaily(journal.DailyForm{
			Date:        req.Date,
			Type:        req.Type,
			SubCategory: req.SubCategory,
			Amount:      req.Amount,
			Note:        req.Note,
		})
	}
}

// ListRecords 列出当年度记录，可按 kind / date / month 过滤
func (h *RecordHandler) ListRecords(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	f := journal.Filter{
		Kind:  journal.Kind(c.Query("kind")),
		Date:  c.Query("date"),
		Month: c.Query("month"),
	}
	if f.Kind != "" && !f.Kind.Valid() {
		badRequest(c, "未知的紀錄類別")
		return
	}

	var (
		items []journal.Record
		year  int
	)
	s.View(func(j *journal.Journal) {
		items = j.List(f)
		year = j.Year()
	})
	if items == nil {
		items = []journal.Record{}
	}
	util.Success(c, util.Response{
		"year":  year,
		"items": items,
		"total": len(items),
	})
}

func (h *RecordHandler) GetRecord(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	var (
		r   journal.Record
		err error
	)
	s.View(func(j *journal.Journal) { r, err = j.Record(c.Param("id")) })
	if err != nil {
		respondErr(c, err)
		return
	}
	util.Success(c, util.Response{"record": r})
}

// CreateRecord 新增一笔记录
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	var req recordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "參數錯誤")
		return
	}

	var created journal.Record
	err := s.Do(c.Request.Context(), func(j *journal.Journal) error {
		var err error
		created, err = req.add(j)
		return err
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	util.Success(c, util.Response{"record": created})
}

// UpdateRecord 部分更新，未给出的字段保持不变
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	var p journal.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		bindFailed(c, err, "參數錯誤")
		return
	}

	var updated journal.Record
	err := s.Do(c.Request.Context(), func(j *journal.Journal) error {
		var err error
		updated, err = j.Update(c.Param("id"), p)
		return err
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	util.Success(c, util.Response{"record": updated})
}

// DeleteRecord 删除前需要 ?confirm=true
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	err := s.Do(c.Request.Context(), func(j *journal.Journal) error {
		return j.Delete(c.Param("id"), confirmed(c))
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	util.Success(c, util.Response{"message": "已刪除"})
}

func (h *RecordHandler) DuplicateRecord(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	var copied journal.Record
	err := s.Do(c.Request.Context(), func(j *journal.Journal) error {
		var err error
		copied, err = j.Duplicate(c.Param("id"))
		return err
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	util.Success(c, util.Response{"record": copied})
}

// ClearRecords 清空当年度所有记录
func (h *RecordHandler) ClearRecords(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	err := s.Do(c.Request.Context(), func(j *journal.Journal) error {
		return j.Clear(confirmed(c))
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	util.Success(c, util.Response{"message": "已清空"})
}

// Balance 收入减支出
func (h *RecordHandler) Balance(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	var balance float64
	s.View(func(j *journal.Journal) { balance = j.Balance() })
	util.Success(c, util.Response{"balance": balance})
}

// TeaSuggestions 返回店家列表，带 shop 时附上该店品项
func (h *RecordHandler) TeaSuggestions(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	shop := c.Query("shop")
	var shops, items []string
	s.View(func(j *journal.Journal) {
		shops = j.Shops()
		if shop != "" {
			items = j.Items(shop)
		}
	})
	if shops == nil {
		shops = []string{}
	}
	if items == nil {
		items = []string{}
	}
	util.Success(c, util.Response{"shops": shops, "items": items})
}
