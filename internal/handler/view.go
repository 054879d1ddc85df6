package handler

import (
	"strconv"
	"time"

	"github.com/ting434252/lifebill/internal/journal"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
)

// ViewHandler 提供统计和月历视图
type ViewHandler struct{}

func NewViewHandler() *ViewHandler {
	return &ViewHandler{}
}

func rangeParam(c *gin.Context) (journal.Range, bool) {
	rng := journal.Range(c.DefaultQuery("range", string(journal.RangeMonth)))
	if !rng.Valid() {
		badRequest(c, "range 只能是 month 或 year")
		return "", false
	}
	return rng, true
}

func kindParam(c *gin.Context) (journal.Kind, bool) {
	kind := journal.Kind(c.DefaultQuery("kind", string(journal.KindDaily)))
	if !kind.Valid() {
		badRequest(c, "未知的紀錄類別")
		return "", false
	}
	return kind, true
}

// DailyStats GET /stats/daily?range=month|year&type=expense|income
func (h *ViewHandler) DailyStats(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	rng, ok := rangeParam(c)
	if !ok {
		return
	}
	d := journal.Direction(c.DefaultQuery("type", string(journal.Expense)))
	if !d.Valid() {
		badRequest(c, "請選擇收入或支出")
		return
	}
	var st journal.DailyStats
	s.View(func(j *journal.Journal) { st = journal.Daily(j.Records(), d, rng, j.StatsTime()) })
	util.Success(c, util.Response{"stats": st})
}

// TeaStats GET /stats/tea?range=&shop=&month=&min_rating=
func (h *ViewHandler) TeaStats(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	rng, ok := rangeParam(c)
	if !ok {
		return
	}
	f := journal.TeaFilter{Shop: c.Query("shop")}
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			badRequest(c, "月份格式錯誤")
			return
		}
		f.Month = m
	}
	if v := c.Query("min_rating"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			badRequest(c, "評分格式錯誤")
			return
		}
		f.MinRating = r
	}
	var st journal.TeaStats
	s.View(func(j *journal.Journal) { st = journal.Tea(j.Records(), rng, f, j.StatsTime()) })
	util.Success(c, util.Response{"stats": st})
}

func (h *ViewHandler) MahjongStats(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	rng, ok := rangeParam(c)
	if !ok {
		return
	}
	var st journal.MahjongStats
	s.View(func(j *journal.Journal) { st = journal.Mahjong(j.Records(), rng, j.StatsTime()) })
	util.Success(c, util.Response{"stats": st})
}

// Calendar GET /calendar?kind=daily&month=5，年度固定为当前年度
func (h *ViewHandler) Calendar(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	month := 0
	if v := c.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			badRequest(c, "月份格式錯誤")
			return
		}
		month = m
	}

	var grid journal.MonthGrid
	s.View(func(j *journal.Journal) {
		m := time.Month(month)
		if m == 0 {
			m = j.StatsTime().Month()
		}
		grid = journal.Calendar(j.Records(), kind, j.Year(), m)
	})
	util.Success(c, util.Response{"calendar": grid})
}

// Day GET /calendar/:date?kind=daily，列出某天的记录
func (h *ViewHandler) Day(c *gin.Context) {
	s := session(c)
	if s == nil {
		return
	}
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	date := c.Param("date")
	if err := util.ValidateDate(date); err != nil {
		badRequest(c, "日期格式錯誤")
		return
	}
	var items []journal.Record
	s.View(func(j *journal.Journal) { items = journal.RecordsOn(j.Records(), kind, date) })
	if items == nil {
		items = []journal.Record{}
	}
	util.Success(c, util.Response{"date": date, "items": items})
}
