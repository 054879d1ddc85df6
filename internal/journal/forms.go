package journal

import (
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ting434252/lifebill/internal/util"
)

// Tea options offered by the form.
var (
	SugarLevels = []string{"無糖", "微糖", "半糖", "少糖", "全糖"}
	IceLevels   = []string{"熱", "去冰", "微冰", "少冰", "正常"}
)

const (
	defaultSugar = "半糖"
	defaultIce   = "少冰"
)

// DailyForm collects an income/expense entry.
type DailyForm struct {
	Date        string
	Type        Direction
	SubCategory string
	Amount      float64
	Note        string
}

// Payload normalizes the form into a record payload; today fills an empty date.
func (f DailyForm) Payload(today string) Record {
	r := Record{
		Category:    KindDaily,
		Date:        strings.TrimSpace(f.Date),
		Type:        f.Type,
		SubCategory: strings.TrimSpace(f.SubCategory),
		Amount:      f.Amount,
		Note:        strings.TrimSpace(f.Note),
	}
	if r.Date == "" {
		r.Date = today
	}
	if r.Type == "" {
		r.Type = Expense
	}
	return r
}

// TeaForm collects a bubble-tea purchase.
type TeaForm struct {
	Date   string
	Shop   string
	Item   string
	Sugar  string
	Ice    string
	Rating float64
	Amount float64
	Note   string
}

func (f TeaForm) Payload(today string) Record {
	r := Record{
		Category: KindTea,
		Date:     strings.TrimSpace(f.Date),
		Shop:     strings.TrimSpace(f.Shop),
		Item:     strings.TrimSpace(f.Item),
		Sugar:    strings.TrimSpace(f.Sugar),
		Ice:      strings.TrimSpace(f.Ice),
		Rating:   f.Rating,
		Amount:   f.Amount,
		Note:     strings.TrimSpace(f.Note),
	}
	if r.Date == "" {
		r.Date = today
	}
	if r.Sugar == "" {
		r.Sugar = defaultSugar
	}
	if r.Ice == "" {
		r.Ice = defaultIce
	}
	return r
}

// MahjongForm collects a game result.
type MahjongForm struct {
	Date    string
	IsWin   bool
	Players []string
	Amount  float64
	Note    string
}

func (f MahjongForm) Payload(today string) Record {
	r := Record{
		Category: KindMahjong,
		Date:     strings.TrimSpace(f.Date),
		IsWin:    f.IsWin,
		Amount:   f.Amount,
		Note:     strings.TrimSpace(f.Note),
	}
	for _, p := range f.Players {
		r.Players = append(r.Players, strings.TrimSpace(p))
	}
	if r.Date == "" {
		r.Date = today
	}
	return r
}

// ParseAmount parses user text such as "120" or "85.5" into an amount.
func ParseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, invalid("amount", "請輸入有效金額")
	}
	amount := d.InexactFloat64()
	if util.ValidateAmount(amount) != nil {
		return 0, invalid("amount", "請輸入有效金額")
	}
	return amount, nil
}

// Patch is a partial record update. Nil fields are left as they are.
type Patch struct {
	Category    *Kind      `json:"category"`
	Date        *string    `json:"date"`
	Amount      *float64   `json:"amount"`
	Note        *string    `json:"note"`
	Type        *Direction `json:"type"`
	SubCategory *string    `json:"subCategory"`
	Shop        *string    `json:"shop"`
	Item        *string    `json:"item"`
	Sugar       *string    `json:"sugar"`
	Ice         *string    `json:"ice"`
	Rating      *float64   `json:"rating"`
	IsWin       *bool      `json:"isWin"`
	Players     []string   `json:"players"`
}

func (p Patch) apply(r Record) Record {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&r.Date, p.Date)
	set(&r.Note, p.Note)
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	switch r.Category {
	case KindDaily:
		if p.Type != nil {
			r.Type = *p.Type
		}
		set(&r.SubCategory, p.SubCategory)
	case KindTea:
		set(&r.Shop, p.Shop)
		set(&r.Item, p.Item)
		set(&r.Sugar, p.Sugar)
		set(&r.Ice, p.Ice)
		if p.Rating != nil {
			r.Rating = *p.Rating
		}
	case KindMahjong:
		if p.IsWin != nil {
			r.IsWin = *p.IsWin
		}
		if p.Players != nil {
			r.Players = nil
			for _, name := range p.Players {
				r.Players = append(r.Players, strings.TrimSpace(name))
			}
		}
	}
	return r
}

// checkRules decides which membership rules a submission is held to.
type checkRules struct {
	categories bool // subCategory must be in the configuration
	roster     bool // players must be in the roster
}

// validateSubmission applies the form rules to a normalized payload.
func validateSubmission(r Record, cats Categories, roster []string, rules checkRules) error {
	if err := util.ValidateDate(r.Date); err != nil {
		return invalid("date", "日期格式錯誤")
	}
	switch r.Category {
	case KindDaily:
		if !r.Type.Valid() {
			return invalid("type", "請選擇收入或支出")
		}
		if r.SubCategory == "" {
			return invalid("subCategory", "請選擇類別")
		}
		if rules.categories && !slices.Contains(cats.List(r.Type), r.SubCategory) {
			return invalid("subCategory", "類別不存在，請至設定新增類別")
		}
	case KindTea:
		if r.Shop == "" {
			return invalid("shop", "請輸入店家名稱")
		}
		if r.Item == "" {
			return invalid("item", "請輸入品項名稱")
		}
		if r.Rating == 0 {
			return invalid("rating", "請給予評分")
		}
		if !validRating(r.Rating) {
			return invalid("rating", "評分需為 0.5 ~ 5 之間的半星")
		}
	case KindMahjong:
		if len(r.Players) != 3 || hasDuplicates(r.Players) || slices.Contains(r.Players, "") {
			return invalid("players", "麻友請選擇 3 位")
		}
		if rules.roster {
			for _, p := range r.Players {
				if !slices.Contains(roster, p) {
					return invalid("players", "麻友不在名單中")
				}
			}
		}
	default:
		return invalid("category", "未知的紀錄類別")
	}
	if util.ValidateAmount(r.Amount) != nil {
		return invalid("amount", "請輸入有效金額")
	}
	return nil
}

func validRating(v float64) bool {
	if v < 0 || v > 5 {
		return false
	}
	return math.Mod(v*2, 1) == 0
}

func hasDuplicates(names []string) bool {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
	}
	return false
}
