// Package journal holds the in-memory journal state: records of the active
// year, the category configuration, the mahjong roster and templates, plus the
// pure calendar/statistics projections and the file export formats.
package journal

import (
	"encoding/json"
	"slices"
)

// Kind tags the record variant.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindTea     Kind = "tea"
	KindMahjong Kind = "mahjong"
)

// Valid reports whether k is one of the known variants.
func (k Kind) Valid() bool {
	switch k {
	case KindDaily, KindTea, KindMahjong:
		return true
	}
	return false
}

// Direction is income or expense for daily records.
type Direction string

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

// Record is a journal entry. Category selects which of the variant fields are
// meaningful; the others stay zero.
type Record struct {
	ID        string
	Date      string // YYYY-MM-DD
	Category  Kind
	Amount    float64
	CreatedAt string
	Year      int
	Note      string

	// daily
	Type        Direction
	SubCategory string

	// tea
	Shop   string
	Item   string
	Sugar  string
	Ice    string
	Rating float64

	// mahjong
	IsWin   bool
	Players []string
}

// recordJSON is the flat wire form. Pointers keep zero-valued variant fields
// (isWin=false, rating) distinguishable from absent ones.
type recordJSON struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Category  Kind    `json:"category"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"createdAt"`
	Year      int     `json:"year"`
	Note      string  `json:"note,omitempty"`

	Type        Direction `json:"type,omitempty"`
	SubCategory string    `json:"subCategory,omitempty"`

	Shop   string   `json:"shop,omitempty"`
	Item   string   `json:"item,omitempty"`
	Sugar  string   `json:"sugar,omitempty"`
	Ice    string   `json:"ice,omitempty"`
	Rating *float64 `json:"rating,omitempty"`

	IsWin   *bool    `json:"isWin,omitempty"`
	Players []string `json:"players,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	w := recordJSON{
		ID:        r.ID,
		Date:      r.Date,
		Category:  r.Category,
		Amount:    r.Amount,
		CreatedAt: r.CreatedAt,
		Year:      r.Year,
		Note:      r.Note,
	}
	switch r.Category {
	case KindDaily:
		w.Type = r.Type
		w.SubCategory = r.SubCategory
	case KindTea:
		w.Shop, w.Item, w.Sugar, w.Ice = r.Shop, r.Item, r.Sugar, r.Ice
		rating := r.Rating
		w.Rating = &rating
	case KindMahjong:
		win := r.IsWin
		w.IsWin = &win
		w.Players = r.Players
	}
	return json.Marshal(w)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{
		ID:        w.ID,
		Date:      w.Date,
		Category:  w.Category,
		Amount:    w.Amount,
		CreatedAt: w.CreatedAt,
		Year:      w.Year,
		Note:      w.Note,
	}
	switch w.Category {
	case KindDaily:
		r.Type = w.Type
		r.SubCategory = w.SubCategory
	case KindTea:
		r.Shop, r.Item, r.Sugar, r.Ice = w.Shop, w.Item, w.Sugar, w.Ice
		if w.Rating != nil {
			r.Rating = *w.Rating
		}
	case KindMahjong:
		if w.IsWin != nil {
			r.IsWin = *w.IsWin
		}
		r.Players = w.Players
	}
	return nil
}

// Clone returns a copy that shares no slices with r.
func (r Record) Clone() Record {
	r.Players = slices.Clone(r.Players)
	return r
}

// signed returns the amount with the sign the calendar and balance use:
// income and mahjong wins count up, everything else counts down.
func (r Record) signed() float64 {
	switch r.Category {
	case KindDaily:
		if r.Type == Income {
			return r.Amount
		}
		return -r.Amount
	case KindMahjong:
		if r.IsWin {
			return r.Amount
		}
		return -r.Amount
	default:
		return -r.Amount
	}
}

// Label is the "item" column of the CSV export.
func (r Record) Label() string {
	switch r.Category {
	case KindDaily:
		return r.SubCategory
	case KindTea:
		return r.Shop
	default:
		return "麻將"
	}
}
