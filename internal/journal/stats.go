package journal

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Range selects the time window of the statistics view.
type Range string

const (
	RangeMonth Range = "month"
	RangeYear  Range = "year"
)

func (r Range) Valid() bool { return r == RangeMonth || r == RangeYear }

// recordTime parses the record date; ok is false for malformed dates.
func recordTime(r Record) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", r.Date)
	return t, err == nil
}

// inRange filters by kind and by the current month or year of now.
func inRange(records []Record, kind Kind, rng Range, now time.Time) []Record {
	var out []Record
	for _, r := range records {
		if r.Category != kind {
			continue
		}
		t, ok := recordTime(r)
		if !ok || t.Year() != now.Year() {
			continue
		}
		if rng == RangeMonth && t.Month() != now.Month() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func percent(part, total decimal.Decimal) int {
	if total.IsZero() {
		return 0
	}
	return int(part.Mul(decimal.NewFromInt(100)).Div(total).Round(0).IntPart())
}

// ---------- daily ----------

// Slice is one pie entry.
type Slice struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent int     `json:"percent"`
}

// MonthPoint is a month of the yearly trend.
type MonthPoint struct {
	Name    string  `json:"name"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// DayPoint is a day of the monthly trend.
type DayPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type DailyStats struct {
	Range      Range        `json:"range"`
	Direction  Direction    `json:"direction"`
	Total      float64      `json:"total"`
	Breakdown  []Slice      `json:"breakdown"`
	YearTrend  []MonthPoint `json:"yearTrend,omitempty"`
	MonthTrend []DayPoint   `json:"monthTrend,omitempty"`
}

// Daily groups daily records of direction d by subcategory.
func Daily(records []Record, d Direction, rng Range, now time.Time) DailyStats {
	filtered := inRange(records, KindDaily, rng, now)

	var order []string
	sums := map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, r := range filtered {
		if r.Type != d {
			continue
		}
		if _, ok := sums[r.SubCategory]; !ok {
			order = append(order, r.SubCategory)
		}
		amt := decimal.NewFromFloat(r.Amount)
		sums[r.SubCategory] = sums[r.SubCategory].Add(amt)
		total = total.Add(amt)
	}

	st := DailyStats{Range: rng, Direction: d, Total: total.InexactFloat64(), Breakdown: []Slice{}}
	for _, name := range order {
		st.Breakdown = append(st.Breakdown, Slice{
			Name:    name,
			Value:   sums[name].InexactFloat64(),
			Percent: percent(sums[name], total),
		})
	}
	sort.SliceStable(st.Breakdown, func(a, b int) bool {
		return st.Breakdown[a].Value > st.Breakdown[b].Value
	})

	if rng == RangeYear {
		inc := make([]decimal.Decimal, 12)
		exp := make([]decimal.Decimal, 12)
		for _, r := range inRange(records, KindDaily, RangeYear, now) {
			t, _ := recordTime(r)
			m := int(t.Month()) - 1
			if r.Type == Income {
				inc[m] = inc[m].Add(decimal.NewFromFloat(r.Amount))
			} else {
				exp[m] = exp[m].Add(decimal.NewFromFloat(r.Amount))
			}
		}
		for m := 0; m < 12; m++ {
			st.YearTrend = append(st.YearTrend, MonthPoint{
				Name:    strconv.Itoa(m+1) + "月",
				Income:  inc[m].InexactFloat64(),
				Expense: exp[m].InexactFloat64(),
			})
		}
		return st
	}

	days := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	vals := make([]decimal.Decimal, days)
	for _, r := range filtered {
		if r.Type != d {
			continue
		}
		t, _ := recordTime(r)
		vals[t.Day()-1] = vals[t.Day()-1].Add(decimal.NewFromFloat(r.Amount))
	}
	for i, v := range vals {
		st.MonthTrend = append(st.MonthTrend, DayPoint{Name: strconv.Itoa(i + 1), Value: v.InexactFloat64()})
	}
	return st
}

// ---------- tea ----------

// TeaFilter narrows the tea list. Zero values mean "all".
type TeaFilter struct {
	Shop      string
	Month     int // only honored for RangeYear
	MinRating float64
}

type TeaOptions struct {
	Shops  []string `json:"shops"`
	Months []int    `json:"months"`
}

type TeaStats struct {
	Shop    string     `json:"shop"`
	Item    string     `json:"item"`
	Cups    int        `json:"cups"`
	List    []Record   `json:"list"`
	Options TeaOptions `json:"options"`
}

// mode returns the most frequent name; a tie goes to the later first-seen
// name, "-" when there is none.
func mode(names []string) string {
	var order []string
	counts := map[string]int{}
	for _, n := range names {
		if _, ok := counts[n]; !ok {
			order = append(order, n)
		}
		counts[n]++
	}
	best := "-"
	for _, n := range order {
		if best == "-" || counts[n] >= counts[best] {
			best = n
		}
	}
	return best
}

func Tea(records []Record, rng Range, f TeaFilter, now time.Time) TeaStats {
	ts := inRange(records, KindTea, rng, now)
	st := TeaStats{Shop: "-", Item: "-", List: []Record{}, Options: TeaOptions{Shops: []string{}, Months: []int{}}}
	if len(ts) == 0 {
		return st
	}

	var shops, items []string
	seenMonth := map[int]bool{}
	for _, r := range ts {
		shops = append(shops, r.Shop)
		items = append(items, r.Item)
		t, _ := recordTime(r)
		if !seenMonth[int(t.Month())] {
			seenMonth[int(t.Month())] = true
			st.Options.Months = append(st.Options.Months, int(t.Month()))
		}
		if !containsString(st.Options.Shops, r.Shop) {
			st.Options.Shops = append(st.Options.Shops, r.Shop)
		}
	}
	sort.Ints(st.Options.Months)

	for _, r := range ts {
		if f.Shop != "" && r.Shop != f.Shop {
			continue
		}
		if rng == RangeYear && f.Month != 0 {
			t, _ := recordTime(r)
			if int(t.Month()) != f.Month {
				continue
			}
		}
		if f.MinRating != 0 && r.Rating < f.MinRating {
			continue
		}
		st.List = append(st.List, r.Clone())
	}

	st.Shop = mode(shops)
	st.Item = mode(items)
	st.Cups = len(ts)
	return st
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// ---------- mahjong ----------

type PlayerStat struct {
	Name    string `json:"name"`
	Games   int    `json:"games"`
	WinRate int    `json:"winRate"`
}

type MahjongStats struct {
	Wins         int          `json:"wins"`
	Losses       int          `json:"losses"`
	WinRate      int          `json:"winRate"`
	MaxWinMonth  float64      `json:"maxWinMonth"`
	MaxLossMonth float64      `json:"maxLossMonth"`
	Players      []PlayerStat `json:"players"`
}

func Mahjong(records []Record, rng Range, now time.Time) MahjongStats {
	mj := inRange(records, KindMahjong, rng, now)
	st := MahjongStats{Players: []PlayerStat{}}

	for _, r := range mj {
		if r.IsWin {
			st.Wins++
		}
	}
	st.Losses = len(mj) - st.Wins
	st.WinRate = percent(decimal.NewFromInt(int64(st.Wins)), decimal.NewFromInt(int64(len(mj))))

	net := make([]decimal.Decimal, 12)
	for _, r := range inRange(records, KindMahjong, RangeYear, now) {
		t, _ := recordTime(r)
		net[t.Month()-1] = net[t.Month()-1].Add(decimal.NewFromFloat(r.signed()))
	}
	var active []decimal.Decimal
	for _, v := range net {
		if !v.IsZero() {
			active = append(active, v)
		}
	}
	if len(active) > 0 {
		if hi := decimal.Max(active[0], active[1:]...); hi.IsPositive() {
			st.MaxWinMonth = hi.InexactFloat64()
		}
		if lo := decimal.Min(active[0], active[1:]...); lo.IsNegative() {
			st.MaxLossMonth = lo.InexactFloat64()
		}
	}

	type tally struct{ games, wins int }
	var order []string
	tallies := map[string]*tally{}
	for _, r := range mj {
		for _, p := range r.Players {
			t, ok := tallies[p]
			if !ok {
				t = &tally{}
				tallies[p] = t
				order = append(order, p)
			}
			t.games++
			if r.IsWin {
				t.wins++
			}
		}
	}
	for _, p := range order {
		t := tallies[p]
		st.Players = append(st.Players, PlayerStat{
			Name:    p,
			Games:   t.games,
			WinRate: percent(decimal.NewFromInt(int64(t.wins)), decimal.NewFromInt(int64(t.games))),
		})
	}
	sort.SliceStable(st.Players, func(a, b int) bool {
		return st.Players[a].WinRate > st.Players[b].WinRate
	})
	return st
}
