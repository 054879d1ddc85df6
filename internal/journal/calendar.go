package journal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DayInfo is one cell of the calendar.
type DayInfo struct {
	Date         string  `json:"date"`
	Day          int     `json:"day"`
	HasData      bool    `json:"hasData"`
	Total        float64 `json:"total"`
	IncomeCount  int     `json:"incomeCount"`
	ExpenseCount int     `json:"expenseCount"`
	Count        int     `json:"count"` // cups or games
}

// MonthGrid is a Monday-first month view for one record kind.
type MonthGrid struct {
	Year   int       `json:"year"`
	Month  int       `json:"month"`
	Offset int       `json:"offset"` // empty cells before day 1
	Days   []DayInfo `json:"days"`
}

// Calendar aggregates records of kind per day of the given month.
func Calendar(records []Record, kind Kind, year int, month time.Month) MonthGrid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	offset := int(first.Weekday()) - 1
	if first.Weekday() == time.Sunday {
		offset = 6
	}

	grid := MonthGrid{Year: year, Month: int(month), Offset: offset, Days: make([]DayInfo, days)}
	totals := make([]decimal.Decimal, days)
	for i := range grid.Days {
		grid.Days[i] = DayInfo{Date: fmt.Sprintf("%04d-%02d-%02d", year, int(month), i+1), Day: i + 1}
	}

	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	for _, r := range records {
		if r.Category != kind || len(r.Date) != 10 || r.Date[:8] != prefix {
			continue
		}
		var d int
		if _, err := fmt.Sscanf(r.Date[8:], "%d", &d); err != nil || d < 1 || d > days {
			continue
		}
		cell := &grid.Days[d-1]
		cell.HasData = true
		totals[d-1] = totals[d-1].Add(decimal.NewFromFloat(r.signed()))
		switch r.Category {
		case KindDaily:
			if r.Type == Income {
				cell.IncomeCount++
			} else {
				cell.ExpenseCount++
			}
		default:
			cell.Count++
		}
	}
	for i := range grid.Days {
		grid.Days[i].Total = totals[i].InexactFloat64()
	}
	return grid
}

// RecordsOn lists the records of kind on date in insertion order.
func RecordsOn(records []Record, kind Kind, date string) []Record {
	var out []Record
	for _, r := range records {
		if r.Category == kind && r.Date == date {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Balance is income minus expense over daily records.
func Balance(records []Record) float64 {
	sum := decimal.Zero
	for _, r := range records {
		if r.Category == KindDaily {
			sum = sum.Add(decimal.NewFromFloat(r.signed()))
		}
	}
	return sum.InexactFloat64()
}
