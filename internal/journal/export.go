package journal

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ting434252/lifebill/internal/util"
)

// BackupVersion is written into every JSON backup.
const BackupVersion = 1

// Backup is the JSON backup envelope.
type Backup struct {
	Version    int        `json:"version"`
	ExportedAt string     `json:"exportedAt"`
	Year       int        `json:"year"`
	Categories Categories `json:"categories"`
	Players    []string   `json:"players"`
	Records    []Record   `json:"records"`
	Templates  []Template `json:"templates"`
}

// Imported is a parsed backup. Nil settings mean the file did not carry them.
type Imported struct {
	Year       int
	Records    []Record
	Categories *Categories
	Players    *[]string
	Templates  *[]Template
}

var ErrBadBackup = errors.New("備份檔格式錯誤")

// NewBackup builds the envelope for ds.
func NewBackup(ds Dataset, now time.Time) Backup {
	ds = ds.Clone()
	if ds.Records == nil {
		ds.Records = []Record{}
	}
	return Backup{
		Version:    BackupVersion,
		ExportedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Year:       ds.Year,
		Categories: ds.Categories,
		Players:    ds.Players,
		Records:    ds.Records,
		Templates:  ds.Templates,
	}
}

func WriteBackup(w io.Writer, ds Dataset, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewBackup(ds, now))
}

// ParseBackup decodes and checks a backup file. Any problem rejects the whole
// file.
func ParseBackup(r io.Reader) (Imported, error) {
	var raw struct {
		Version    *json.RawMessage `json:"version"`
		Year       int              `json:"year"`
		Categories *Categories      `json:"categories"`
		Players    *[]string        `json:"players"`
		Records    *[]Record        `json:"records"`
		Templates  *[]Template      `json:"templates"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Imported{}, fmt.Errorf("%w: %v", ErrBadBackup, err)
	}
	if raw.Version == nil {
		return Imported{}, fmt.Errorf("%w: 缺少 version", ErrBadBackup)
	}
	if raw.Records == nil {
		return Imported{}, fmt.Errorf("%w: 缺少 records", ErrBadBackup)
	}

	seen := make(map[string]struct{}, len(*raw.Records))
	for i, rec := range *raw.Records {
		if err := checkImported(rec); err != nil {
			return Imported{}, fmt.Errorf("%w: 第 %d 筆%s", ErrBadBackup, i+1, err.Error())
		}
		if _, dup := seen[rec.ID]; dup {
			return Imported{}, fmt.Errorf("%w: 第 %d 筆 id 重複", ErrBadBackup, i+1)
		}
		seen[rec.ID] = struct{}{}
	}
	if raw.Categories != nil && (len(raw.Categories.Expense) == 0 || len(raw.Categories.Income) == 0) {
		return Imported{}, fmt.Errorf("%w: 類別不可為空", ErrBadBackup)
	}

	return Imported{
		Year:       raw.Year,
		Records:    *raw.Records,
		Categories: raw.Categories,
		Players:    raw.Players,
		Templates:  raw.Templates,
	}, nil
}

// checkImported holds imported records to the structural rules only; form
// rules such as roster membership or a required rating do not apply to
// history.
func checkImported(r Record) error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return errors.New("缺少 id")
	case !r.Category.Valid():
		return errors.New("類別未知")
	case r.Amount < 0:
		return errors.New("金額為負")
	case util.ValidateDate(r.Date) != nil:
		return errors.New("日期格式錯誤")
	case r.Category == KindTea && !validRating(r.Rating):
		return errors.New("評分需為 0 ~ 5 之間的半星")
	case r.Category == KindMahjong && (len(r.Players) != 3 || hasDuplicates(r.Players) || slices.Contains(r.Players, "")):
		return errors.New("麻友需為 3 位不同的人")
	}
	return nil
}

var exportHeader = []string{"日期", "類別", "項目", "金額", "評分"}

func exportRow(r Record) []string {
	rating := ""
	if r.Category == KindTea && r.Rating != 0 {
		rating = strconv.FormatFloat(r.Rating, 'f', -1, 64)
	}
	return []string{
		r.Date,
		string(r.Category),
		r.Label(),
		strconv.FormatFloat(r.Amount, 'f', -1, 64),
		rating,
	}
}

// WriteCSV writes records as a UTF-8 CSV with BOM so spreadsheets detect the
// encoding.
func WriteCSV(w io.Writer, records []Record) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(exportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the CSV columns into a single sheet workbook.
func WriteXLSX(w io.Writer, year int, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := strconv.Itoa(year)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for n, r := range records {
		row := n + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Date)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(r.Category))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.Label())
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Amount)
		if r.Category == KindTea && r.Rating != 0 {
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.Rating)
		}
	}
	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "B", 10)
	f.SetColWidth(sheet, "C", "C", 16)
	f.SetColWidth(sheet, "D", "E", 10)

	return f.Write(w)
}
