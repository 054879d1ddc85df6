package journal

import (
	"slices"
	"sort"
	"strconv"
	"time"
)

// Categories is the ordered expense and income category configuration.
type Categories struct {
	Expense []string `json:"expense"`
	Income  []string `json:"income"`
}

// List returns the sequence for d.
func (c Categories) List(d Direction) []string {
	if d == Income {
		return c.Income
	}
	return c.Expense
}

func (c *Categories) set(d Direction, names []string) {
	if d == Income {
		c.Income = names
	} else {
		c.Expense = names
	}
}

func (c Categories) clone() Categories {
	return Categories{Expense: slices.Clone(c.Expense), Income: slices.Clone(c.Income)}
}

// Template is a reusable daily payload.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        Direction `json:"type"`
	SubCategory string    `json:"subCategory"`
	Amount      float64   `json:"amount"`
	Note        string    `json:"note,omitempty"`
}

// Dataset is everything a backend loads and saves for one year.
type Dataset struct {
	Year       int
	Records    []Record
	Categories Categories
	Players    []string
	Templates  []Template
}

// Clone returns a deep copy.
func (ds Dataset) Clone() Dataset {
	out := Dataset{
		Year:       ds.Year,
		Categories: ds.Categories.clone(),
		Players:    slices.Clone(ds.Players),
		Templates:  slices.Clone(ds.Templates),
	}
	if ds.Records != nil {
		out.Records = make([]Record, len(ds.Records))
		for i, r := range ds.Records {
			out.Records[i] = r.Clone()
		}
	}
	return out
}

// Defaults used when nothing has been stored yet.
var (
	DefaultCategories = Categories{
		Expense: []string{"餐飲", "交通", "購物", "娛樂", "居家"},
		Income:  []string{"薪水", "獎金", "投資"},
	}
	DefaultPlayers = []string{"阿明", "小華", "美美"}
)

// NewDataset returns an empty dataset for year with default settings.
func NewDataset(year int) Dataset {
	return Dataset{
		Year:       year,
		Records:    []Record{},
		Categories: DefaultCategories.clone(),
		Players:    slices.Clone(DefaultPlayers),
		Templates:  []Template{},
	}
}

// Change is the set of dataset parts touched by mutations.
type Change uint8

const (
	ChangeRecords Change = 1 << iota
	ChangeCategories
	ChangePlayers
	ChangeTemplates

	ChangeAll = ChangeRecords | ChangeCategories | ChangePlayers | ChangeTemplates
)

func (c Change) Has(part Change) bool { return c&part != 0 }

// Journal is the mutable state of one year. It is not safe for concurrent
// use; persist.Session serializes access.
type Journal struct {
	ds     Dataset
	now    func() time.Time
	lastID int64
	dirty  Change
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// New wraps ds. The dataset is copied.
func New(ds Dataset, opts ...Option) *Journal {
	j := &Journal{ds: ds.Clone(), now: time.Now}
	if j.ds.Records == nil {
		j.ds.Records = []Record{}
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *Journal) Year() int { return j.ds.Year }

// Now is the journal clock.
func (j *Journal) Now() time.Time { return j.now() }

// StatsTime is the reference time of the statistics and calendar views: the
// clock while the active year is the current one, otherwise the last day of
// an earlier year or the first day of a later one.
func (j *Journal) StatsTime() time.Time {
	now := j.now()
	switch {
	case now.Year() == j.ds.Year:
		return now
	case now.Year() > j.ds.Year:
		return time.Date(j.ds.Year, time.December, 31, 0, 0, 0, 0, now.Location())
	default:
		return time.Date(j.ds.Year, time.January, 1, 0, 0, 0, 0, now.Location())
	}
}

// Today is the clock's date as YYYY-MM-DD.
func (j *Journal) Today() string { return j.now().Format("2006-01-02") }

// Dataset returns a deep copy of the current state.
func (j *Journal) Dataset() Dataset { return j.ds.Clone() }

// Replace swaps the whole state, e.g. when a snapshot arrives. It does not
// mark anything dirty.
func (j *Journal) Replace(ds Dataset) {
	j.ds = ds.Clone()
	if j.ds.Records == nil {
		j.ds.Records = []Record{}
	}
}

// TakeChanges returns the parts mutated since the last call and resets them.
func (j *Journal) TakeChanges() Change {
	c := j.dirty
	j.dirty = 0
	return c
}

func (j *Journal) touch(c Change) { j.dirty |= c }

func (j *Journal) Categories() Categories { return j.ds.Categories.clone() }
func (j *Journal) Players() []string      { return slices.Clone(j.ds.Players) }
func (j *Journal) Templates() []Template  { return slices.Clone(j.ds.Templates) }

// Records returns a copy of all records in insertion order.
func (j *Journal) Records() []Record {
	return j.Dataset().Records
}

// Filter selects records for listing.
type Filter struct {
	Kind  Kind   // empty = all kinds
	Date  string // exact YYYY-MM-DD
	Month string // YYYY-MM
}

// List returns matching records ordered by date, then creation time.
func (j *Journal) List(f Filter) []Record {
	var out []Record
	for _, r := range j.ds.Records {
		if f.Kind != "" && r.Category != f.Kind {
			continue
		}
		if f.Date != "" && r.Date != f.Date {
			continue
		}
		if f.Month != "" && (len(r.Date) < 7 || r.Date[:7] != f.Month) {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Date != out[b].Date {
			return out[a].Date < out[b].Date
		}
		return out[a].CreatedAt < out[b].CreatedAt
	})
	return out
}

// Record looks a record up by id.
func (j *Journal) Record(id string) (Record, error) {
	i := j.index(id)
	if i < 0 {
		return Record{}, ErrNotFound
	}
	return j.ds.Records[i].Clone(), nil
}

func (j *Journal) index(id string) int {
	return slices.IndexFunc(j.ds.Records, func(r Record) bool { return r.ID == id })
}

// nextID returns a time-based id unique within the active year.
func (j *Journal) nextID() string {
	id := j.now().UnixMilli()
	if id <= j.lastID {
		id = j.lastID + 1
	}
	for j.index(strconv.FormatInt(id, 10)) >= 0 {
		id++
	}
	j.lastID = id
	return strconv.FormatInt(id, 10)
}

func (j *Journal) stamp(r Record) Record {
	r.ID = j.nextID()
	r.CreatedAt = j.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	r.Year = j.ds.Year
	return r
}

// Add validates a normalized form payload and appends it.
func (j *Journal) Add(payload Record) (Record, error) {
	rules := checkRules{categories: true, roster: true}
	if err := validateSubmission(payload, j.ds.Categories, j.ds.Players, rules); err != nil {
		return Record{}, err
	}
	r := j.stamp(payload.Clone())
	j.ds.Records = append(j.ds.Records, r)
	j.touch(ChangeRecords)
	return r.Clone(), nil
}

// AddDaily, AddTea and AddMahjong submit a form with today's date as default.
func (j *Journal) AddDaily(f DailyForm) (Record, error)     { return j.Add(f.Payload(j.Today())) }
func (j *Journal) AddTea(f TeaForm) (Record, error)         { return j.Add(f.Payload(j.Today())) }
func (j *Journal) AddMahjong(f MahjongForm) (Record, error) { return j.Add(f.Payload(j.Today())) }

// Update merges p into the record with id. Identity fields never change.
// Membership in the category configuration or roster is only enforced for
// values the patch changes, so historical records stay editable.
func (j *Journal) Update(id string, p Patch) (Record, error) {
	i := j.index(id)
	if i < 0 {
		return Record{}, ErrNotFound
	}
	old := j.ds.Records[i]
	if p.Category != nil && *p.Category != old.Category {
		return Record{}, ErrKindMismatch
	}
	merged := p.apply(old.Clone())

	rules := checkRules{
		categories: merged.SubCategory != old.SubCategory || merged.Type != old.Type,
		roster:     !slices.Equal(merged.Players, old.Players),
	}
	if err := validateSubmission(merged, j.ds.Categories, j.ds.Players, rules); err != nil {
		return Record{}, err
	}
	j.ds.Records[i] = merged
	j.touch(ChangeRecords)
	return merged.Clone(), nil
}

// Delete removes the record with id. It asks for confirmation first.
func (j *Journal) Delete(id string, confirmed bool) error {
	i := j.index(id)
	if i < 0 {
		return ErrNotFound
	}
	if !confirmed {
		return needConfirm("確定要刪除此筆紀錄嗎？")
	}
	j.ds.Records = slices.Delete(j.ds.Records, i, i+1)
	j.touch(ChangeRecords)
	return nil
}

// Duplicate appends a copy of the record with a fresh id and timestamp.
func (j *Journal) Duplicate(id string) (Record, error) {
	i := j.index(id)
	if i < 0 {
		return Record{}, ErrNotFound
	}
	r := j.stamp(j.ds.Records[i].Clone())
	j.ds.Records = append(j.ds.Records, r)
	j.touch(ChangeRecords)
	return r.Clone(), nil
}

// Clear removes every record of the active year.
func (j *Journal) Clear(confirmed bool) error {
	if !confirmed {
		return needConfirm("⚠️ 警告：確定要刪除當年度所有資料嗎？此動作無法復原！")
	}
	j.ds.Records = []Record{}
	j.touch(ChangeRecords)
	return nil
}

// Import overwrites the state with an imported dataset. Categories, players
// and templates missing from the import keep their current values.
func (j *Journal) Import(in Imported, confirmed bool) error {
	if !confirmed {
		return needConfirm("匯入將覆蓋目前所有資料，確定要繼續嗎？")
	}
	j.ds.Records = make([]Record, len(in.Records))
	for i, r := range in.Records {
		j.ds.Records[i] = r.Clone()
	}
	change := ChangeRecords
	if in.Categories != nil {
		j.ds.Categories = in.Categories.clone()
		change |= ChangeCategories
	}
	if in.Players != nil {
		j.ds.Players = slices.Clone(*in.Players)
		change |= ChangePlayers
	}
	if in.Templates != nil {
		j.ds.Templates = slices.Clone(*in.Templates)
		change |= ChangeTemplates
	}
	j.touch(change)
	return nil
}

// Balance is income minus expense over daily records.
func (j *Journal) Balance() float64 {
	return Balance(j.ds.Records)
}
