package journal

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	return New(NewDataset(2024), WithClock(fixedClock("2024-05-20T08:00:00Z")))
}

func TestAddDaily_StoresAmountAndDirection(t *testing.T) {
	j := newTestJournal(t)

	amount, err := ParseAmount("120.5")
	if err != nil {
		t.Fatalf("ParseAmount error = %v", err)
	}
	r, err := j.AddDaily(DailyForm{Type: Income, SubCategory: "薪水", Amount: amount})
	if err != nil {
		t.Fatalf("AddDaily error = %v", err)
	}
	if r.Amount != 120.5 {
		t.Errorf("amount = %v, want 120.5", r.Amount)
	}
	if r.Type != Income {
		t.Errorf("type = %q, want income", r.Type)
	}
	if r.Date != "2024-05-20" {
		t.Errorf("date = %q, want today", r.Date)
	}
	if r.Year != 2024 || r.ID == "" || r.CreatedAt != "2024-05-20T08:00:00.000Z" {
		t.Errorf("stamp = %+v", r)
	}
	if got := j.TakeChanges(); got != ChangeRecords {
		t.Errorf("changes = %b, want records", got)
	}
}

func TestAddDaily_DefaultsToExpense(t *testing.T) {
	j := newTestJournal(t)
	r, err := j.AddDaily(DailyForm{Date: "2024-05-01", SubCategory: "餐飲", Amount: 80})
	if err != nil {
		t.Fatalf("AddDaily error = %v", err)
	}
	if r.Type != Expense {
		t.Errorf("type = %q, want expense", r.Type)
	}
}

func TestAdd_Rejections(t *testing.T) {
	testCases := []struct {
		name  string
		add   func(j *Journal) error
		field string
	}{
		{"unknown subcategory", func(j *Journal) error {
			_, err := j.AddDaily(DailyForm{SubCategory: "旅遊", Amount: 10})
			return err
		}, "subCategory"},
		{"zero amount", func(j *Journal) error {
			_, err := j.AddDaily(DailyForm{SubCategory: "餐飲"})
			return err
		}, "amount"},
		{"bad date", func(j *Journal) error {
			_, err := j.AddDaily(DailyForm{Date: "2024/05/01", SubCategory: "餐飲", Amount: 1})
			return err
		}, "date"},
		{"tea without rating", func(j *Journal) error {
			_, err := j.AddTea(TeaForm{Shop: "50嵐", Item: "四季春", Amount: 40})
			return err
		}, "rating"},
		{"tea off-step rating", func(j *Journal) error {
			_, err := j.AddTea(TeaForm{Shop: "50嵐", Item: "四季春", Rating: 3.3, Amount: 40})
			return err
		}, "rating"},
		{"tea missing shop", func(j *Journal) error {
			_, err := j.AddTea(TeaForm{Item: "四季春", Rating: 4, Amount: 40})
			return err
		}, "shop"},
		{"mahjong two players", func(j *Journal) error {
			_, err := j.AddMahjong(MahjongForm{Players: []string{"阿明", "小華"}, Amount: 100})
			return err
		}, "players"},
		{"mahjong repeated player", func(j *Journal) error {
			_, err := j.AddMahjong(MahjongForm{Players: []string{"阿明", "阿明", "小華"}, Amount: 100})
			return err
		}, "players"},
		{"mahjong stranger", func(j *Journal) error {
			_, err := j.AddMahjong(MahjongForm{Players: []string{"阿明", "小華", "路人"}, Amount: 100})
			return err
		}, "players"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			j := newTestJournal(t)
			err := tc.add(j)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field != tc.field {
				t.Errorf("field = %q, want %q", ve.Field, tc.field)
			}
			if len(j.Records()) != 0 {
				t.Errorf("records = %d, want 0", len(j.Records()))
			}
		})
	}
}

func TestAddMahjong_ThreeDistinctPlayers(t *testing.T) {
	j := newTestJournal(t)
	r, err := j.AddMahjong(MahjongForm{IsWin: true, Players: []string{"阿明", " 小華 ", "美美"}, Amount: 300})
	if err != nil {
		t.Fatalf("AddMahjong error = %v", err)
	}
	if r.Players[1] != "小華" {
		t.Errorf("players not trimmed: %q", r.Players)
	}
}

func TestAddTea_Defaults(t *testing.T) {
	j := newTestJournal(t)
	r, err := j.AddTea(TeaForm{Shop: "50嵐", Item: "四季春", Rating: 4.5, Amount: 40})
	if err != nil {
		t.Fatalf("AddTea error = %v", err)
	}
	if r.Sugar != "半糖" || r.Ice != "少冰" {
		t.Errorf("sugar/ice = %q/%q", r.Sugar, r.Ice)
	}
}

func TestIDs_UniqueWithinSameMillisecond(t *testing.T) {
	j := newTestJournal(t)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		r, err := j.AddDaily(DailyForm{SubCategory: "餐飲", Amount: 1})
		if err != nil {
			t.Fatalf("AddDaily error = %v", err)
		}
		if seen[r.ID] {
			t.Fatalf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestDelete_RemovesExactlyMatchingID(t *testing.T) {
	j := newTestJournal(t)
	a, _ := j.AddDaily(DailyForm{SubCategory: "餐飲", Amount: 1})
	b, _ := j.AddDaily(DailyForm{SubCategory: "交通", Amount: 2})
	c, _ := j.AddDaily(DailyForm{SubCategory: "購物", Amount: 3})
	j.TakeChanges()

	err := j.Delete(b.ID, false)
	if !IsConfirm(err) {
		t.Fatalf("Delete without confirm error = %v, want ConfirmError", err)
	}
	if len(j.Records()) != 3 || j.TakeChanges() != 0 {
		t.Fatal("unconfirmed delete changed state")
	}

	if err := j.Delete(b.ID, true); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	got := j.Records()
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != c.ID {
		t.Errorf("records after delete = %+v", got)
	}
	if err := j.Delete("missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_MergesAndKeepsIdentity(t *testing.T) {
	j := newTestJournal(t)
	r, _ := j.AddTea(TeaForm{Date: "2024-05-01", Shop: "50嵐", Item: "四季春", Rating: 4, Amount: 40})

	rating := 5.0
	note := " 好喝 "
	got, err := j.Update(r.ID, Patch{Rating: &rating, Note: &note})
	if err != nil {
		t.Fatalf("Update error = %v", err)
	}
	if got.ID != r.ID || got.CreatedAt != r.CreatedAt || got.Year != r.Year || got.Category != KindTea {
		t.Errorf("identity changed: %+v", got)
	}
	if got.Rating != 5 || got.Note != "好喝" || got.Shop != "50嵐" {
		t.Errorf("merged = %+v", got)
	}

	kind := KindDaily
	if _, err := j.Update(r.ID, Patch{Category: &kind}); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Update category error = %v, want ErrKindMismatch", err)
	}
}

func TestUpdate_HistoricalSubcategoryStaysEditable(t *testing.T) {
	j := newTestJournal(t)
	r, _ := j.AddDaily(DailyForm{SubCategory: "居家", Amount: 500})
	if err := j.RemoveCategory(Expense, "居家", true); err != nil {
		t.Fatalf("RemoveCategory error = %v", err)
	}

	amount := 450.0
	if _, err := j.Update(r.ID, Patch{Amount: &amount}); err != nil {
		t.Errorf("Update amount on removed category error = %v, want nil", err)
	}
	sub := "寵物"
	if _, err := j.Update(r.ID, Patch{SubCategory: &sub}); err == nil {
		t.Error("Update to unknown subcategory error = nil, want error")
	}
}

func TestDuplicate(t *testing.T) {
	now := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
	j := New(NewDataset(2024), WithClock(func() time.Time { return now }))
	r, _ := j.AddDaily(DailyForm{SubCategory: "餐飲", Amount: 60, Note: "午餐"})

	now = now.Add(time.Minute)
	d, err := j.Duplicate(r.ID)
	if err != nil {
		t.Fatalf("Duplicate error = %v", err)
	}
	if d.ID == r.ID || d.CreatedAt == r.CreatedAt {
		t.Errorf("duplicate kept identity: %+v", d)
	}
	if d.Note != "午餐" || d.Amount != 60 {
		t.Errorf("duplicate payload = %+v", d)
	}
	if len(j.Records()) != 2 {
		t.Errorf("records = %d, want 2", len(j.Records()))
	}
}

func TestClear(t *testing.T) {
	j := newTestJournal(t)
	j.AddDaily(DailyForm{SubCategory: "餐飲", Amount: 1})
	if !IsConfirm(j.Clear(false)) {
		t.Fatal("Clear without confirm should ask")
	}
	if err := j.Clear(true); err != nil {
		t.Fatalf("Clear error = %v", err)
	}
	if len(j.Records()) != 0 {
		t.Errorf("records = %d, want 0", len(j.Records()))
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	j := newTestJournal(t)
	j.AddDaily(DailyForm{Date: "2024-05-03", SubCategory: "餐飲", Amount: 1})
	j.AddDaily(DailyForm{Date: "2024-05-01", SubCategory: "交通", Amount: 2})
	j.AddTea(TeaForm{Date: "2024-04-30", Shop: "50嵐", Item: "紅茶", Rating: 3, Amount: 30})

	got := j.List(Filter{Month: "2024-05"})
	if len(got) != 2 || got[0].Date != "2024-05-01" {
		t.Errorf("List month = %+v", got)
	}
	if got := j.List(Filter{Kind: KindTea}); len(got) != 1 {
		t.Errorf("List tea = %d, want 1", len(got))
	}
	if got := j.List(Filter{Date: "2024-05-03"}); len(got) != 1 || got[0].SubCategory != "餐飲" {
		t.Errorf("List date = %+v", got)
	}
}

func TestImport_KeepsAbsentSettings(t *testing.T) {
	j := newTestJournal(t)
	j.AddPlayer("阿花")
	j.TakeChanges()

	recs := []Record{{ID: "1", Date: "2024-01-01", Category: KindDaily, Type: Expense, SubCategory: "餐飲", Amount: 10, Year: 2024}}
	if !IsConfirm(j.Import(Imported{Records: recs}, false)) {
		t.Fatal("Import without confirm should ask")
	}
	if err := j.Import(Imported{Records: recs}, true); err != nil {
		t.Fatalf("Import error = %v", err)
	}
	if len(j.Records()) != 1 {
		t.Errorf("records = %d, want 1", len(j.Records()))
	}
	if got := j.Players(); len(got) != 4 {
		t.Errorf("players = %v, want roster kept", got)
	}
	if got := j.TakeChanges(); got != ChangeRecords {
		t.Errorf("changes = %b, want records only", got)
	}
}

func TestBalance(t *testing.T) {
	j := newTestJournal(t)
	j.AddDaily(DailyForm{Type: Income, SubCategory: "薪水", Amount: 1000})
	j.AddDaily(DailyForm{SubCategory: "餐飲", Amount: 120.3})
	j.AddTea(TeaForm{Shop: "50嵐", Item: "紅茶", Rating: 3, Amount: 30})

	if got := j.Balance(); got != 879.7 {
		t.Errorf("Balance = %v, want 879.7", got)
	}
}

func TestDataset_CloneIsDeep(t *testing.T) {
	j := newTestJournal(t)
	j.AddMahjong(MahjongForm{Players: []string{"阿明", "小華", "美美"}, Amount: 100})

	ds := j.Dataset()
	ds.Records[0].Players[0] = "改掉"
	ds.Categories.Expense[0] = "改掉"
	if j.Records()[0].Players[0] != "阿明" || j.Categories().Expense[0] != "餐飲" {
		t.Error("Dataset shares memory with the journal")
	}
}
