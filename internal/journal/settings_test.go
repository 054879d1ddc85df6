package journal

import (
	"errors"
	"slices"
	"testing"
)

func TestAddCategory(t *testing.T) {
	j := newTestJournal(t)

	if err := j.AddCategory(Expense, "  寵物 "); err != nil {
		t.Fatalf("AddCategory error = %v", err)
	}
	if got := j.Categories().Expense; got[len(got)-1] != "寵物" {
		t.Errorf("expense = %v, want trimmed 寵物 appended", got)
	}
	if err := j.AddCategory(Expense, "寵物"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate error = %v, want ErrDuplicate", err)
	}
	if err := j.AddCategory(Income, "   "); err == nil {
		t.Error("empty name error = nil, want error")
	}
	// 名稱在不同方向可重複
	if err := j.AddCategory(Income, "寵物"); err != nil {
		t.Errorf("same name in income error = %v", err)
	}
	if got := j.TakeChanges(); got != ChangeCategories {
		t.Errorf("changes = %b, want categories", got)
	}
}

func TestRemoveCategory_KeepsLastOne(t *testing.T) {
	ds := NewDataset(2024)
	ds.Categories.Income = []string{"薪水"}
	j := New(ds)

	// 最後一個類別在確認之前就被拒絕
	if err := j.RemoveCategory(Income, "薪水", false); !errors.Is(err, ErrLastCategory) {
		t.Errorf("error = %v, want ErrLastCategory", err)
	}
	if err := j.RemoveCategory(Income, "薪水", true); !errors.Is(err, ErrLastCategory) {
		t.Errorf("confirmed error = %v, want ErrLastCategory", err)
	}
	if len(j.Categories().Income) != 1 {
		t.Error("last income category removed")
	}
}

func TestRemoveCategory_Confirm(t *testing.T) {
	j := newTestJournal(t)
	if !IsConfirm(j.RemoveCategory(Expense, "交通", false)) {
		t.Fatal("RemoveCategory without confirm should ask")
	}
	if err := j.RemoveCategory(Expense, "交通", true); err != nil {
		t.Fatalf("RemoveCategory error = %v", err)
	}
	if slices.Contains(j.Categories().Expense, "交通") {
		t.Error("交通 still present")
	}
	if err := j.RemoveCategory(Expense, "交通", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove error = %v, want ErrNotFound", err)
	}
}

func TestMoveCategory(t *testing.T) {
	j := newTestJournal(t)
	if err := j.MoveCategory(Expense, 0, 3); err != nil {
		t.Fatalf("MoveCategory error = %v", err)
	}
	want := []string{"交通", "購物", "娛樂", "餐飲", "居家"}
	if got := j.Categories().Expense; !slices.Equal(got, want) {
		t.Errorf("expense = %v, want %v", got, want)
	}
	if err := j.MoveCategory(Expense, 0, 9); err == nil {
		t.Error("out of range move error = nil, want error")
	}
}

func TestPlayers(t *testing.T) {
	j := newTestJournal(t)

	if err := j.AddPlayer("阿花"); err != nil {
		t.Fatalf("AddPlayer error = %v", err)
	}
	if err := j.AddPlayer("阿明"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate error = %v, want ErrDuplicate", err)
	}
	if err := j.MovePlayer(3, 0); err != nil {
		t.Fatalf("MovePlayer error = %v", err)
	}
	if got := j.Players(); got[0] != "阿花" {
		t.Errorf("players = %v", got)
	}

	// 麻友沒有最少人數限制
	for _, p := range j.Players() {
		if err := j.RemovePlayer(p, true); err != nil {
			t.Fatalf("RemovePlayer(%q) error = %v", p, err)
		}
	}
	if len(j.Players()) != 0 {
		t.Errorf("players = %v, want empty", j.Players())
	}
}

func TestTemplates(t *testing.T) {
	j := newTestJournal(t)

	tpl, err := j.AddTemplate(Template{Name: "早餐", SubCategory: "餐飲", Amount: 65})
	if err != nil {
		t.Fatalf("AddTemplate error = %v", err)
	}
	if tpl.ID == "" || tpl.Type != Expense {
		t.Errorf("template = %+v", tpl)
	}
	if _, err := j.AddTemplate(Template{Name: "早餐", SubCategory: "餐飲", Amount: 50}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate error = %v, want ErrDuplicate", err)
	}
	if _, err := j.AddTemplate(Template{Name: "其他", SubCategory: "不存在", Amount: 50}); err == nil {
		t.Error("unknown subcategory error = nil, want error")
	}

	r, err := j.ApplyTemplate(tpl.ID, "2024-05-02")
	if err != nil {
		t.Fatalf("ApplyTemplate error = %v", err)
	}
	if r.Date != "2024-05-02" || r.SubCategory != "餐飲" || r.Amount != 65 {
		t.Errorf("record = %+v", r)
	}

	if !IsConfirm(j.RemoveTemplate(tpl.ID, false)) {
		t.Fatal("RemoveTemplate without confirm should ask")
	}
	if err := j.RemoveTemplate(tpl.ID, true); err != nil {
		t.Fatalf("RemoveTemplate error = %v", err)
	}
	if _, err := j.ApplyTemplate(tpl.ID, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("apply removed error = %v, want ErrNotFound", err)
	}
}

func TestShopsAndItems(t *testing.T) {
	j := newTestJournal(t)
	j.AddTea(TeaForm{Shop: "50嵐", Item: "四季春", Rating: 4, Amount: 40})
	j.AddTea(TeaForm{Shop: "可不可", Item: "熟成紅茶", Rating: 4, Amount: 45})
	j.AddTea(TeaForm{Shop: "50嵐", Item: "波霸奶茶", Rating: 5, Amount: 55})
	j.AddTea(TeaForm{Shop: "50嵐", Item: "四季春", Rating: 3, Amount: 40})

	if got := j.Shops(); !slices.Equal(got, []string{"50嵐", "可不可"}) {
		t.Errorf("Shops = %v", got)
	}
	if got := j.Items("50嵐"); !slices.Equal(got, []string{"四季春", "波霸奶茶"}) {
		t.Errorf("Items = %v", got)
	}
}
