package journal

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ting434252/lifebill/internal/util"
)

// move implements drag reordering: the element at from ends up at to.
func move[T any](list []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return nil, invalid("index", "排序位置不正確")
	}
	out := slices.Clone(list)
	if from == to {
		return out, nil
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item), nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := util.ValidateName(name); err != nil {
		return "", invalid("name", "請輸入名稱（最多 20 字）")
	}
	return name, nil
}

// ---------- categories ----------

func (j *Journal) AddCategory(d Direction, name string) error {
	if !d.Valid() {
		return invalid("type", "請選擇收入或支出")
	}
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	list := j.ds.Categories.List(d)
	if slices.Contains(list, name) {
		return fmt.Errorf("類別%w", ErrDuplicate)
	}
	j.ds.Categories.set(d, append(slices.Clone(list), name))
	j.touch(ChangeCategories)
	return nil
}

// RemoveCategory refuses to empty a direction before it asks for confirmation.
func (j *Journal) RemoveCategory(d Direction, name string, confirmed bool) error {
	list := j.ds.Categories.List(d)
	i := slices.Index(list, name)
	if i < 0 {
		return ErrNotFound
	}
	if len(list) <= 1 {
		return ErrLastCategory
	}
	if !confirmed {
		return needConfirm(fmt.Sprintf("確定要刪除類別「%s」嗎？", name))
	}
	j.ds.Categories.set(d, slices.Delete(slices.Clone(list), i, i+1))
	j.touch(ChangeCategories)
	return nil
}

func (j *Journal) MoveCategory(d Direction, from, to int) error {
	if !d.Valid() {
		return invalid("type", "請選擇收入或支出")
	}
	list, err := move(j.ds.Categories.List(d), from, to)
	if err != nil {
		return err
	}
	j.ds.Categories.set(d, list)
	j.touch(ChangeCategories)
	return nil
}

// ---------- players ----------

func (j *Journal) AddPlayer(name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if slices.Contains(j.ds.Players, name) {
		return fmt.Errorf("麻友%w", ErrDuplicate)
	}
	j.ds.Players = append(slices.Clone(j.ds.Players), name)
	j.touch(ChangePlayers)
	return nil
}

func (j *Journal) RemovePlayer(name string, confirmed bool) error {
	i := slices.Index(j.ds.Players, name)
	if i < 0 {
		return ErrNotFound
	}
	if !confirmed {
		return needConfirm(fmt.Sprintf("確定要刪除麻友「%s」嗎？", name))
	}
	j.ds.Players = slices.Delete(slices.Clone(j.ds.Players), i, i+1)
	j.touch(ChangePlayers)
	return nil
}

func (j *Journal) MovePlayer(from, to int) error {
	list, err := move(j.ds.Players, from, to)
	if err != nil {
		return err
	}
	j.ds.Players = list
	j.touch(ChangePlayers)
	return nil
}

// ---------- templates ----------

// AddTemplate stores a daily payload under a unique name.
func (j *Journal) AddTemplate(t Template) (Template, error) {
	name, err := cleanName(t.Name)
	if err != nil {
		return Template{}, err
	}
	if slices.ContainsFunc(j.ds.Templates, func(x Template) bool { return x.Name == name }) {
		return Template{}, fmt.Errorf("範本%w", ErrDuplicate)
	}
	t.Name = name
	if t.Type == "" {
		t.Type = Expense
	}
	if !t.Type.Valid() {
		return Template{}, invalid("type", "請選擇收入或支出")
	}
	t.SubCategory = strings.TrimSpace(t.SubCategory)
	if !slices.Contains(j.ds.Categories.List(t.Type), t.SubCategory) {
		return Template{}, invalid("subCategory", "類別不存在，請至設定新增類別")
	}
	if util.ValidateAmount(t.Amount) != nil {
		return Template{}, invalid("amount", "請輸入有效金額")
	}
	t.Note = strings.TrimSpace(t.Note)
	t.ID = "tpl_" + j.nextID()
	j.ds.Templates = append(slices.Clone(j.ds.Templates), t)
	j.touch(ChangeTemplates)
	return t, nil
}

func (j *Journal) templateIndex(id string) int {
	return slices.IndexFunc(j.ds.Templates, func(t Template) bool { return t.ID == id })
}

func (j *Journal) RemoveTemplate(id string, confirmed bool) error {
	i := j.templateIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	if !confirmed {
		return needConfirm(fmt.Sprintf("確定要刪除範本「%s」嗎？", j.ds.Templates[i].Name))
	}
	j.ds.Templates = slices.Delete(slices.Clone(j.ds.Templates), i, i+1)
	j.touch(ChangeTemplates)
	return nil
}

// ApplyTemplate adds a daily record from a template; an empty date means today.
func (j *Journal) ApplyTemplate(id, date string) (Record, error) {
	i := j.templateIndex(id)
	if i < 0 {
		return Record{}, ErrNotFound
	}
	t := j.ds.Templates[i]
	return j.AddDaily(DailyForm{
		Date:        date,
		Type:        t.Type,
		SubCategory: t.SubCategory,
		Amount:      t.Amount,
		Note:        t.Note,
	})
}

// ---------- tea suggestions ----------

// Shops lists distinct tea shops in first-seen order.
func (j *Journal) Shops() []string {
	var out []string
	for _, r := range j.ds.Records {
		if r.Category == KindTea && !slices.Contains(out, r.Shop) {
			out = append(out, r.Shop)
		}
	}
	return out
}

// Items lists distinct items ordered at shop.
func (j *Journal) Items(shop string) []string {
	var out []string
	for _, r := range j.ds.Records {
		if r.Category == KindTea && r.Shop == shop && !slices.Contains(out, r.Item) {
			out = append(out, r.Item)
		}
	}
	return out
}
