package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ting434252/lifebill/internal/config"
	"github.com/ting434252/lifebill/internal/database"
	"github.com/ting434252/lifebill/internal/models"
	"github.com/ting434252/lifebill/internal/persist"
	"github.com/ting434252/lifebill/internal/storage/docstore"
	"github.com/ting434252/lifebill/internal/storage/kv"
	"github.com/ting434252/lifebill/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

type testServer struct {
	r    *gin.Engine
	db   *gorm.DB
	docs *docstore.MemoryStore
	kv   *kv.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Init(config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := util.RegisterValidations(); err != nil {
		t.Fatalf("register validations: %v", err)
	}

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		JWT:      config.JWTConfig{Secret: "test-secret", Issuer: "lifebill", ExpireHours: 1},
		Security: config.SecurityConfig{BcryptCost: 4, EncryptionKey: "test-key", MaxLoginFails: 3, LockMinutes: 5},
		Backup:   config.BackupConfig{Dir: t.TempDir()},
	}

	ts := &testServer{db: db, docs: docstore.NewMemoryStore(), kv: kv.NewMemoryStore()}
	backends := &persist.Backends{KV: ts.kv, Docs: ts.docs, Defaults: persist.DefaultSettings()}
	m := persist.NewManager(backends, nil)
	m.SetClock(func() time.Time { return testNow })
	t.Cleanup(m.Close)

	ts.r = SetupRouter(cfg, db, m)
	return ts
}

// client is one browser: a fixed device id plus an optional token.
type client struct {
	t      *testing.T
	s      *testServer
	device string
	token  string
}

func (s *testServer) client(t *testing.T, device string) *client {
	return &client{t: t, s: s, device: device}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Prompt  string          `json:"prompt"`
	Field   string          `json:"field"`
	Data    json.RawMessage `json:"data"`
}

func (c *client) send(req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("X-Device-ID", c.device)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.s.r.ServeHTTP(w, req)
	return w
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := c.send(req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		c.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

// ok asserts a 200 and decodes data into out.
func (c *client) ok(method, path string, body, out any) {
	c.t.Helper()
	code, env := c.do(method, path, body)
	if code != http.StatusOK || env.Code != util.CodeOK {
		c.t.Fatalf("%s %s = %d %+v", method, path, code, env)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.t.Fatalf("decode data: %v", err)
		}
	}
}

type recordOut struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Category    string   `json:"category"`
	Amount      float64  `json:"amount"`
	Type        string   `json:"type"`
	SubCategory string   `json:"subCategory"`
	Players     []string `json:"players"`
}

type listOut struct {
	Year  int         `json:"year"`
	Items []recordOut `json:"items"`
	Total int         `json:"total"`
}

func (c *client) add(body map[string]any) recordOut {
	c.t.Helper()
	var out struct {
		Record recordOut `json:"record"`
	}
	c.ok(http.MethodPost, "/api/records", body, &out)
	return out.Record
}

func (c *client) list() listOut {
	c.t.Helper()
	var out listOut
	c.ok(http.MethodGet, "/api/records", nil, &out)
	return out
}

func lunch() map[string]any {
	return map[string]any{"category": "daily", "type": "expense", "subCategory": "餐飲", "amount": 120, "note": "午餐"}
}

func TestRecords_CRUD(t *testing.T) {
	c := newTestServer(t).client(t, "device-one")

	r := c.add(lunch())
	if r.Amount != 120 || r.Date != "2024-05-20" || r.Type != "expense" {
		t.Fatalf("created = %+v", r)
	}
	if l := c.list(); l.Total != 1 || l.Year != 2024 {
		t.Fatalf("list = %+v", l)
	}

	var upd struct {
		Record recordOut `json:"record"`
	}
	c.ok(http.MethodPatch, "/api/records/"+r.ID, map[string]any{"amount": 95.5}, &upd)
	if upd.Record.Amount != 95.5 || upd.Record.SubCategory != "餐飲" {
		t.Errorf("updated = %+v", upd.Record)
	}

	code, env := c.do(http.MethodPatch, "/api/records/"+r.ID, map[string]any{"category": "tea"})
	if code != http.StatusBadRequest {
		t.Errorf("kind change = %d %+v", code, env)
	}

	code, env = c.do(http.MethodDelete, "/api/records/"+r.ID, nil)
	if code != http.StatusConflict || env.Code != util.CodeConfirm || env.Prompt == "" {
		t.Fatalf("unconfirmed delete = %d %+v", code, env)
	}
	if c.list().Total != 1 {
		t.Fatal("record deleted without confirmation")
	}
	c.ok(http.MethodDelete, "/api/records/"+r.ID+"?confirm=true", nil, nil)
	if c.list().Total != 0 {
		t.Error("record still listed after delete")
	}

	code, _ = c.do(http.MethodDelete, "/api/records/"+r.ID+"?confirm=true", nil)
	if code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", code)
	}
}

func TestRecords_Validation(t *testing.T) {
	c := newTestServer(t).client(t, "device-one")

	testCases := map[string]struct {
		body  map[string]any
		field string
	}{
		"unknown category": {map[string]any{"category": "daily", "subCategory": "不存在", "amount": 1}, "subCategory"},
		"two players":      {map[string]any{"category": "mahjong", "players": []string{"阿明", "小華"}, "amount": 1}, "players"},
		"zero amount":      {map[string]any{"category": "daily", "subCategory": "餐飲", "amount": 0}, "amount"},
		"no rating":        {map[string]any{"category": "tea", "shop": "50嵐", "item": "紅茶", "amount": 30}, "rating"},
	}
	for name, tc := range testCases {
		code, env := c.do(http.MethodPost, "/api/records", tc.body)
		if code != http.StatusBadRequest || env.Field != tc.field {
			t.Errorf("%s: %d %+v, want 400 on %s", name, code, env, tc.field)
		}
	}

	bindCases := map[string]struct {
		path  string
		body  map[string]any
		field string
	}{
		"unknown kind":  {"/api/records", map[string]any{"category": "bank", "amount": 1}, "category"},
		"bad date":      {"/api/records", map[string]any{"category": "daily", "date": "2024/5/1", "subCategory": "餐飲", "amount": 1}, "date"},
		"long note":     {"/api/records", map[string]any{"category": "daily", "subCategory": "餐飲", "amount": 1, "note": strings.Repeat("字", 201)}, "note"},
		"amount type":   {"/api/records", map[string]any{"category": "daily", "subCategory": "餐飲", "amount": "一百"}, "amount"},
		"category type": {"/api/categories", map[string]any{"type": "saving", "name": "旅遊"}, "type"},
		"blank player":  {"/api/players", map[string]any{"name": "  "}, "name"},
	}
	for name, tc := range bindCases {
		code, env := c.do(http.MethodPost, tc.path, tc.body)
		if code != http.StatusBadRequest || env.Field != tc.field {
			t.Errorf("%s: %d %+v, want 400 on %s", name, code, env, tc.field)
		}
	}
	if c.list().Total != 0 {
		t.Error("rejected submissions were stored")
	}
}

func TestDevices_AreIsolated(t *testing.T) {
	s := newTestServer(t)
	a, b := s.client(t, "device-one"), s.client(t, "device-two")
	a.add(lunch())
	if b.list().Total != 0 {
		t.Error("device two sees device one's records")
	}
	if _, err := s.kv.Get(context.Background(), "device-one", "life_journal_2024"); err != nil {
		t.Errorf("local records key: %v", err)
	}
}

func register(t *testing.T, c *client, email, password string) {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	c.ok(http.MethodPost, "/api/auth/register", map[string]any{"email": email, "password": password}, &out)
	if out.Token == "" {
		t.Fatal("register returned no token")
	}
	c.token = out.Token
}

func TestSignIn_SwitchesToCloudWithoutMigration(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t, "device-one")
	c.add(lunch())

	register(t, c, "Alice@Example.com", "secret1")
	if l := c.list(); l.Total != 0 {
		t.Fatalf("cloud journal has %d records, local data was migrated", l.Total)
	}
	c.add(map[string]any{"category": "daily", "type": "income", "subCategory": "薪水", "amount": 50000})

	snap, err := s.docs.Get(context.Background(), persist.DocumentPath("1", 2024))
	if err != nil || !snap.Exists {
		t.Fatalf("cloud document = %+v, %v", snap, err)
	}
	if !strings.Contains(string(snap.Fields["records"]), "薪水") {
		t.Errorf("cloud records = %s", snap.Fields["records"])
	}

	var me struct {
		Identity string `json:"identity"`
		User     struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	c.ok(http.MethodGet, "/api/me", nil, &me)
	if me.Identity != "user:1" || me.User.Email != "alice@example.com" {
		t.Errorf("me = %+v", me)
	}

	c.ok(http.MethodPost, "/api/auth/logout", nil, nil)
	if code, _ := c.do(http.MethodGet, "/api/records", nil); code != http.StatusUnauthorized {
		t.Errorf("revoked token = %d, want 401", code)
	}
	c.token = ""
	l := c.list()
	if l.Total != 1 || l.Items[0].SubCategory != "餐飲" {
		t.Errorf("local journal after sign out = %+v", l)
	}
}

func TestSameDevice_TwoIdentities(t *testing.T) {
	s := newTestServer(t)
	signedIn := s.client(t, "shared-device")
	register(t, signedIn, "erin@example.com", "secret1")
	anon := s.client(t, "shared-device")

	anon.add(lunch())
	signedIn.add(map[string]any{"category": "daily", "type": "income", "subCategory": "薪水", "amount": 42})
	anon.add(lunch())

	if l := signedIn.list(); l.Total != 1 || l.Items[0].Amount != 42 {
		t.Errorf("signed-in list = %+v", l)
	}
	if l := anon.list(); l.Total != 2 {
		t.Errorf("anonymous list = %+v", l)
	}
	local, err := s.kv.Get(context.Background(), "shared-device", "life_journal_2024")
	if err != nil || strings.Contains(local, "薪水") {
		t.Errorf("local year key = %q, %v", local, err)
	}
	snap, _ := s.docs.Get(context.Background(), persist.DocumentPath("1", 2024))
	if strings.Contains(string(snap.Fields["records"]), "午餐") {
		t.Error("anonymous record written to the cloud document")
	}
}

func TestLogin_LocksAfterFailures(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t, "device-one")
	register(t, c, "bob@example.com", "secret1")
	c.token = ""

	for i := 0; i < 3; i++ {
		code, _ := c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "bob@example.com", "password": "wrong"})
		if code != http.StatusUnauthorized {
			t.Fatalf("attempt %d = %d", i, code)
		}
	}
	code, env := c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "bob@example.com", "password": "secret1"})
	if code != http.StatusUnauthorized || !strings.Contains(env.Message, "鎖定") {
		t.Errorf("locked login = %d %+v", code, env)
	}

	var user models.User
	if err := s.db.Where("email = ?", "bob@example.com").First(&user).Error; err != nil {
		t.Fatal(err)
	}
	if user.LockedUntil == nil {
		t.Error("account not locked")
	}
}

func TestInvalidToken(t *testing.T) {
	c := newTestServer(t).client(t, "device-one")
	c.token = "not-a-token"
	if code, _ := c.do(http.MethodGet, "/api/records", nil); code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", code)
	}
}

func TestFailedCloudWrite_RollsBack(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t, "device-one")
	register(t, c, "carol@example.com", "secret1")
	c.add(lunch())

	s.docs.FailMerges(errors.New("offline"))
	code, env := c.do(http.MethodPost, "/api/records", lunch())
	if code != http.StatusBadGateway || env.Code != util.CodeBackend {
		t.Fatalf("write while offline = %d %+v", code, env)
	}
	if c.list().Total != 1 {
		t.Error("failed write left the record in memory")
	}
	s.docs.FailMerges(nil)
}

func TestSwitchYear(t *testing.T) {
	c := newTestServer(t).client(t, "device-one")
	c.add(lunch())

	var settings struct {
		Year int `json:"year"`
	}
	c.ok(http.MethodPut, "/api/year", map[string]any{"year": 2023}, &settings)
	if settings.Year != 2023 {
		t.Fatalf("year = %d", settings.Year)
	}
	if l := c.list(); l.Total != 0 || l.Year != 2023 {
		t.Errorf("2023 list = %+v", l)
	}
	c.ok(http.MethodPut, "/api/year", map[string]any{"year": 2024}, nil)
	if c.list().Total != 1 {
		t.Error("2024 records lost after switching years")
	}
}

func TestSettings(t *testing.T) {
	c := newTestServer(t).client(t, "device-one")

	var st struct {
		Categories struct {
			Income []string `json:"income"`
		} `json:"categories"`
		Players   []string `json:"players"`
		Templates []struct {
			ID string `json:"id"`
		} `json:"templates"`
	}
	c.ok(http.MethodPost, "/api/categories", map[string]any{"type": "income", "name": "紅包"}, &st)
	if len(st.Categories.Income) != 4 {
		t.Errorf("income = %v", st.Categories.Income)
	}
	if code, _ := c.do(http.MethodPost, "/api/categories", map[string]any{"type": "income", "name": "紅包"}); code != http.StatusBadRequest {
		t.Errorf("duplicate category = %d", code)
	}

	code, env := c.do(http.MethodDelete, "/api/players/阿明", nil)
	if code != http.StatusConflict || env.Prompt == "" {
		t.Errorf("unconfirmed player removal = %d %+v", code, env)
	}
	c.ok(http.MethodDelete, "/api/players/阿明?confirm=true", nil, &st)
	if len(st.Players) != 2 {
		t.Errorf("players = %v", st.Players)
	}

	c.ok(http.MethodPost, "/api/templates", map[string]any{"name": "早餐", "subCategory": "餐飲", "amount": 65}, &st)
	if len(st.Templates) != 1 {
		t.Fatalf("templates = %+v", st.Templates)
	}
	var applied struct {
		Record recordOut `json:"record"`
	}
	c.ok(http.MethodPost, "/api/templates/"+st.Templates[0].ID+"/apply", nil, &applied)
	if applied.Record.Amount != 65 || applied.Record.SubCategory != "餐飲" {
		t.Errorf("applied = %+v", applied.Record)
	}
}

func TestStatsAndCalendar(t *testing.T) {
	c := newTestServer(t).client(t, "device-one")
	c.add(map[string]any{"category": "daily", "subCategory": "餐飲", "amount": 300})
	c.add(map[string]any{"category": "daily", "subCategory": "交通", "amount": 100, "date": "2024-05-03"})

	var daily struct {
		Stats struct {
			Total     float64 `json:"total"`
			Breakdown []struct {
				Name    string `json:"name"`
				Percent int    `json:"percent"`
			} `json:"breakdown"`
		} `json:"stats"`
	}
	c.ok(http.MethodGet, "/api/stats/daily?range=month&type=expense", nil, &daily)
	if daily.Stats.Total != 400 || len(daily.Stats.Breakdown) != 2 || daily.Stats.Breakdown[0].Percent != 75 {
		t.Errorf("daily stats = %+v", daily.Stats)
	}
	if code, _ := c.do(http.MethodGet, "/api/stats/daily?range=week", nil); code != http.StatusBadRequest {
		t.Errorf("bad range = %d", code)
	}

	var cal struct {
		Calendar struct {
			Month  int `json:"month"`
			Offset int `json:"offset"`
			Days   []struct {
				HasData      bool `json:"hasData"`
				ExpenseCount int  `json:"expenseCount"`
			} `json:"days"`
		} `json:"calendar"`
	}
	c.ok(http.MethodGet, "/api/calendar?kind=daily", nil, &cal)
	// 2024-05-01 is a Wednesday
	if cal.Calendar.Month != 5 || cal.Calendar.Offset != 2 || len(cal.Calendar.Days) != 31 {
		t.Fatalf("calendar = %+v", cal.Calendar)
	}
	if !cal.Calendar.Days[2].HasData || cal.Calendar.Days[19].ExpenseCount != 1 || cal.Calendar.Days[0].HasData {
		t.Errorf("calendar days = %+v", cal.Calendar.Days)
	}

	var day struct {
		Items []recordOut `json:"items"`
	}
	c.ok(http.MethodGet, "/api/calendar/2024-05-03?kind=daily", nil, &day)
	if len(day.Items) != 1 || day.Items[0].SubCategory != "交通" {
		t.Errorf("day = %+v", day)
	}

	var bal struct {
		Balance float64 `json:"balance"`
	}
	c.ok(http.MethodGet, "/api/balance", nil, &bal)
	if bal.Balance != -400 {
		t.Errorf("balance = %v", bal.Balance)
	}
}

func TestExportImport(t *testing.T) {
	s := newTestServer(t)
	a := s.client(t, "device-one")
	a.add(lunch())

	w := a.send(httptest.NewRequest(http.MethodGet, "/api/export/csv", nil))
	if w.Code != http.StatusOK || !bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("csv export = %d %q", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "2024-05-20,daily,餐飲,120,") {
		t.Errorf("csv = %q", w.Body.String())
	}

	w = a.send(httptest.NewRequest(http.MethodGet, "/api/export/json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("json export = %d", w.Code)
	}
	backup := w.Body.Bytes()

	w = a.send(httptest.NewRequest(http.MethodGet, "/api/export/xlsx", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Disposition"), "life_journal_2024.xlsx") {
		t.Errorf("xlsx export = %d %v", w.Code, w.Header())
	}

	b := s.client(t, "device-two")
	upload := func(confirm bool) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("file", "backup.json")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(backup)
		_ = mw.Close()
		path := "/api/import"
		if confirm {
			path += "?confirm=true"
		}
		req := httptest.NewRequest(http.MethodPost, path, &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return b.send(req)
	}
	if w := upload(false); w.Code != http.StatusConflict {
		t.Fatalf("unconfirmed import = %d", w.Code)
	}
	if w := upload(true); w.Code != http.StatusOK {
		t.Fatalf("import = %d %s", w.Code, w.Body.String())
	}
	l := b.list()
	if l.Total != 1 || l.Items[0].Amount != 120 {
		t.Errorf("imported list = %+v", l)
	}

	code, _ := b.do(http.MethodPost, "/api/import?confirm=true", map[string]any{"records": []any{}})
	if code != http.StatusBadRequest {
		t.Errorf("import without version = %d", code)
	}
	if b.list().Total != 1 {
		t.Error("rejected import changed the records")
	}
}

func TestBackups(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t, "device-one")
	c.add(lunch())

	var created struct {
		Backup struct {
			ID      uint `json:"id"`
			Records int  `json:"records"`
		} `json:"backup"`
	}
	c.ok(http.MethodPost, "/api/backups", nil, &created)
	if created.Backup.Records != 1 {
		t.Fatalf("backup = %+v", created.Backup)
	}
	id := created.Backup.ID

	var list struct {
		Items []struct {
			ID uint `json:"id"`
		} `json:"items"`
	}
	c.ok(http.MethodGet, "/api/backups", nil, &list)
	if len(list.Items) != 1 {
		t.Fatalf("backups = %+v", list)
	}
	other := s.client(t, "device-two")
	other.ok(http.MethodGet, "/api/backups", nil, &list)
	if len(list.Items) != 0 {
		t.Error("device two sees device one's backups")
	}

	c.ok(http.MethodPost, "/api/records", lunch(), nil)
	if c.list().Total != 2 {
		t.Fatal("second record missing")
	}

	path := "/api/backups/" + itoa(id) + "/restore"
	if code, _ := c.do(http.MethodPost, path, nil); code != http.StatusConflict {
		t.Fatalf("unconfirmed restore = %d", code)
	}
	c.ok(http.MethodPost, path+"?confirm=true", nil, nil)
	if c.list().Total != 1 {
		t.Error("restore did not bring back the backed-up records")
	}

	if code, _ := other.do(http.MethodDelete, "/api/backups/"+itoa(id), nil); code != http.StatusNotFound {
		t.Errorf("foreign delete = %d", code)
	}
	c.ok(http.MethodDelete, "/api/backups/"+itoa(id), nil, nil)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestAuditLogs(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t, "device-one")
	c.add(lunch())
	register(t, c, "dave@example.com", "secret1")
	c.token = ""

	var logs struct {
		Items []struct {
			Action string `json:"action"`
			Method string `json:"method"`
			Status int    `json:"status"`
		} `json:"items"`
		Total int `json:"total"`
	}
	c.ok(http.MethodGet, "/api/logs", nil, &logs)
	if logs.Total != 1 {
		t.Fatalf("device logs = %+v", logs)
	}
	if !strings.Contains(logs.Items[0].Action, "午餐") || logs.Items[0].Status != http.StatusOK {
		t.Errorf("log = %+v", logs.Items[0])
	}

	var audit []models.AuditLog
	if err := s.db.Find(&audit).Error; err != nil {
		t.Fatal(err)
	}
	for _, l := range audit {
		if strings.Contains(l.ActionEnc, "午餐") {
			t.Error("action stored in clear text")
		}
		if strings.Contains(util.DecryptField("test-key", l.ActionEnc), "secret1") {
			t.Error("password written to the audit log")
		}
	}

	var history struct {
		Items []struct {
			Operation string `json:"operation"`
			Category  string `json:"category"`
			Amount    string `json:"amount"`
		} `json:"items"`
	}
	c.ok(http.MethodGet, "/api/history", nil, &history)
	if len(history.Items) != 1 || history.Items[0].Operation != "新增紀錄" || history.Items[0].Amount != "120 元" {
		t.Errorf("history = %+v", history)
	}
}

func TestDeviceCookieIssued(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	found := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "lb_device" && ck.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("no device cookie issued")
	}
}
