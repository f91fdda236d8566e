package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"taskflow/models"
	"taskflow/store/sqlite"
	"taskflow/utils"
)

type testServer struct {
	app     *App
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(s.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	app := NewApp(s, client, utils.LogMailer{}, utils.SessionOptions{TTL: time.Hour})
	return &testServer{app: app, handler: app.Handler("", nil)}
}

func (ts *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == utils.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response (status %d, body %s)", rec.Code, rec.Body.String())
	return nil
}

func (ts *testServer) register(t *testing.T, username string) *http.Cookie {
	t.Helper()
	body := `{"username":"` + username + `","email":"` + username + `@example.com","password":"Secret123!"}`
	rec := ts.do(t, http.MethodPost, "/api/auth/register", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}
	return sessionCookie(t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %s: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind models.ErrorKind) errorBody {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decode[errorBody](t, rec)
	if body.Kind != kind {
		t.Errorf("kind = %q, want %q", body.Kind, kind)
	}
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["status"] != "ok" {
		t.Errorf("body = %v", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID header")
	}
}

func TestSessionGate(t *testing.T) {
	ts := newTestServer(t)
	bogus := &http.Cookie{Name: utils.SessionCookie, Value: "not-a-session"}

	endpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/1"},
		{http.MethodPatch, "/api/tasks/1"},
		{http.MethodDelete, "/api/tasks/1"},
		{http.MethodGet, "/api/search?q=x"},
		{http.MethodGet, "/api/stats/overview"},
		{http.MethodGet, "/api/categories"},
		{http.MethodGet, "/api/teams"},
		{http.MethodPost, "/api/tasks/1/comments"},
	}

	for _, ep := range endpoints {
		for _, cookie := range []*http.Cookie{nil, bogus} {
			name := ep.method + " " + ep.path
			if cookie != nil {
				name += " with unknown token"
			}
			t.Run(name, func(t *testing.T) {
				rec := ts.do(t, ep.method, ep.path, `{}`, cookie)
				expectError(t, rec, http.StatusUnauthorized, models.KindAuth)
			})
		}
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.register(t, "alice")

	ts.app.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	rec := ts.do(t, http.MethodGet, "/api/auth/me", "", cookie)
	expectError(t, rec, http.StatusUnauthorized, models.KindAuth)
}

func TestAccountFlow(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.register(t, "alice")

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		msg    string
	}{
		{name: "Duplicate username", path: "/api/auth/register", body: `{"username":"alice","email":"other@example.com","password":"Secret123!"}`, status: 400, msg: "Username or email already exists"},
		{name: "Duplicate email", path: "/api/auth/register", body: `{"username":"alice2","email":"alice@example.com","password":"Secret123!"}`, status: 400, msg: "Username or email already exists"},
		{name: "Weak password", path: "/api/auth/register", body: `{"username":"bob","email":"bob@example.com","password":"password"}`, status: 400},
		{name: "Short username", path: "/api/auth/register", body: `{"username":"bo","email":"bob@example.com","password":"Secret123!"}`, status: 400},
		{name: "Missing fields", path: "/api/auth/register", body: `{"username":"bob"}`, status: 400, msg: "All fields are required"},
		{name: "Malformed JSON", path: "/api/auth/register", body: `{`, status: 400},
		{name: "Wrong password", path: "/api/auth/login", body: `{"username":"alice","password":"Wrong123!"}`, status: 401, msg: "Invalid credentials"},
		{name: "Unknown user", path: "/api/auth/login", body: `{"username":"nobody","password":"Secret123!"}`, status: 401, msg: "Invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, tt.path, tt.body, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.msg != "" {
				if got := decode[errorBody](t, rec); got.Error != tt.msg {
					t.Errorf("error = %q, want %q", got.Error, tt.msg)
				}
			}
		})
	}

	rec := ts.do(t, http.MethodPost, "/api/auth/login", `{"username":"alice@example.com","password":"Secret123!"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login by email: status %d", rec.Code)
	}
	second := sessionCookie(t, rec)

	rec = ts.do(t, http.MethodPut, "/api/auth/theme", `{"theme":"dark"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("theme: status %d", rec.Code)
	}
	rec = ts.do(t, http.MethodPut, "/api/auth/theme", `{"theme":"blue"}`, cookie)
	expectError(t, rec, http.StatusBadRequest, models.KindValidation)

	rec = ts.do(t, http.MethodGet, "/api/auth/me", "", second)
	me := decode[userResponse](t, rec)
	if me.Username != "alice" || me.Email != "alice@example.com" || me.Theme != models.ThemeDark {
		t.Errorf("me = %+v", me)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/logout", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rec.Code)
	}
	expectError(t, ts.do(t, http.MethodGet, "/api/auth/me", "", cookie), http.StatusUnauthorized, models.KindAuth)
	if rec := ts.do(t, http.MethodGet, "/api/auth/me", "", second); rec.Code != http.StatusOK {
		t.Errorf("other session after single logout: status %d", rec.Code)
	}

	if rec := ts.do(t, http.MethodPost, "/api/auth/logout", "", nil); rec.Code != http.StatusOK {
		t.Errorf("logout without session: status %d", rec.Code)
	}
}

func TestLogoutEverywhere(t *testing.T) {
	ts := newTestServer(t)
	first := ts.register(t, "alice")

	rec := ts.do(t, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"Secret123!"}`, nil)
	second := sessionCookie(t, rec)

	rec = ts.do(t, http.MethodPost, "/api/auth/logout?all=1", "", first)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status %d", rec.Code)
	}
	for _, c := range []*http.Cookie{first, second} {
		expectError(t, ts.do(t, http.MethodGet, "/api/auth/me", "", c), http.StatusUnauthorized, models.KindAuth)
	}
}

func TestTaskEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")

	rec := ts.do(t, http.MethodPost, "/api/tasks", `{"title":"Write report","priority":"high","category_id":1,"due_date":"2099-01-01","tags":["work","urgent"]}`, alice)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	if created["message"] != "Task created successfully" {
		t.Errorf("create body = %v", created)
	}
	id := int64(created["id"].(float64))
	path := "/api/tasks/" + strconv.FormatInt(id, 10)

	rec = ts.do(t, http.MethodGet, path, "", alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	task := decode[map[string]any](t, rec)
	if task["category_name"] != "Work" || task["due_date"] != "2099-01-01" || len(task["tags"].([]any)) != 2 {
		t.Errorf("task = %v", task)
	}
	if _, leaked := task["user_id"]; leaked {
		t.Errorf("task exposes user_id: %v", task)
	}

	expectError(t, ts.do(t, http.MethodGet, path, "", bob), http.StatusNotFound, models.KindNotFound)
	expectError(t, ts.do(t, http.MethodGet, "/api/tasks/abc", "", alice), http.StatusBadRequest, models.KindValidation)
	expectError(t, ts.do(t, http.MethodPost, "/api/tasks", `{"title":""}`, alice), http.StatusBadRequest, models.KindValidation)
	expectError(t, ts.do(t, http.MethodPatch, path, `{"foo":"bar"}`, alice), http.StatusBadRequest, models.KindValidation)

	rec = ts.do(t, http.MethodPatch, path, `{"status":"completed"}`, alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status %d, body %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodPut, path, `{"title":"Write final report","due_date":null}`, alice)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: status %d, body %s", rec.Code, rec.Body.String())
	}

	list := decode[[]map[string]any](t, ts.do(t, http.MethodGet, "/api/tasks?status=completed&priority=high", "", alice))
	if len(list) != 1 || list[0]["title"] != "Write final report" || list[0]["completed_at"] == nil || list[0]["due_date"] != nil {
		t.Errorf("filtered list = %v", list)
	}
	if list := decode[[]map[string]any](t, ts.do(t, http.MethodGet, "/api/tasks", "", bob)); len(list) != 0 {
		t.Errorf("bob sees %d tasks", len(list))
	}
	expectError(t, ts.do(t, http.MethodGet, "/api/tasks?status=archived", "", alice), http.StatusBadRequest, models.KindValidation)

	found := decode[[]map[string]any](t, ts.do(t, http.MethodGet, "/api/search?q=final", "", alice))
	if len(found) != 1 {
		t.Errorf("search found %d tasks", len(found))
	}
	expectError(t, ts.do(t, http.MethodGet, "/api/search", "", alice), http.StatusBadRequest, models.KindValidation)

	overview := decode[models.Overview](t, ts.do(t, http.MethodGet, "/api/stats/overview", "", alice))
	if overview.Tasks.Total != 1 || overview.Tasks.Completed != 1 || overview.Priorities.High != 1 || len(overview.RecentActivity) != 3 {
		t.Errorf("overview = %+v", overview)
	}

	tags := decode[[]models.Tag](t, ts.do(t, http.MethodGet, "/api/tags", "", alice))
	if len(tags) != 2 || tags[0].Name != "urgent" || tags[1].Name != "work" {
		t.Errorf("tags = %+v", tags)
	}
	categories := decode[[]models.Category](t, ts.do(t, http.MethodGet, "/api/categories", "", alice))
	if len(categories) != 5 {
		t.Errorf("categories = %d, want 5", len(categories))
	}

	expectError(t, ts.do(t, http.MethodDelete, path, "", bob), http.StatusNotFound, models.KindNotFound)
	if rec := ts.do(t, http.MethodDelete, path, "", alice); rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	expectError(t, ts.do(t, http.MethodGet, path, "", alice), http.StatusNotFound, models.KindNotFound)
	expectError(t, ts.do(t, http.MethodDelete, path, "", alice), http.StatusNotFound, models.KindNotFound)
}

func TestTeamEndpoints(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.register(t, "alice")
	bob := ts.register(t, "bob")

	rec := ts.do(t, http.MethodPost, "/api/teams", `{"name":"Platform","description":"infra"}`, alice)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create team: status %d, body %s", rec.Code, rec.Body.String())
	}
	team := decode[models.Team](t, rec)
	teamPath := "/api/teams/" + strconv.FormatInt(team.ID, 10)

	expectError(t, ts.do(t, http.MethodGet, teamPath+"/members", "", bob), http.StatusNotFound, models.KindNotFound)
	expectError(t, ts.do(t, http.MethodPost, teamPath+"/invite", `{"email":"ghost@example.com"}`, alice), http.StatusNotFound, models.KindNotFound)

	if rec := ts.do(t, http.MethodPost, teamPath+"/invite", `{"email":"bob@example.com"}`, alice); rec.Code != http.StatusOK {
		t.Fatalf("invite: status %d, body %s", rec.Code, rec.Body.String())
	}
	members := decode[[]models.TeamMember](t, ts.do(t, http.MethodGet, teamPath+"/members", "", bob))
	if len(members) != 2 {
		t.Errorf("members = %+v", members)
	}

	rec = ts.do(t, http.MethodPost, "/api/tasks", `{"title":"Shared"}`, alice)
	id := int64(decode[map[string]any](t, rec)["id"].(float64))
	taskPath := "/api/tasks/" + strconv.FormatInt(id, 10)

	var bobID int64
	for _, m := range members {
		if m.Username == "bob" {
			bobID = m.UserID
		}
	}
	if rec := ts.do(t, http.MethodPost, taskPath+"/assign", `{"user_id":`+strconv.FormatInt(bobID, 10)+`}`, alice); rec.Code != http.StatusOK {
		t.Fatalf("assign: status %d, body %s", rec.Code, rec.Body.String())
	}
	expectError(t, ts.do(t, http.MethodPost, taskPath+"/assign", `{"user_id":`+strconv.FormatInt(bobID, 10)+`}`, alice), http.StatusBadRequest, models.KindValidation)

	rec = ts.do(t, http.MethodPost, taskPath+"/comments", `{"content":"on it"}`, bob)
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: status %d, body %s", rec.Code, rec.Body.String())
	}
	comments := decode[[]models.Comment](t, ts.do(t, http.MethodGet, taskPath+"/comments", "", alice))
	if len(comments) != 1 || comments[0].Username != "bob" {
		t.Errorf("comments = %+v", comments)
	}

	task := decode[models.Task](t, ts.do(t, http.MethodGet, taskPath, "", alice))
	if len(task.Assignees) != 1 || task.Assignees[0].Username != "bob" {
		t.Errorf("assignees = %+v", task.Assignees)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t)
	h := ts.app.Handler("", NewRateLimiter(0.001, 2))

	codes := make([]int, 0, 3)
	for i := range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client limited: status %d", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := expectError(t, rec, http.StatusInternalServerError, models.KindStorage)
	if body.Error != "Something went wrong" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind models.ErrorKind
		want int
	}{
		{models.KindValidation, http.StatusBadRequest},
		{models.KindAuth, http.StatusUnauthorized},
		{models.KindNotFound, http.StatusNotFound},
		{models.KindStorage, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.kind); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
