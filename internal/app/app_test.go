package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"

	"taskcal/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080, Mode: "test"},
		Database: config.DatabaseConfig{QueryTimeout: time.Second},
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
		},
		Timezone:  "Asia/Tokyo",
		Location:  loc,
		Reminders: config.RemindersConfig{Limit: 5},
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func do(t *testing.T, a *App, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func signIn(t *testing.T, a *App, email string) string {
	t.Helper()
	creds := map[string]string{"email": email, "password": "secret123"}
	if w := do(t, a, http.MethodPost, "/signup", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}
	w := do(t, a, http.MethodPost, "/login", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	decode(t, w, &resp)
	if resp.Tokens.AccessToken == "" {
		t.Fatal("empty access token")
	}
	return resp.Tokens.AccessToken
}

type taskBody struct {
	ID           int64  `json:"id"`
	Category     string `json:"category"`
	ReminderDate string `json:"reminder_date"`
	IsComplete   bool   `json:"is_complete"`
}

type errBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

func createTask(t *testing.T, a *App, token string, body map[string]string) taskBody {
	t.Helper()
	w := do(t, a, http.MethodPost, "/tasks", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var task taskBody
	decode(t, w, &task)
	return task
}

func TestHealthz(t *testing.T) {
	a := newTestApp(t)
	w := do(t, a, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{"/tasks", "/reminders", "/calendar/events", "/calendar/feed.ics", "/settings"} {
		w := do(t, a, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d", path, w.Code)
			continue
		}
		var e errBody
		decode(t, w, &e)
		if e.Kind != "auth" {
			t.Errorf("%s: kind = %q", path, e.Kind)
		}
	}
	if w := do(t, a, http.MethodGet, "/tasks", "not-a-jwt", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d", w.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a, "kim@example.com")
	w := do(t, a, http.MethodPost, "/login", "", map[string]string{"email": "kim@example.com", "password": "nope-nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	a := newTestApp(t)
	token := signIn(t, a, "kim@example.com")

	loc := a.cfg.Location
	day := civil.DateOf(time.Now().In(loc)).AddDays(7)

	task := createTask(t, a, token, map[string]string{
		"title":      "Linear algebra midterm",
		"date":       day.String(),
		"start_time": "10:00",
		"end_time":   "11:30",
		"category":   "test",
	})
	if want := day.AddDays(-14).String(); task.ReminderDate != want {
		t.Errorf("reminder_date = %q, want %q", task.ReminderDate, want)
	}

	t.Run("due reminder surfaces", func(t *testing.T) {
		w := do(t, a, http.MethodGet, "/reminders", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d %s", w.Code, w.Body.String())
		}
		var due []taskBody
		decode(t, w, &due)
		if len(due) != 1 || due[0].ID != task.ID {
			t.Fatalf("reminders = %+v", due)
		}
	})

	t.Run("calendar event in local wall clock", func(t *testing.T) {
		path := fmt.Sprintf("/calendar/events?from=%s&to=%s", day, day)
		w := do(t, a, http.MethodGet, path, token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d %s", w.Code, w.Body.String())
		}
		var events []struct {
			ID    int64  `json:"id"`
			Start string `json:"start"`
			End   string `json:"end"`
		}
		decode(t, w, &events)
		if len(events) != 1 {
			t.Fatalf("events = %+v", events)
		}
		if want := day.String() + "T10:00:00"; events[0].Start != want {
			t.Errorf("start = %q, want %q", events[0].Start, want)
		}
	})

	t.Run("move keeps duration", func(t *testing.T) {
		path := fmt.Sprintf("/calendar/events/%d", task.ID)
		w := do(t, a, http.MethodPatch, path, token, map[string]string{"start": day.String() + "T13:00"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d %s", w.Code, w.Body.String())
		}
		var ev struct {
			Start string `json:"start"`
			End   string `json:"end"`
		}
		decode(t, w, &ev)
		if ev.Start != day.String()+"T13:00:00" || ev.End != day.String()+"T14:30:00" {
			t.Errorf("moved event = %+v", ev)
		}
	})

	t.Run("move rejects end before start", func(t *testing.T) {
		path := fmt.Sprintf("/calendar/events/%d", task.ID)
		w := do(t, a, http.MethodPatch, path, token, map[string]string{
			"start": day.String() + "T13:00",
			"end":   day.String() + "T12:00",
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d %s", w.Code, w.Body.String())
		}
		var e errBody
		decode(t, w, &e)
		if e.Kind != "validation" || e.Retryable {
			t.Errorf("error = %+v", e)
		}
	})

	t.Run("ics feed", func(t *testing.T) {
		w := do(t, a, http.MethodGet, "/calendar/feed.ics", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
			t.Errorf("content type = %q", ct)
		}
		if body := w.Body.String(); !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "Linear algebra midterm") {
			t.Errorf("feed = %q", body)
		}
	})

	t.Run("complete hides reminder", func(t *testing.T) {
		path := fmt.Sprintf("/tasks/%d/complete", task.ID)
		w := do(t, a, http.MethodPost, path, token, map[string]bool{"is_complete": true})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d %s", w.Code, w.Body.String())
		}
		w = do(t, a, http.MethodGet, "/reminders", token, nil)
		var due []taskBody
		decode(t, w, &due)
		if len(due) != 0 {
			t.Errorf("reminders after completion = %+v", due)
		}
	})

	t.Run("delete", func(t *testing.T) {
		path := fmt.Sprintf("/tasks/%d", task.ID)
		if w := do(t, a, http.MethodDelete, path, token, nil); w.Code != http.StatusNoContent {
			t.Fatalf("delete status = %d", w.Code)
		}
		w := do(t, a, http.MethodGet, path, token, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("get after delete = %d", w.Code)
		}
		var e errBody
		decode(t, w, &e)
		if e.Kind != "not_found" {
			t.Errorf("kind = %q", e.Kind)
		}
	})
}

func TestCreateTaskValidation(t *testing.T) {
	a := newTestApp(t)
	token := signIn(t, a, "kim@example.com")

	cases := map[string]map[string]string{
		"unknown category": {"title": "x", "date": "2026-03-15", "start_time": "10:00", "end_time": "11:00", "category": "party"},
		"bad date":         {"title": "x", "date": "15/03/2026", "start_time": "10:00", "end_time": "11:00", "category": "test"},
		"end before start": {"title": "x", "date": "2026-03-15", "start_time": "11:00", "end_time": "10:00", "category": "test"},
		"blank title":      {"title": "  ", "date": "2026-03-15", "start_time": "10:00", "end_time": "11:00", "category": "test"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(t, a, http.MethodPost, "/tasks", token, body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d %s", w.Code, w.Body.String())
			}
			var e errBody
			decode(t, w, &e)
			if e.Kind != "validation" {
				t.Errorf("kind = %q", e.Kind)
			}
		})
	}

	w := do(t, a, http.MethodGet, "/tasks", token, nil)
	var tasks []taskBody
	decode(t, w, &tasks)
	if len(tasks) != 0 {
		t.Errorf("invalid input was stored: %+v", tasks)
	}
}

func TestTasksAreScopedToOwner(t *testing.T) {
	a := newTestApp(t)
	alice := signIn(t, a, "alice@example.com")
	bob := signIn(t, a, "bob@example.com")

	task := createTask(t, a, alice, map[string]string{
		"title": "Groceries", "date": "2026-03-15", "start_time": "18:00", "end_time": "18:30", "category": "errand",
	})
	if w := do(t, a, http.MethodGet, fmt.Sprintf("/tasks/%d", task.ID), bob, nil); w.Code != http.StatusNotFound {
		t.Errorf("foreign get = %d", w.Code)
	}
	w := do(t, a, http.MethodGet, "/tasks", bob, nil)
	var tasks []taskBody
	decode(t, w, &tasks)
	if len(tasks) != 0 {
		t.Errorf("bob sees %+v", tasks)
	}
}

func TestEarningsAndReport(t *testing.T) {
	a := newTestApp(t)
	token := signIn(t, a, "kim@example.com")

	w := do(t, a, http.MethodPut, "/settings", token, map[string]int64{"hourly_wage": 1100, "fixed_salary": 5000})
	if w.Code != http.StatusOK {
		t.Fatalf("settings: %d %s", w.Code, w.Body.String())
	}
	for _, d := range []string{"2026-05-02", "2026-05-09"} {
		createTask(t, a, token, map[string]string{
			"title": "Cafe shift", "date": d, "start_time": "17:00", "end_time": "21:30", "category": "part_time_job",
		})
	}
	createTask(t, a, token, map[string]string{
		"title": "Cafe shift", "date": "2026-06-01", "start_time": "17:00", "end_time": "21:00", "category": "part_time_job",
	})

	w = do(t, a, http.MethodGet, "/earnings?month=2026-05", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("earnings: %d %s", w.Code, w.Body.String())
	}
	var e struct {
		Shifts int     `json:"shifts"`
		Hours  float64 `json:"hours"`
		Total  int64   `json:"total"`
	}
	decode(t, w, &e)
	if e.Shifts != 2 || e.Hours != 9 || e.Total != 9*1100+5000 {
		t.Errorf("earnings = %+v", e)
	}

	if w := do(t, a, http.MethodGet, "/earnings?month=May", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad month = %d", w.Code)
	}

	w = do(t, a, http.MethodGet, "/reports/monthly.pdf?month=2026-05", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report: %d %s", w.Code, w.Body.String())
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Errorf("report is not a PDF")
	}
}

func TestPasswordResetEndpoints(t *testing.T) {
	a := newTestApp(t)
	signIn(t, a, "kim@example.com")

	w := do(t, a, http.MethodPost, "/password/forgot", "", map[string]string{"email": "ghost@example.com"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("forgot: %d %s", w.Code, w.Body.String())
	}
	w = do(t, a, http.MethodPost, "/password/reset", "", map[string]string{"token": "bogus", "password": "long-enough"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("reset with bogus token: %d %s", w.Code, w.Body.String())
	}
}
