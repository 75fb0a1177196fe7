package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"taskboard-api/board"
	"taskboard-api/domain"
	"taskboard-api/tasks"
)

// stubAuth treats the bearer token as the literal actor id.
type stubAuth struct {
	actors map[string]domain.Actor
}

func (a *stubAuth) ActorFromAuthHeader(h string) (domain.Actor, error) {
	token := strings.TrimPrefix(h, "Bearer ")
	if h == "" || token == h {
		return domain.Actor{}, fmt.Errorf("missing bearer token")
	}
	actor, ok := a.actors[token]
	if !ok {
		return domain.Actor{}, fmt.Errorf("unknown token")
	}
	return actor, nil
}

// storeListings serves listings straight from the task store, standing in
// for the redis cache.
type storeListings struct {
	store *tasks.Store
}

func (l *storeListings) BoardTasks(ctx context.Context, boardID string) ([]domain.Task, error) {
	return l.store.ActiveBoardTasks(boardID)
}

type testServer struct {
	e        *echo.Echo
	registry *board.Registry
	store    *tasks.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	registry := board.NewRegistry(nil, nil)
	store := tasks.NewStore(registry, nil, nil)
	auth := &stubAuth{actors: map[string]domain.Actor{
		"owner":    {ID: "owner", Kind: domain.ActorKindStartup, Role: domain.RoleMember},
		"stranger": {ID: "stranger", Kind: domain.ActorKindStartup, Role: domain.RoleMember},
	}}
	e := echo.New()
	Register(e, registry, store, &storeListings{store: store}, auth, nil)
	return &testServer{e: e, registry: registry, store: store}
}

func (s *testServer) request(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env response
	if rec.Body.Len() > 0 {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: bad response body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func (s *testServer) createBoard(t *testing.T) *domain.Board {
	t.Helper()
	rec, env := s.request(t, http.MethodPost, "/api/boards", "owner", `{"name":"Sprint"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create board: status %d, body %s", rec.Code, rec.Body.String())
	}
	var b domain.Board
	remarshal(t, env.Data, &b)
	return &b
}

func (s *testServer) createTask(t *testing.T, boardID, columnID string) *domain.Task {
	t.Helper()
	body := fmt.Sprintf(`{"title":"Task","boardId":%q,"columnId":%q}`, boardID, columnID)
	rec, env := s.request(t, http.MethodPost, "/api/tasks", "owner", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status %d, body %s", rec.Code, rec.Body.String())
	}
	var task domain.Task
	remarshal(t, env.Data, &task)
	return &task
}

func remarshal(t *testing.T, data any, v any) {
	t.Helper()
	raw, err := sonic.Marshal(data)
	if err != nil {
		t.Fatalf("remarshal: %v", err)
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		t.Fatalf("remarshal: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMissingAuthorization(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.request(t, http.MethodGet, "/api/boards", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Success || env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestBoardLifecycle(t *testing.T) {
	s := newTestServer(t)
	b := s.createBoard(t)
	if len(b.Columns) != 4 {
		t.Fatalf("columns = %d", len(b.Columns))
	}

	rec, env := s.request(t, http.MethodGet, "/api/boards", "owner", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("list boards: %d %+v", rec.Code, env)
	}

	// Columns reorder with a short id set is rejected atomically.
	body := fmt.Sprintf(`{"columnIds":[%q]}`, b.Columns[0].ID)
	rec, env = s.request(t, http.MethodPut, "/api/boards/"+b.ID+"/columns/reorder", "owner", body)
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != string(domain.CodeInvalidColumnSet) {
		t.Fatalf("short reorder: %d %+v", rec.Code, env)
	}

	rec, env = s.request(t, http.MethodGet, "/api/boards/"+b.ID, "stranger", "")
	if rec.Code != http.StatusForbidden || env.Error.Code != string(domain.CodeBoardAccessDenied) {
		t.Fatalf("stranger board read: %d %+v", rec.Code, env)
	}
}

func TestTaskEndpoints(t *testing.T) {
	s := newTestServer(t)
	b := s.createBoard(t)
	task := s.createTask(t, b.ID, b.Columns[0].ID)
	if task.Position != 0 || task.Status != domain.StatusTodo {
		t.Fatalf("created task = %+v", task)
	}

	rec, env := s.request(t, http.MethodGet, "/api/tasks/"+task.ID, "owner", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("get task: %d %+v", rec.Code, env)
	}

	rec, env = s.request(t, http.MethodGet, "/api/tasks/missing", "owner", "")
	if rec.Code != http.StatusNotFound || env.Error.Code != string(domain.CodeTaskNotFound) {
		t.Fatalf("missing task: %d %+v", rec.Code, env)
	}

	rec, env = s.request(t, http.MethodGet, "/api/tasks/"+task.ID, "stranger", "")
	if rec.Code != http.StatusForbidden || env.Error.Code != string(domain.CodeTaskAccessDenied) {
		t.Fatalf("stranger task read: %d %+v", rec.Code, env)
	}

	// Unknown body fields are rejected by the strict decoder.
	rec, env = s.request(t, http.MethodPut, "/api/tasks/"+task.ID, "owner", `{"bogus":true}`)
	if rec.Code != http.StatusBadRequest || env.Error.Code != string(domain.CodeValidationFailed) {
		t.Fatalf("unknown field: %d %+v", rec.Code, env)
	}
}

func TestMoveEndpoint(t *testing.T) {
	s := newTestServer(t)
	b := s.createBoard(t)
	task := s.createTask(t, b.ID, b.Columns[0].ID)

	body := fmt.Sprintf(`{"columnId":%q,"position":0}`, b.Columns[1].ID)
	rec, env := s.request(t, http.MethodPut, "/api/tasks/"+task.ID+"/move", "owner", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("move: %d %s", rec.Code, rec.Body.String())
	}
	var moved domain.Task
	remarshal(t, env.Data, &moved)
	if moved.ColumnID != b.Columns[1].ID || moved.Position != 0 {
		t.Fatalf("moved = %+v", moved)
	}

	rec, env = s.request(t, http.MethodPut, "/api/tasks/"+task.ID+"/move", "owner", `{"columnId":"nope","position":0}`)
	if rec.Code != http.StatusBadRequest || env.Error.Code != string(domain.CodeInvalidColumn) {
		t.Fatalf("bad column move: %d %+v", rec.Code, env)
	}
}

func TestWatcherConflictStatus(t *testing.T) {
	s := newTestServer(t)
	b := s.createBoard(t)
	task := s.createTask(t, b.ID, b.Columns[0].ID)

	rec, _ := s.request(t, http.MethodPost, "/api/tasks/"+task.ID+"/watchers", "owner", `{"userId":"alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add watcher: %d", rec.Code)
	}
	rec, env := s.request(t, http.MethodPost, "/api/tasks/"+task.ID+"/watchers", "owner", `{"userId":"alice"}`)
	if rec.Code != http.StatusConflict || env.Error.Code != string(domain.CodeAlreadyWatching) {
		t.Fatalf("duplicate watcher: %d %+v", rec.Code, env)
	}
}

func TestBoardTasksFilter(t *testing.T) {
	s := newTestServer(t)
	b := s.createBoard(t)
	s.createTask(t, b.ID, b.Columns[0].ID)
	s.createTask(t, b.ID, b.Columns[1].ID)

	rec, env := s.request(t, http.MethodGet, "/api/boards/"+b.ID+"/tasks", "owner", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var all []domain.Task
	remarshal(t, env.Data, &all)
	if len(all) != 2 {
		t.Fatalf("tasks = %d, want 2", len(all))
	}

	rec, env = s.request(t, http.MethodGet, "/api/boards/"+b.ID+"/tasks?columnId="+b.Columns[0].ID, "owner", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list: %d", rec.Code)
	}
	var filtered []domain.Task
	remarshal(t, env.Data, &filtered)
	if len(filtered) != 1 || filtered[0].ColumnID != b.Columns[0].ID {
		t.Fatalf("filtered = %+v", filtered)
	}

	rec, env = s.request(t, http.MethodGet, "/api/boards/"+b.ID+"/tasks", "stranger", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger listing: %d %+v", rec.Code, env)
	}
}

func TestActivityEndpoint(t *testing.T) {
	s := newTestServer(t)
	b := s.createBoard(t)
	task := s.createTask(t, b.ID, b.Columns[0].ID)

	rec, _ := s.request(t, http.MethodPut, "/api/tasks/"+task.ID+"/status", "owner", `{"status":"in_progress"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status update: %d", rec.Code)
	}

	rec, env := s.request(t, http.MethodGet, "/api/tasks/"+task.ID+"/activity", "owner", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("activity: %d", rec.Code)
	}
	var entries []domain.ActivityEntry
	remarshal(t, env.Data, &entries)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Action != domain.ActionCreated || entries[1].Action != domain.ActionStatusChanged {
		t.Fatalf("actions = %s, %s", entries[0].Action, entries[1].Action)
	}
}
