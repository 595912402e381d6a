package task_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/eventbus"
	"taskpilot/internal/task"
	"taskpilot/internal/task/repositoryimpl"
	"taskpilot/pkg/cerr"
)

func newTestServer(t *testing.T) (*httptest.Server, *eventbus.Bus) {
	t.Helper()
	repo, err := repositoryimpl.NewSQLiteRepository(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	bus := eventbus.New()
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	task.NewServer(repo, bus).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, bus
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func TestServerCreateAndGetTask(t *testing.T) {
	srv, bus := newTestServer(t)
	_, events := bus.Subscribe(4)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{
		"title":    "Write changelog",
		"priority": "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created task.Task
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, task.StatusPending, created.Status)
	assert.Equal(t, task.PriorityHigh, created.Priority)

	ev := <-events
	assert.Equal(t, eventbus.TypeTaskCreated, ev.Type)
	assert.Equal(t, created.ID, ev.TaskID)

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/tasks/%d", srv.URL, created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got task.Task
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, created.ID, got.ID)
}

func TestServerCreateTaskValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{
		"title":  "x",
		"status": "doing",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{
		"title":    "x",
		"priority": "asap",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{
		"description": "missing title",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerListTasks(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{
			"title": fmt.Sprintf("task %d", i),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{
		"title":  "finished task",
		"status": "done",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/tasks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tasks []*task.Task
	require.NoError(t, json.Unmarshal(body, &tasks))
	assert.Len(t, tasks, 4)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/tasks?status=done", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "finished task", tasks[0].Title)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/tasks?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/tasks?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/tasks?limit=2&skip=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &tasks))
	assert.Len(t, tasks, 2)
}

func TestServerUpdateTask(t *testing.T) {
	srv, bus := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{"title": "original"})
	var created task.Task
	require.NoError(t, json.Unmarshal(body, &created))

	_, events := bus.Subscribe(4)

	resp, body := doJSON(t, http.MethodPut, fmt.Sprintf("%s/tasks/%d", srv.URL, created.ID), map[string]any{
		"status": "in_progress",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated task.Task
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, task.StatusInProgress, updated.Status)
	// Unset fields keep their values.
	assert.Equal(t, "original", updated.Title)

	ev := <-events
	assert.Equal(t, eventbus.TypeTaskUpdated, ev.Type)

	resp, _ = doJSON(t, http.MethodPut, fmt.Sprintf("%s/tasks/%d", srv.URL, created.ID), map[string]any{
		"priority": "whenever",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/tasks/99999", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerDeleteTask(t *testing.T) {
	srv, bus := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{"title": "doomed"})
	var created task.Task
	require.NoError(t, json.Unmarshal(body, &created))

	_, events := bus.Subscribe(4)

	resp, body := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/tasks/%d", srv.URL, created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msg map[string]string
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Contains(t, msg["message"], "doomed")

	ev := <-events
	assert.Equal(t, eventbus.TypeTaskDeleted, ev.Type)
	assert.Equal(t, "doomed", ev.TaskTitle)

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/tasks/%d", srv.URL, created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerStats(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{"title": "a"})
	doJSON(t, http.MethodPost, srv.URL+"/tasks", map[string]any{"title": "b", "status": "done", "priority": "urgent"})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/tasks/stats/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats task.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 1, stats.ByStatus["pending"])
	assert.Equal(t, 1, stats.ByStatus["done"])
	assert.Equal(t, 1, stats.ByPriority["urgent"])
	assert.False(t, stats.Timestamp.IsZero())
}
