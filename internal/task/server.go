package task

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"taskpilot/internal/eventbus"
	"taskpilot/pkg/cerr"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Server exposes the task REST API. Unlike the tool layer, the REST boundary
// rejects unknown enum values with a 400 instead of coercing them.
type Server struct {
	repo     Repository
	eventBus *eventbus.Bus
}

func NewServer(repo Repository, eventBus *eventbus.Bus) *Server {
	return &Server{
		repo:     repo,
		eventBus: eventBus,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/tasks", s.ListTasks)
	r.Post("/tasks", s.CreateTask)
	// Registered before /tasks/{id} so "stats" is never parsed as an id.
	r.Get("/tasks/stats/summary", s.GetStats)
	r.Get("/tasks/{taskID}", s.GetTask)
	r.Put("/tasks/{taskID}", s.UpdateTask)
	r.Delete("/tasks/{taskID}", s.DeleteTask)
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.Title == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "title is required", nil)
		return
	}

	status := StatusPending
	if req.Status != "" {
		var ok bool
		if status, ok = ParseStatus(req.Status); !ok {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid status: %s", req.Status), nil)
			return
		}
	}
	priority := PriorityMedium
	if req.Priority != "" {
		var ok bool
		if priority, ok = ParsePriority(req.Priority); !ok {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid priority: %s", req.Priority), nil)
			return
		}
	}

	t := &Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     req.DueDate,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeTaskCreated, t.ID, t.Title)
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, t)
}

func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseTaskID(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := Filter{Limit: defaultListLimit}
	if v := q.Get("status"); v != "" {
		status, ok := ParseStatus(v)
		if !ok {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid status: %s", v), nil)
			return
		}
		f.Status = status
	}
	if v := q.Get("priority"); v != "" {
		priority, ok := ParsePriority(v)
		if !ok {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid priority: %s", v), nil)
			return
		}
		f.Priority = priority
	}
	f.Search = q.Get("search")
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxListLimit {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid limit: %s", v), nil)
			return
		}
		f.Limit = limit
	}
	if v := q.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid skip: %s", v), nil)
			return
		}
		f.Offset = skip
	}

	tasks, err := s.repo.List(ctx, f)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	cerr.SetJSONResponse(ctx, tasks)
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseTaskID(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		status, ok := ParseStatus(*req.Status)
		if !ok {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid status: %s", *req.Status), nil)
			return
		}
		t.Status = status
	}
	if req.Priority != nil {
		priority, ok := ParsePriority(*req.Priority)
		if !ok {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid priority: %s", *req.Priority), nil)
			return
		}
		t.Priority = priority
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}

	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeTaskUpdated, t.ID, t.Title)
	cerr.SetJSONResponse(ctx, t)
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseTaskID(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.TypeTaskDeleted, t.ID, t.Title)
	cerr.SetJSONResponse(ctx, map[string]string{
		"message": fmt.Sprintf("Task '%s' deleted successfully", t.Title),
	})
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.repo.Stats(ctx, time.Now().UTC())
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, stats)
}

func parseTaskID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "taskID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid task id: %s", raw), err)
	}
	return id, nil
}
