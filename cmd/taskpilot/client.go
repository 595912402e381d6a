package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"taskpilot/internal/task"
)

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *client) do(method, path string, query url.Values, body, out any) error {
	u := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) ListTasks(status, priority, search string, limit int) ([]*task.Task, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if priority != "" {
		q.Set("priority", priority)
	}
	if search != "" {
		q.Set("search", search)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var tasks []*task.Task
	if err := c.do(http.MethodGet, "/tasks", q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *client) CreateTask(req *task.CreateTaskRequest) (*task.Task, error) {
	var created task.Task
	if err := c.do(http.MethodPost, "/tasks", nil, req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *client) GetTask(id int64) (*task.Task, error) {
	var t task.Task
	if err := c.do(http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *client) UpdateTask(id int64, req *task.UpdateTaskRequest) (*task.Task, error) {
	var t task.Task
	if err := c.do(http.MethodPut, fmt.Sprintf("/tasks/%d", id), nil, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *client) DeleteTask(id int64) (string, error) {
	var resp map[string]string
	if err := c.do(http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil, &resp); err != nil {
		return "", err
	}
	return resp["message"], nil
}

func (c *client) Stats() (*task.Stats, error) {
	var stats task.Stats
	if err := c.do(http.MethodGet, "/tasks/stats/summary", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
