// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	catalystwan "github.com/netascode/go-catalystwan"
)

// Task polling defaults
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 30 * time.Minute
)

// Task statuses reported per device
var (
	TaskSuccessStatuses = []string{
		"Success",
		"Done - Scheduled",
		"Done - Push Feature Template Configuration",
		"Validation success",
	}
	TaskFailureStatuses = []string{"Failure", "Failed"}
)

// ErrTaskTimeout is returned when a task does not complete within the poll timeout
var ErrTaskTimeout = errors.New("task did not complete in time")

// errTaskPending keeps the poll loop going
var errTaskPending = errors.New("task pending")

// SubTaskData is the status of a task on one device
type SubTaskData struct {
	Status     string   `json:"status"`
	StatusID   string   `json:"statusId"`
	Action     string   `json:"action"`
	Activity   []string `json:"activity"`
	HostName   string   `json:"host-name"`
	DeviceIP   string   `json:"deviceIP"`
	DeviceType string   `json:"deviceType"`
	UUID       string   `json:"uuid"`
}

// TaskSummary aggregates device statuses
type TaskSummary struct {
	Action string         `json:"action"`
	Name   string         `json:"name"`
	Status string         `json:"status"`
	Count  map[string]int `json:"count"`
}

// TaskData is the "/device/action/status/{taskId}" response
type TaskData struct {
	Data    []SubTaskData `json:"data"`
	Summary TaskSummary   `json:"summary"`
}

// Completed reports whether the task has finished on every device
func (d TaskData) Completed() bool {
	if strings.EqualFold(d.Summary.Status, "done") {
		return true
	}
	if len(d.Data) == 0 {
		return false
	}
	for _, sub := range d.Data {
		if !slices.Contains(TaskSuccessStatuses, sub.Status) && !slices.Contains(TaskFailureStatuses, sub.Status) {
			return false
		}
	}
	return true
}

// Failed returns the per-device entries that ended in a failure status
func (d TaskData) Failed() []SubTaskData {
	var out []SubTaskData
	for _, sub := range d.Data {
		if slices.Contains(TaskFailureStatuses, sub.Status) {
			out = append(out, sub)
		}
	}
	return out
}

// failureCount combines the summary counters with per-device statuses
func (d TaskData) failureCount() int {
	n := 0
	for _, status := range TaskFailureStatuses {
		n += d.Summary.Count[status]
	}
	if f := len(d.Failed()); f > n {
		n = f
	}
	return n
}

// TaskFailedError is returned when a task finished with failures
type TaskFailedError struct {
	TaskID string
	Failed []SubTaskData
	Count  int
}

// Error implements the error interface
func (e *TaskFailedError) Error() string {
	hosts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		name := f.HostName
		if name == "" {
			name = f.UUID
		}
		hosts = append(hosts, name)
	}
	if len(hosts) == 0 {
		return fmt.Sprintf("task %s failed on %d device(s)", e.TaskID, e.Count)
	}
	return fmt.Sprintf("task %s failed on %d device(s): %s", e.TaskID, e.Count, strings.Join(hosts, ", "))
}

// GetTaskStatus reads the status of an asynchronous action
var GetTaskStatus = register(catalystwan.NewEndpoint("TaskStatus", "GetTaskStatus",
	http.MethodGet, "/device/action/status/{taskId}",
	catalystwan.Returns[TaskData](),
	catalystwan.PathArgs("taskId")))

// Tasks creates task handles for asynchronous actions
type Tasks struct {
	client *catalystwan.Client
}

// Get returns a handle for an existing task ID
func (api *Tasks) Get(id string) *Task {
	return NewTask(api.client, id)
}

// Task is an asynchronous controller action
type Task struct {
	ID     string
	client *catalystwan.Client
}

// NewTask creates a handle for the task with the given ID
func NewTask(client *catalystwan.Client, id string) *Task {
	return &Task{ID: id, client: client}
}

// Status returns the current task status
func (t *Task) Status(ctx context.Context) (TaskData, error) {
	return catalystwan.Call[TaskData](ctx, t.client, GetTaskStatus, catalystwan.Input{
		Path: map[string]string{"taskId": t.ID},
	})
}

type waitConfig struct {
	interval time.Duration
	timeout  time.Duration
}

// WaitOption configures Task.Wait
type WaitOption func(*waitConfig)

// PollInterval sets the delay between status checks (default: 5s)
func PollInterval(d time.Duration) WaitOption {
	return func(c *waitConfig) {
		if d > 0 {
			c.interval = d
		}
	}
}

// PollTimeout sets how long to wait for completion (default: 30m)
func PollTimeout(d time.Duration) WaitOption {
	return func(c *waitConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Wait polls the task until it completes, the poll timeout expires or ctx
// ends.
//
// Returns *TaskFailedError when any device reports a failure, and an error
// wrapping ErrTaskTimeout when the task is still running at the timeout.
//
// Example:
//
//	task, err := api.TenantManagement.Create(ctx, tenants)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := task.Wait(ctx, endpoints.PollInterval(10*time.Second)); err != nil {
//	    log.Fatal(err)
//	}
func (t *Task) Wait(ctx context.Context, opts ...WaitOption) (TaskData, error) {
	if t.ID == "" {
		return TaskData{}, fmt.Errorf("task ID cannot be empty")
	}
	cfg := waitConfig{interval: DefaultPollInterval, timeout: DefaultPollTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.interval
	b.MaxInterval = cfg.interval
	b.Multiplier = 1
	b.RandomizationFactor = 0
	b.MaxElapsedTime = cfg.timeout
	b.Reset()

	logger := t.client.Logger()
	var result TaskData
	poll := func() error {
		data, err := t.Status(ctx)
		if err != nil {
			var apiErr *catalystwan.APIError
			if ctx.Err() == nil && !errors.Is(err, catalystwan.ErrNoSession) &&
				errors.As(err, &apiErr) && (apiErr.IsTransient || apiErr.StatusCode == 0) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = data
		if !data.Completed() {
			return errTaskPending
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		if errors.Is(err, errTaskPending) {
			logger.Debug(ctx, "task in progress",
				"task", t.ID,
				"status", result.Summary.Status,
				"next_poll", next.String())
			return
		}
		logger.Warn(ctx, "task status poll failed, retrying",
			"task", t.ID,
			"error", err.Error(),
			"next_poll", next.String())
	}

	if err := backoff.RetryNotify(poll, backoff.WithContext(b, ctx), notify); err != nil {
		if errors.Is(err, errTaskPending) {
			return result, fmt.Errorf("task %s: %w after %s", t.ID, ErrTaskTimeout, cfg.timeout)
		}
		return result, err
	}

	if n := result.failureCount(); n > 0 {
		return result, &TaskFailedError{TaskID: t.ID, Failed: result.Failed(), Count: n}
	}
	logger.Info(ctx, "task completed",
		"task", t.ID,
		"devices", len(result.Data))
	return result, nil
}
