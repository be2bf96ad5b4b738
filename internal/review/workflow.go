// Package review implements the operator review workflow: it loads tasks awaiting
// approval, prepares them for display, and applies the operator's send or reject
// decision with the delivery guarantees the task lifecycle requires.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/edgard/replydesk/internal/database"
	"github.com/edgard/replydesk/internal/gateway"
	"github.com/edgard/replydesk/internal/metrics"
)

var (
	// ErrEmptyResponse is returned when the operator submits a blank reply.
	ErrEmptyResponse = errors.New("response text is empty")
	// ErrNotRecorded is returned when a message was delivered but the Sent status could
	// not be stored. The task stays pending and must not be sent again blindly.
	ErrNotRecorded = errors.New("message delivered but status not recorded")
)

// Store is the subset of database.Store the workflow uses.
type Store interface {
	GetTask(ctx context.Context, taskID string) (*database.Task, error)
	ListTasksByStatus(ctx context.Context, status database.TaskStatus) ([]database.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status database.TaskStatus) error
	MarkTaskSent(ctx context.Context, taskID, sentText string) error
	SaveAdminResponse(ctx context.Context, taskID, text string) error
}

// Gateway is the messaging side of the workflow.
type Gateway interface {
	FetchProfile(ctx context.Context, userID string) gateway.Profile
	SendText(ctx context.Context, userID, text string) error
	ResetProfiles() int
}

// QueueItem is a pending task ready to render.
type QueueItem struct {
	Task        database.Task
	Profile     gateway.Profile
	DisplayText string
}

// Options configures a Workflow.
type Options struct {
	DiagnosticMarker string
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
}

// Workflow coordinates the queue and operator decisions. Actions are serialized:
// one is fully processed before the next starts.
type Workflow struct {
	mu      sync.Mutex
	store   Store
	gateway Gateway
	marker  string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewWorkflow creates a Workflow over store and gw.
func NewWorkflow(store Store, gw Gateway, opts Options) *Workflow {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	marker := opts.DiagnosticMarker
	if marker == "" {
		marker = DefaultDiagnosticMarker
	}
	return &Workflow{
		store:   store,
		gateway: gw,
		marker:  marker,
		metrics: opts.Metrics,
		logger:  logger.With("component", "review"),
	}
}

// ListPending returns all tasks awaiting approval in stored order.
func (w *Workflow) ListPending(ctx context.Context) ([]database.Task, error) {
	tasks, err := w.store.ListTasksByStatus(ctx, database.StatusAwaitingApproval)
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	w.metrics.SetPending(len(tasks))
	return tasks, nil
}

// DisplayText returns the default editable value for task.
func (w *Workflow) DisplayText(task database.Task) string {
	return DisplayText(task, w.marker)
}

// Queue lists pending tasks with their customer profile and display text.
func (w *Workflow) Queue(ctx context.Context) ([]QueueItem, error) {
	tasks, err := w.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, QueueItem{
			Task:        task,
			Profile:     w.gateway.FetchProfile(ctx, task.LineID),
			DisplayText: w.DisplayText(task),
		})
	}
	return items, nil
}

// Submit sends text to the task's customer and marks the task Sent. The status only
// changes after the gateway confirms delivery; on failure the task stays pending with
// the operator's text kept as its admin response.
func (w *Workflow) Submit(ctx context.Context, taskID, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	log := w.logger.With("task_id", taskID, "action", "submit")

	task, err := w.pendingTask(ctx, taskID)
	if err != nil {
		log.WarnContext(ctx, "Submit refused", "error", err)
		return err
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyResponse
	}

	log = log.With("user_id", task.LineID)
	if err := w.gateway.SendText(ctx, task.LineID, text); err != nil {
		log.ErrorContext(ctx, "Send failed, task left pending", "error", err)
		if saveErr := w.store.SaveAdminResponse(ctx, taskID, text); saveErr != nil {
			log.WarnContext(ctx, "Could not keep edited response", "error", saveErr)
		}
		return err
	}

	if err := w.store.MarkTaskSent(ctx, taskID, text); err != nil {
		log.ErrorContext(ctx, "Message delivered but status update failed", "error", err)
		return fmt.Errorf("%w: %w", ErrNotRecorded, err)
	}

	w.metrics.MessageSent()
	log.InfoContext(ctx, "Response sent and task marked Sent")
	return nil
}

// Reject marks the task Rejected. No message is sent.
func (w *Workflow) Reject(ctx context.Context, taskID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	log := w.logger.With("task_id", taskID, "action", "reject")

	if err := w.store.UpdateTaskStatus(ctx, taskID, database.StatusRejected); err != nil {
		log.WarnContext(ctx, "Reject failed", "error", err)
		return fmt.Errorf("reject task %s: %w", taskID, err)
	}

	w.metrics.TaskRejected()
	log.InfoContext(ctx, "Task rejected")
	return nil
}

// ResetProfiles clears memoized profiles, starting a new display session.
func (w *Workflow) ResetProfiles() int {
	n := w.gateway.ResetProfiles()
	w.logger.Info("Profile cache cleared", "entries", n)
	return n
}

func (w *Workflow) pendingTask(ctx context.Context, taskID string) (*database.Task, error) {
	task, err := w.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != database.StatusAwaitingApproval {
		return nil, fmt.Errorf("%w: %s is %s", database.ErrTaskNotPending, taskID, task.Status)
	}
	return task, nil
}
