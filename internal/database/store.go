package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrTaskNotFound is returned when no task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskNotPending is returned when a transition is attempted on a resolved task.
	ErrTaskNotPending = errors.New("task is no longer awaiting approval")
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateTask inserts a new task. Used by the upstream producer.
	CreateTask(ctx context.Context, task *Task) error

	// GetTask retrieves a task by id. Returns ErrTaskNotFound if it does not exist.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// ListTasksByStatus returns tasks with the given status in stored order.
	ListTasksByStatus(ctx context.Context, status TaskStatus) ([]Task, error)

	// CountTasksByStatus returns the number of tasks with the given status.
	CountTasksByStatus(ctx context.Context, status TaskStatus) (int, error)

	// UpdateTaskStatus moves a pending task to a terminal status.
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus) error

	// MarkTaskSent moves a pending task to Sent and records the delivered text.
	MarkTaskSent(ctx context.Context, taskID, sentText string) error

	// SaveAdminResponse stores the operator's edit on a pending task without changing its status.
	SaveAdminResponse(ctx context.Context, taskID, text string) error

	// GetCredentials returns the channel credentials for a user. Returns nil, nil if not found.
	GetCredentials(ctx context.Context, userID string) (*Credentials, error)

	// SaveCredentials inserts or replaces the channel credentials for a user.
	SaveCredentials(ctx context.Context, creds *Credentials) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("cannot save nil task")
	}
	if task.TaskID == "" {
		return fmt.Errorf("task must have a non-empty task_id")
	}
	if task.LineID == "" {
		return fmt.Errorf("task must have a non-empty line_id")
	}
	if task.Status == "" {
		task.Status = StatusAwaitingApproval
	}
	if !task.Status.Valid() {
		return fmt.Errorf("task has unknown status %q", task.Status)
	}
	if task.Timestamp.IsZero() {
		task.Timestamp = time.Now().UTC()
	}

	query := `
        INSERT INTO tasks (task_id, line_id, user_message, ai_response, admin_response, status, "timestamp")
        VALUES (:task_id, :line_id, :user_message, :ai_response, :admin_response, :status, :timestamp);
    `
	if _, err := s.db.NamedExecContext(ctx, query, task); err != nil {
		s.logger.ErrorContext(ctx, "Error saving task", "task_id", task.TaskID, "error", err)
		return fmt.Errorf("failed to save task %s: %w", task.TaskID, err)
	}

	s.logger.DebugContext(ctx, "Task saved successfully", "task_id", task.TaskID, "status", task.Status)
	return nil
}

func (s *sqlxStore) GetTask(ctx context.Context, taskID string) (*Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task_id cannot be empty")
	}

	var task Task
	query := s.db.Rebind(`
        SELECT task_id, line_id, user_message, ai_response, admin_response, status, "timestamp"
        FROM tasks WHERE task_id = ?;
    `)
	err := s.db.GetContext(ctx, &task, query, taskID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching task", "task_id", taskID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting task", "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}

	return &task, nil
}

func (s *sqlxStore) ListTasksByStatus(ctx context.Context, status TaskStatus) ([]Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown task status %q", status)
	}

	tasks := []Task{}
	query := s.db.Rebind(`
        SELECT task_id, line_id, user_message, ai_response, admin_response, status, "timestamp"
        FROM tasks
        WHERE status = ?
        ORDER BY "timestamp" ASC, task_id ASC;
    `)

	s.logger.DebugContext(ctx, "Fetching tasks", "status", status)
	err := s.db.SelectContext(ctx, &tasks, query, status)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching tasks", "status", status, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing tasks", "status", status, "error", err)
		return nil, fmt.Errorf("failed to list tasks with status %s: %w", status, err)
	}

	s.logger.DebugContext(ctx, "Fetched tasks successfully", "status", status, "count", len(tasks))
	return tasks, nil
}

func (s *sqlxStore) CountTasksByStatus(ctx context.Context, status TaskStatus) (int, error) {
	var count int
	query := s.db.Rebind(`SELECT COUNT(*) FROM tasks WHERE status = ?;`)
	if err := s.db.GetContext(ctx, &count, query, status); err != nil {
		s.logger.ErrorContext(ctx, "Error counting tasks", "status", status, "error", err)
		return 0, fmt.Errorf("failed to count tasks with status %s: %w", status, err)
	}
	return count, nil
}

func (s *sqlxStore) UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("cannot move task %s to non-terminal status %q", taskID, status)
	}
	return s.transition(ctx, taskID, status, sql.NullString{})
}

func (s *sqlxStore) MarkTaskSent(ctx context.Context, taskID, sentText string) error {
	return s.transition(ctx, taskID, StatusSent, sql.NullString{String: sentText, Valid: true})
}

// transition applies a one-way status change guarded on the task still being pending.
// When response is valid it replaces admin_response in the same statement.
func (s *sqlxStore) transition(ctx context.Context, taskID string, status TaskStatus, response sql.NullString) error {
	if taskID == "" {
		return fmt.Errorf("task_id cannot be empty")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for status update", "task_id", taskID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	query := tx.Rebind(`
        UPDATE tasks
        SET status = ?, admin_response = COALESCE(?, admin_response)
        WHERE task_id = ? AND status = ?;
    `)
	result, err := tx.ExecContext(ctx, query, status, response, taskID, StatusAwaitingApproval)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating task status", "task_id", taskID, "status", status, "error", err)
		return fmt.Errorf("failed to update status of task %s: %w", taskID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for task %s: %w", taskID, err)
	}
	if affected == 0 {
		return s.explainMissedUpdate(ctx, tx, taskID)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "task_id", taskID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Task status updated", "task_id", taskID, "status", status)
	return nil
}

func (s *sqlxStore) SaveAdminResponse(ctx context.Context, taskID, text string) error {
	if taskID == "" {
		return fmt.Errorf("task_id cannot be empty")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	query := tx.Rebind(`UPDATE tasks SET admin_response = ? WHERE task_id = ? AND status = ?;`)
	result, err := tx.ExecContext(ctx, query, text, taskID, StatusAwaitingApproval)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving admin response", "task_id", taskID, "error", err)
		return fmt.Errorf("failed to save admin response for task %s: %w", taskID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return s.explainMissedUpdate(ctx, tx, taskID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Admin response saved", "task_id", taskID, "length", len(text))
	return nil
}

// explainMissedUpdate distinguishes an unknown task from a resolved one after a guarded
// update matched no rows.
func (s *sqlxStore) explainMissedUpdate(ctx context.Context, tx *sqlx.Tx, taskID string) error {
	var current TaskStatus
	err := tx.GetContext(ctx, &current, tx.Rebind(`SELECT status FROM tasks WHERE task_id = ?;`), taskID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	case err != nil:
		return fmt.Errorf("failed to read status of task %s: %w", taskID, err)
	}
	s.logger.WarnContext(ctx, "Refusing transition of resolved task", "task_id", taskID, "current_status", current)
	return fmt.Errorf("%w: %s is %s", ErrTaskNotPending, taskID, current)
}

func (s *sqlxStore) GetCredentials(ctx context.Context, userID string) (*Credentials, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}

	var creds Credentials
	query := s.db.Rebind(`
        SELECT user_id, channel, channel_access_token, updated_at
        FROM channel_credentials WHERE user_id = ?;
    `)
	err := s.db.GetContext(ctx, &creds, query, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Absent credentials are an expected outcome
		s.logger.DebugContext(ctx, "No credentials found", "user_id", userID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching credentials", "user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting credentials", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get credentials for user %s: %w", userID, err)
	}

	return &creds, nil
}

func (s *sqlxStore) SaveCredentials(ctx context.Context, creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("cannot save nil credentials")
	}
	if creds.UserID == "" || creds.ChannelAccessToken == "" {
		return fmt.Errorf("credentials must have user_id and channel_access_token")
	}
	if creds.Channel == "" {
		creds.Channel = ChannelLine
	}
	creds.UpdatedAt = time.Now().UTC()

	query := `
        INSERT INTO channel_credentials (user_id, channel, channel_access_token, updated_at)
        VALUES (:user_id, :channel, :channel_access_token, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET
            channel = excluded.channel,
            channel_access_token = excluded.channel_access_token,
            updated_at = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, creds); err != nil {
		s.logger.ErrorContext(ctx, "Error saving credentials", "user_id", creds.UserID, "error", err)
		return fmt.Errorf("failed to save credentials for user %s: %w", creds.UserID, err)
	}

	s.logger.DebugContext(ctx, "Credentials saved", "user_id", creds.UserID, "channel", creds.Channel)
	return nil
}

// RunSQLMaintenance executes VACUUM on SQLite or ANALYZE on Postgres.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	stmt := "VACUUM;"
	if s.db.DriverName() == DriverPostgres {
		stmt = "ANALYZE;"
	}

	s.logger.InfoContext(ctx, "Starting database maintenance", "statement", stmt)

	// Must run outside a transaction
	_, err := s.db.ExecContext(ctx, stmt)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Database maintenance timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to execute %s: %w", stmt, err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed successfully")
	return nil
}
