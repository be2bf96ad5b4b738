package database_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgard/replydesk/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func seedTask(t *testing.T, store database.Store, id, userID string, status database.TaskStatus, ts time.Time) {
	t.Helper()

	task := &database.Task{
		TaskID:      id,
		LineID:      userID,
		UserMessage: "message " + id,
		AIResponse:  sql.NullString{String: "draft " + id, Valid: true},
		Status:      status,
		Timestamp:   ts,
	}
	if err := store.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask(%s) error = %v", id, err)
	}
}

func TestListTasksByStatus(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	seedTask(t, store, "T2", "U1", database.StatusAwaitingApproval, base.Add(time.Minute))
	seedTask(t, store, "T1", "U1", database.StatusAwaitingApproval, base)
	seedTask(t, store, "T3", "U2", database.StatusSent, base)
	seedTask(t, store, "T4", "U2", database.StatusRejected, base)

	pending, err := store.ListTasksByStatus(ctx, database.StatusAwaitingApproval)
	if err != nil {
		t.Fatalf("ListTasksByStatus() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("ListTasksByStatus() returned %d tasks, want 2", len(pending))
	}
	if pending[0].TaskID != "T1" || pending[1].TaskID != "T2" {
		t.Errorf("ListTasksByStatus() order = [%s %s], want [T1 T2]", pending[0].TaskID, pending[1].TaskID)
	}
	for _, task := range pending {
		if task.Status != database.StatusAwaitingApproval {
			t.Errorf("task %s has status %s in pending list", task.TaskID, task.Status)
		}
	}

	count, err := store.CountTasksByStatus(ctx, database.StatusAwaitingApproval)
	if err != nil {
		t.Fatalf("CountTasksByStatus() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountTasksByStatus() = %d, want 2", count)
	}

	empty, err := store.ListTasksByStatus(ctx, database.TaskStatus("Unknown"))
	if err == nil {
		t.Errorf("ListTasksByStatus(Unknown) = %v, want error", empty)
	}
}

func TestTaskTransitions(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedTask(t, store, "T1", "U1", database.StatusAwaitingApproval, now)
	seedTask(t, store, "T2", "U1", database.StatusAwaitingApproval, now)

	if err := store.MarkTaskSent(ctx, "T1", "final reply"); err != nil {
		t.Fatalf("MarkTaskSent() error = %v", err)
	}
	task, err := store.GetTask(ctx, "T1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status != database.StatusSent {
		t.Errorf("status = %s, want %s", task.Status, database.StatusSent)
	}
	if task.AdminResponse.String != "final reply" {
		t.Errorf("admin_response = %q, want %q", task.AdminResponse.String, "final reply")
	}

	if err := store.UpdateTaskStatus(ctx, "T2", database.StatusRejected); err != nil {
		t.Fatalf("UpdateTaskStatus() error = %v", err)
	}

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name:    "sent task cannot be rejected",
			run:     func() error { return store.UpdateTaskStatus(ctx, "T1", database.StatusRejected) },
			wantErr: database.ErrTaskNotPending,
		},
		{
			name:    "rejected task cannot be sent",
			run:     func() error { return store.MarkTaskSent(ctx, "T2", "late") },
			wantErr: database.ErrTaskNotPending,
		},
		{
			name:    "resolved task keeps its response",
			run:     func() error { return store.SaveAdminResponse(ctx, "T1", "edit") },
			wantErr: database.ErrTaskNotPending,
		},
		{
			name:    "unknown task",
			run:     func() error { return store.UpdateTaskStatus(ctx, "missing", database.StatusRejected) },
			wantErr: database.ErrTaskNotFound,
		},
	}
	for _, tt := range tests {
		if err := tt.run(); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}

	if err := store.UpdateTaskStatus(ctx, "T1", database.StatusAwaitingApproval); err == nil {
		t.Error("UpdateTaskStatus(Awaiting_Approval) succeeded, want error")
	}

	if _, err := store.GetTask(ctx, "missing"); !errors.Is(err, database.ErrTaskNotFound) {
		t.Errorf("GetTask(missing) error = %v, want ErrTaskNotFound", err)
	}
}

func TestSaveAdminResponse(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	seedTask(t, store, "T1", "U1", database.StatusAwaitingApproval, time.Now().UTC())

	if err := store.SaveAdminResponse(ctx, "T1", "operator edit"); err != nil {
		t.Fatalf("SaveAdminResponse() error = %v", err)
	}

	task, err := store.GetTask(ctx, "T1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status != database.StatusAwaitingApproval {
		t.Errorf("status = %s, want %s", task.Status, database.StatusAwaitingApproval)
	}
	if !task.AdminResponse.Valid || task.AdminResponse.String != "operator edit" {
		t.Errorf("admin_response = %+v, want %q", task.AdminResponse, "operator edit")
	}
}

func TestCredentials(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	creds, err := store.GetCredentials(ctx, "U2")
	if err != nil {
		t.Fatalf("GetCredentials() error = %v", err)
	}
	if creds != nil {
		t.Fatalf("GetCredentials() = %+v, want nil for absent user", creds)
	}

	if err := store.SaveCredentials(ctx, &database.Credentials{UserID: "U3", ChannelAccessToken: "token-1"}); err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}
	if err := store.SaveCredentials(ctx, &database.Credentials{
		UserID:             "U3",
		Channel:            database.ChannelTelegram,
		ChannelAccessToken: "token-2",
	}); err != nil {
		t.Fatalf("SaveCredentials() upsert error = %v", err)
	}

	creds, err = store.GetCredentials(ctx, "U3")
	if err != nil {
		t.Fatalf("GetCredentials() error = %v", err)
	}
	if creds == nil {
		t.Fatal("GetCredentials() = nil, want credentials")
	}
	if creds.ChannelAccessToken != "token-2" || creds.Channel != database.ChannelTelegram {
		t.Errorf("GetCredentials() = %+v, want telegram/token-2", creds)
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.RunSQLMaintenance(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("RunSQLMaintenance(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"storage.db":                      "storage.db",
		"file:storage.db?_journal=WAL":    "storage.db",
		"file:/tmp/my%20db.sqlite?mode=rw": "/tmp/my db.sqlite",
	}
	for in, want := range tests {
		if got := database.ExtractDBNameFromPath(in); got != want {
			t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
