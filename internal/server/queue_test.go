package server

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/edgard/replydesk/internal/config"
	"github.com/edgard/replydesk/internal/database"
	"github.com/edgard/replydesk/internal/gateway"
	"github.com/edgard/replydesk/internal/review"
)

const telegramToken = "123456:SECRET-BOT-TOKEN"

func TestQueuePageHidesTelegramToken(t *testing.T) {
	t.Parallel()

	tg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getChat"):
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":42,"type":"private","first_name":"Ana",`+
				`"photo":{"small_file_id":"small","small_file_unique_id":"s","big_file_id":"big","big_file_unique_id":"b"}}}`)
		case strings.HasSuffix(r.URL.Path, "/getFile"):
			_, _ = io.WriteString(w, `{"ok":true,"result":{"file_id":"small","file_unique_id":"s","file_path":"photos/1.jpg"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}))
	t.Cleanup(tg.Close)

	db, err := database.NewDB(database.DriverSQLite, filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, nil)

	ctx := context.Background()
	if err := store.SaveCredentials(ctx, &database.Credentials{
		UserID:             "42",
		Channel:            database.ChannelTelegram,
		ChannelAccessToken: telegramToken,
	}); err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}
	if err := store.CreateTask(ctx, &database.Task{
		TaskID:      "T1",
		LineID:      "42",
		UserMessage: "where is my order",
		AIResponse:  sql.NullString{String: "On its way", Valid: true},
		Status:      database.StatusAwaitingApproval,
		Timestamp:   time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	gw := gateway.New(store, nil, gateway.WithMessenger(database.ChannelTelegram,
		gateway.NewTelegramFactory(gateway.TelegramOptions{ServerURL: tg.URL})))
	h := New(review.NewWorkflow(store, gw, review.Options{}), store, Options{
		Messages:            config.DefaultMessages,
		PlaceholderImageURL: placeholder,
	}).Handler()

	rec := get(h, "/")
	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(body, "Ana") {
		t.Error("Telegram display name not rendered")
	}
	if strings.Contains(body, "SECRET-BOT-TOKEN") {
		t.Error("bot token rendered into the operator page")
	}
	if !strings.Contains(body, placeholder) {
		t.Error("placeholder picture not used for the Telegram customer")
	}
}
