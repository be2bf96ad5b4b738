// Package server exposes the operator review queue over HTTP.
package server

import (
	"context"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edgard/replydesk/internal/config"
	"github.com/edgard/replydesk/internal/database"
	"github.com/edgard/replydesk/internal/gateway"
	"github.com/edgard/replydesk/internal/logger"
	"github.com/edgard/replydesk/internal/metrics"
	"github.com/edgard/replydesk/internal/review"
)

const (
	noticeSent     = "sent"
	noticeRejected = "rejected"

	healthTimeout = 3 * time.Second
)

// Reviewer is the review workflow driven by the operator pages.
type Reviewer interface {
	Queue(ctx context.Context) ([]review.QueueItem, error)
	Submit(ctx context.Context, taskID, text string) error
	Reject(ctx context.Context, taskID string) error
	ResetProfiles() int
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the Server.
type Options struct {
	Messages            config.MessagesConfig
	PlaceholderImageURL string
	AdminUser           string
	AdminPassword       string
	Metrics             *metrics.Metrics
	Logger              *slog.Logger
}

// Server renders the review queue and applies operator decisions.
type Server struct {
	reviewer Reviewer
	pinger   Pinger
	opts     Options
	tmpl     *template.Template
	logger   *slog.Logger
}

type itemView struct {
	TaskID      string
	UserID      string
	Name        string
	Picture     string
	Timestamp   string
	UserMessage string
	Text        string
	// Delivered hides the send buttons of a task whose reply already reached the customer.
	Delivered   bool
}

type pageData struct {
	Messages config.MessagesConfig
	Notice   string
	Error    string
	FailedID string
	Items    []itemView
}

// New creates a Server.
func New(reviewer Reviewer, pinger Pinger, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		reviewer: reviewer,
		pinger:   pinger,
		opts:     opts,
		tmpl:     template.Must(template.New("page").Parse(pageTemplate)),
		logger:   log.With("component", "server"),
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.opts.AdminUser != "" {
			r.Use(middleware.BasicAuth("replydesk", map[string]string{
				s.opts.AdminUser: s.opts.AdminPassword,
			}))
		}
		r.Get("/", s.handleQueue)
		r.Post("/tasks/{taskID}/send", s.handleSend)
		r.Post("/tasks/{taskID}/reject", s.handleReject)
		r.Post("/profiles/refresh", s.handleRefresh)
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	data := pageData{}
	switch r.URL.Query().Get("notice") {
	case noticeSent:
		data.Notice = s.opts.Messages.Sent
	case noticeRejected:
		data.Notice = s.opts.Messages.Rejected
	}
	s.render(w, r, data, nil)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	text := strings.ReplaceAll(r.FormValue("response"), "\r\n", "\n")
	action := r.FormValue("action")

	err := s.reviewer.Submit(r.Context(), taskID, text)
	if err == nil {
		http.Redirect(w, r, "/?notice="+noticeSent, http.StatusSeeOther)
		return
	}

	s.logger.WarnContext(r.Context(), "Send action failed", "task_id", taskID, "action", action, "error", err)
	s.render(w, r, pageData{}, &failure{taskID: taskID, text: text, keepText: true, err: err})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	if err := s.reviewer.Reject(r.Context(), taskID); err != nil {
		s.logger.WarnContext(r.Context(), "Reject action failed", "task_id", taskID, "error", err)
		s.render(w, r, pageData{}, &failure{taskID: taskID, err: err})
		return
	}
	http.Redirect(w, r, "/?notice="+noticeRejected, http.StatusSeeOther)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.reviewer.ResetProfiles()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// failure is an operator action that did not go through.
type failure struct {
	taskID   string
	text     string
	keepText bool
	err      error
}

// render lists the queue and writes the page. On failure the failed task keeps the
// operator's text and the error is shown above the queue.
func (s *Server) render(w http.ResponseWriter, r *http.Request, data pageData, f *failure) {
	items, err := s.reviewer.Queue(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load queue", "error", err)
		http.Error(w, s.opts.Messages.GeneralError, http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	var failedUser string

	data.Messages = s.opts.Messages
	data.Items = make([]itemView, 0, len(items))
	for _, item := range items {
		view := itemView{
			TaskID:      item.Task.TaskID,
			UserID:      item.Task.LineID,
			Name:        item.Profile.DisplayName,
			Picture:     item.Profile.PictureURL,
			Timestamp:   item.Task.Timestamp.Format(time.DateTime),
			UserMessage: item.Task.UserMessage,
			Text:        item.DisplayText,
		}
		if view.Picture == "" {
			view.Picture = s.opts.PlaceholderImageURL
		}
		if f != nil && view.TaskID == f.taskID {
			failedUser = view.UserID
			if f.keepText {
				view.Text = f.text
			}
			view.Delivered = errors.Is(f.err, review.ErrNotRecorded)
		}
		data.Items = append(data.Items, view)
	}

	if f != nil {
		status, data.Error = s.describe(f.err, failedUser)
		data.FailedID = f.taskID
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to render page", "error", err)
	}
}

// describe maps a workflow error to a response status and operator message.
func (s *Server) describe(err error, userID string) (int, string) {
	m := s.opts.Messages
	switch {
	case errors.Is(err, review.ErrEmptyResponse):
		return http.StatusUnprocessableEntity, m.EmptyResponse
	case errors.Is(err, database.ErrTaskNotFound), errors.Is(err, database.ErrTaskNotPending):
		return http.StatusConflict, m.NotPending
	case errors.Is(err, gateway.ErrMissingCredentials):
		return http.StatusUnprocessableEntity, strings.ReplaceAll(m.MissingCredentials, config.UserIDPlaceholder, userID)
	case errors.Is(err, review.ErrNotRecorded):
		return http.StatusInternalServerError, m.NotRecorded
	case errors.Is(err, gateway.ErrSendFailed):
		return http.StatusBadGateway, m.SendFailed
	default:
		return http.StatusInternalServerError, m.GeneralError
	}
}
