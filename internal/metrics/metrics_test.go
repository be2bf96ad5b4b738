package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	m := New()
	m.MessageSent()
	m.MessageSent()
	m.TaskRejected()
	m.SendFailed("missing_credentials")
	m.ProfileLookup("fallback")
	m.SetPending(3)

	if got := testutil.ToFloat64(m.sent); got != 2 {
		t.Errorf("sent = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rejected); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sendFailures.WithLabelValues("missing_credentials")); got != 1 {
		t.Errorf("send failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.pending); got != 3 {
		t.Errorf("pending = %v, want 3", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "replydesk_messages_sent_total 2") {
		t.Errorf("exposition missing sent counter:\n%s", rec.Body.String())
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.MessageSent()
	m.TaskRejected()
	m.SendFailed("x")
	m.ProfileLookup("x")
	m.SetPending(1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil Handler() status = %d, want 404", rec.Code)
	}
}
