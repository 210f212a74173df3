package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerPassesResponseThrough(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "success", status: http.StatusOK, body: "ok"},
		{name: "client error", status: http.StatusBadRequest, body: "bad request"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			Logger(zap.NewNop())(handler).ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			if w.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, w.Body.String())
			}
		})
	}
}

func TestResponseWriterCapturesFirstStatus(t *testing.T) {
	wrapped := wrapResponseWriter(httptest.NewRecorder())

	if wrapped.Status() != 0 {
		t.Errorf("expected initial status 0, got %d", wrapped.Status())
	}

	wrapped.WriteHeader(http.StatusAccepted)
	if wrapped.Status() != http.StatusAccepted {
		t.Errorf("expected status %d, got %d", http.StatusAccepted, wrapped.Status())
	}

	// A second WriteHeader must not overwrite the captured status
	wrapped.WriteHeader(http.StatusTeapot)
	if wrapped.Status() != http.StatusAccepted {
		t.Errorf("expected status to stay %d, got %d", http.StatusAccepted, wrapped.Status())
	}
}

func TestResponseWriterHijackUnsupported(t *testing.T) {
	wrapped := wrapResponseWriter(httptest.NewRecorder())

	if _, _, err := wrapped.Hijack(); err == nil {
		t.Error("expected an error hijacking a recorder")
	}
}
