package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func serveRequestID(header string) (*httptest.ResponseRecorder, string) {
	var seen string
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString(RequestIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestRequestIDMiddleware_Generates(t *testing.T) {
	w, seen := serveRequestID("")
	id := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Request-ID = %q, want a UUID", id)
	}
	if seen != id {
		t.Errorf("context id = %q, want %q", seen, id)
	}
}

func TestRequestIDMiddleware_ReusesInbound(t *testing.T) {
	w, seen := serveRequestID("lb-trace-123")
	if got := w.Header().Get(RequestIDHeader); got != "lb-trace-123" {
		t.Errorf("X-Request-ID = %q, want lb-trace-123", got)
	}
	if seen != "lb-trace-123" {
		t.Errorf("context id = %q, want lb-trace-123", seen)
	}
}

func TestRequestIDMiddleware_ReplacesOversized(t *testing.T) {
	w, _ := serveRequestID(strings.Repeat("a", 200))
	if got := w.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("X-Request-ID length = %d, want a fresh UUID", len(got))
	}
}

func TestRequestIDMiddleware_Unique(t *testing.T) {
	a, _ := serveRequestID("")
	b, _ := serveRequestID("")
	if a.Header().Get(RequestIDHeader) == b.Header().Get(RequestIDHeader) {
		t.Error("two requests got the same generated id")
	}
}
