package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policy-auditor/policy-auditor/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func write(err error, msgs Messages) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Error(c, err, msgs)
	return w
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		msgs       Messages
		wantStatus int
		wantMsg    string
	}{
		{"validation", &services.ValidationError{Message: "Only PDF files are supported."}, Messages{}, http.StatusBadRequest, "Only PDF files are supported."},
		{"account not found", services.ErrAccountNotFound, Messages{}, http.StatusForbidden, MsgAccountNotFound},
		{"account locked", fmt.Errorf("gate: %w", services.ErrAccountLocked), Messages{}, http.StatusForbidden, MsgAccountLocked},
		{"quota", &services.QuotaExceededError{Used: 1, Limit: 1}, Messages{}, http.StatusForbidden, "Daily audit limit reached (1 of 1 used). Your limit resets at 00:00 UTC."},
		{"not found default", services.ErrNotFound, Messages{}, http.StatusNotFound, "Not found"},
		{"not found override", services.ErrNotFound, Messages{NotFound: "Profile not found"}, http.StatusNotFound, "Profile not found"},
		{"conflict override", fmt.Errorf("x: %w", services.ErrConflict), Messages{Conflict: "A user with this email already exists"}, http.StatusConflict, "A user with this email already exists"},
		{"provisioning off", services.ErrProvisioningDisabled, Messages{}, http.StatusNotImplemented, MsgProvisioningOff},
		{"provider", &services.ProviderError{Stage: "generation", Err: errors.New("secret upstream detail")}, Messages{}, http.StatusInternalServerError, MsgProviderFailed},
		{"unknown", errors.New("pq: connection refused"), Messages{Internal: "Failed to fetch logs"}, http.StatusInternalServerError, "Failed to fetch logs"},
		{"unknown default", errors.New("boom"), Messages{}, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := write(tt.err, tt.msgs)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["error"])
		})
	}
}

func TestError_RateLimited(t *testing.T) {
	w := write(&services.RateLimitedError{Stage: "generation", Err: errors.New("429")}, Messages{})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), MsgRateLimited)
}

func TestError_QuotaBodyCarriesCounts(t *testing.T) {
	w := write(&services.QuotaExceededError{Used: 3, Limit: 2}, Messages{})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["usage_today"])
	assert.EqualValues(t, 2, body["daily_limit"])
}

func TestError_DetailNotLeaked(t *testing.T) {
	w := write(&services.ProviderError{Stage: "embedding", Err: errors.New("api key AIza-secret invalid")}, Messages{})
	assert.NotContains(t, w.Body.String(), "AIza-secret")
}
