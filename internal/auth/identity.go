package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/policy-auditor/policy-auditor/internal/config"
)

// ErrAlreadyRegistered is returned when the identity provider already has a user with the email
var ErrAlreadyRegistered = errors.New("user already registered")

// IdentityAdmin calls the identity provider's admin REST API with the
// service key. It speaks the GoTrue admin dialect.
type IdentityAdmin struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewIdentityAdmin creates an admin client. It returns nil when no admin URL
// or service key is configured, which disables provisioning.
func NewIdentityAdmin(cfg *config.IdentityConfig) *IdentityAdmin {
	if cfg.AdminURL == "" || cfg.ServiceKey == "" {
		return nil
	}
	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.ServiceKey,
		TokenType:   "Bearer",
	}))
	client.Timeout = 15 * time.Second
	return &IdentityAdmin{
		baseURL:    strings.TrimRight(cfg.AdminURL, "/"),
		serviceKey: cfg.ServiceKey,
		client:     client,
	}
}

type adminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type adminError struct {
	Msg       string `json:"msg"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

func (e adminError) text() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Message
}

// CreateUser creates a confirmed user and returns its id
func (a *IdentityAdmin) CreateUser(ctx context.Context, email, password string) (string, error) {
	body := map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	}
	var user adminUser
	if err := a.do(ctx, http.MethodPost, "/admin/users", body, &user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("identity provider returned no user id")
	}
	return user.ID, nil
}

// UpdatePassword replaces a user's password
func (a *IdentityAdmin) UpdatePassword(ctx context.Context, userID, password string) error {
	return a.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(userID), map[string]string{"password": password}, nil)
}

func (a *IdentityAdmin) do(ctx context.Context, method, path string, in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", a.serviceKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity admin request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read identity admin response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var e adminError
		_ = json.Unmarshal(raw, &e)
		msg := e.text()
		if e.ErrorCode == "email_exists" || strings.Contains(strings.ToLower(msg), "already") {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, msg)
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("identity admin returned %d: %s", resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode identity admin response: %w", err)
		}
	}
	return nil
}
