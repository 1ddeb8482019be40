// Package services holds the audit pipeline and the account, ingestion and
// stats operations behind the HTTP handlers. Errors returned from this
// package are typed so handlers can tell business-rule rejections from
// infrastructure faults without parsing messages.
package services

import (
	"errors"
	"fmt"
)

// Account errors. A soft-deleted profile reports ErrAccountNotFound so
// deletion status is not revealed.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountLocked   = errors.New("account locked")
)

// ErrNotFound is returned by admin operations targeting a missing row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a create collides with an existing record.
var ErrConflict = errors.New("already exists")

// ErrProvisioningDisabled is returned when no identity admin API is configured.
var ErrProvisioningDisabled = errors.New("user provisioning is not configured")

// QuotaExceededError reports a user at or over their daily audit limit
type QuotaExceededError struct {
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily audit limit reached: %d of %d used", e.Used, e.Limit)
}

// ValidationError is a client error whose message is safe to return verbatim
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// RateLimitedError reports that an upstream provider signalled a rate limit
type RateLimitedError struct {
	Stage string
	Err   error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s provider rate limited: %v", e.Stage, e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// ProviderError reports an upstream embedding or generation failure. Its
// detail is for logs only.
type ProviderError struct {
	Stage string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func invalid(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}
