package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/policy-auditor/policy-auditor/internal/db/models"
	"github.com/policy-auditor/policy-auditor/internal/db/repositories"
)

// AccessRequestStore persists the waiting list
type AccessRequestStore interface {
	Create(ctx context.Context, req *models.AccessRequest) error
	GetByEmail(ctx context.Context, email string) (*models.AccessRequest, error)
	List(ctx context.Context) ([]models.AccessRequest, error)
	UpdateStatus(ctx context.Context, id, status string) (bool, error)
}

// AccessRequestInput is the public body of POST /access-requests
type AccessRequestInput struct {
	FullName    string `json:"full_name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	CompanyName string `json:"company_name" validate:"required,max=200"`
	CompanySize string `json:"company_size" validate:"max=50"`
	Industry    string `json:"industry" validate:"max=100"`
}

// AccessRequestStatus is what an applicant can see about their request
type AccessRequestStatus struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// AccessRequests manages the waiting list that precedes provisioning
type AccessRequests struct {
	store AccessRequestStore
}

// NewAccessRequests creates a new AccessRequests service
func NewAccessRequests(store AccessRequestStore) *AccessRequests {
	return &AccessRequests{store: store}
}

// Submit records a pending request. A second request for the same email
// fails with ErrConflict.
func (s *AccessRequests) Submit(ctx context.Context, in AccessRequestInput) (*models.AccessRequest, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	req := &models.AccessRequest{
		FullName:    in.FullName,
		Email:       in.Email,
		CompanyName: in.CompanyName,
		CompanySize: in.CompanySize,
		Industry:    in.Industry,
	}
	if err := s.store.Create(ctx, req); err != nil {
		if errors.Is(err, repositories.ErrDuplicateAccessRequest) {
			return nil, fmt.Errorf("access request for %s: %w", in.Email, ErrConflict)
		}
		return nil, err
	}
	return req, nil
}

// Status looks up a request by email.
func (s *AccessRequests) Status(ctx context.Context, email string) (*AccessRequestStatus, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, invalid("email is required", nil)
	}
	req, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return &AccessRequestStatus{Email: req.Email, Status: req.Status}, nil
}

// List returns every request, newest first.
func (s *AccessRequests) List(ctx context.Context) ([]models.AccessRequest, error) {
	return s.store.List(ctx)
}

// SetStatus moves a request to pending, approved or rejected.
func (s *AccessRequests) SetStatus(ctx context.Context, id, status string) error {
	if !models.ValidAccessRequestStatus(status) {
		return invalid("status must be one of: pending, approved, rejected", nil)
	}
	return found(s.store.UpdateStatus(ctx, id, status))
}
