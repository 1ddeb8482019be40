package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

var accessRequestCols = []string{
	"id", "full_name", "email", "company_name", "company_size", "industry", "status", "created_at", "updated_at",
}

func newAccessRequestRepo(t *testing.T) (*AccessRequestRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAccessRequestRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestAccessRequestCreate(t *testing.T) {
	repo, mock := newAccessRequestRepo(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO access_requests").
		WithArgs("Ravi", "ravi@acme.test", "Acme", "11-50", "IT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow("req-1", "pending", now, now))

	req := &models.AccessRequest{FullName: "Ravi", Email: "ravi@acme.test", CompanyName: "Acme", CompanySize: "11-50", Industry: "IT"}
	if err := repo.Create(context.Background(), req); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if req.ID != "req-1" || req.Status != models.AccessRequestPending {
		t.Errorf("req = %+v, want id req-1 pending", req)
	}
}

func TestAccessRequestCreate_Duplicate(t *testing.T) {
	repo, mock := newAccessRequestRepo(t)
	mock.ExpectQuery("INSERT INTO access_requests").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), &models.AccessRequest{Email: "dup@acme.test"})
	if !errors.Is(err, ErrDuplicateAccessRequest) {
		t.Errorf("Create() error = %v, want ErrDuplicateAccessRequest", err)
	}
}

func TestAccessRequestCreate_OtherError(t *testing.T) {
	repo, mock := newAccessRequestRepo(t)
	mock.ExpectQuery("INSERT INTO access_requests").WillReturnError(errDB)

	err := repo.Create(context.Background(), &models.AccessRequest{})
	if err == nil || errors.Is(err, ErrDuplicateAccessRequest) {
		t.Errorf("Create() error = %v, want wrapped db error", err)
	}
}

func TestAccessRequestGetByEmail(t *testing.T) {
	repo, mock := newAccessRequestRepo(t)
	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM access_requests WHERE lower\\(email\\)").
		WithArgs("Ravi@Acme.test").
		WillReturnRows(sqlmock.NewRows(accessRequestCols).
			AddRow("req-1", "Ravi", "ravi@acme.test", "Acme", "11-50", "IT", "approved", now, now))

	req, err := repo.GetByEmail(context.Background(), "Ravi@Acme.test")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if req == nil || req.Status != "approved" {
		t.Errorf("req = %+v, want approved", req)
	}
}

func TestAccessRequestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newAccessRequestRepo(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(accessRequestCols))

	req, err := repo.GetByEmail(context.Background(), "none@acme.test")
	if err != nil || req != nil {
		t.Errorf("GetByEmail() = (%v, %v), want (nil, nil)", req, err)
	}
}

func TestAccessRequestList(t *testing.T) {
	repo, mock := newAccessRequestRepo(t)
	now := time.Now()
	mock.ExpectQuery("SELECT .+ ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows(accessRequestCols).
			AddRow("req-2", "B", "b@x.test", "", "", "", "pending", now, now).
			AddRow("req-1", "A", "a@x.test", "", "", "", "rejected", now, now))

	reqs, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(reqs) != 2 || reqs[0].ID != "req-2" {
		t.Errorf("reqs = %+v", reqs)
	}
}

func TestAccessRequestUpdateStatus(t *testing.T) {
	repo, mock := newAccessRequestRepo(t)
	mock.ExpectExec("UPDATE access_requests SET status").
		WithArgs("req-1", "approved").
		WillReturnResult(sqlmock.NewResult(0, 1))

	found, err := repo.UpdateStatus(context.Background(), "req-1", "approved")
	if err != nil || !found {
		t.Errorf("UpdateStatus() = (%v, %v), want (true, nil)", found, err)
	}
}
