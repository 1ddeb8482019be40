package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/policy-auditor/policy-auditor/internal/config"
)

type memStorage struct{ objects map[string][]byte }

func (m *memStorage) Upload(_ context.Context, key string, r io.Reader, _ int64) (*UploadResult, error) {
	data, _ := io.ReadAll(r)
	m.objects[key] = data
	return &UploadResult{Key: key, Size: int64(len(data))}, nil
}

func (m *memStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestNewStorage_Registered(t *testing.T) {
	Register("mem-test", func(*config.Config) (Storage, error) {
		return &memStorage{objects: map[string][]byte{}}, nil
	})
	t.Cleanup(func() { delete(factories, "mem-test") })

	cfg := &config.Config{Storage: config.StorageConfig{DefaultBackend: "mem-test"}}
	s, err := NewStorage(cfg)
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}
	if _, err := s.Upload(context.Background(), "k", strings.NewReader("v"), 1); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if ok, _ := s.Exists(context.Background(), "k"); !ok {
		t.Error("Exists() = false after upload")
	}

	found := false
	for _, name := range Registered() {
		if name == "mem-test" {
			found = true
		}
	}
	if !found {
		t.Errorf("Registered() = %v, missing mem-test", Registered())
	}
}

func TestNewStorage_Unknown(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{DefaultBackend: "ftp"}}
	_, err := NewStorage(cfg)
	if err == nil || !strings.Contains(err.Error(), "unsupported storage backend") {
		t.Errorf("NewStorage() error = %v, want unsupported backend", err)
	}
}

func TestAuditDocumentKey(t *testing.T) {
	got := AuditDocumentKey("user-1", "abc123")
	if got != "audits/user-1/abc123.pdf" {
		t.Errorf("AuditDocumentKey() = %q, want audits/user-1/abc123.pdf", got)
	}
}
