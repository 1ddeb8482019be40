package gcs

import (
	"strings"
	"testing"

	appconfig "github.com/policy-auditor/policy-auditor/internal/config"
)

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(&appconfig.GCSStorageConfig{})
	if err == nil || !strings.Contains(err.Error(), "bucket name is required") {
		t.Errorf("New() error = %v, want bucket required", err)
	}
}

func TestClientOptions(t *testing.T) {
	if got := len(clientOptions(&appconfig.GCSStorageConfig{Bucket: "b"})); got != 0 {
		t.Errorf("default options = %d, want 0 (ADC)", got)
	}
	if got := len(clientOptions(&appconfig.GCSStorageConfig{Bucket: "b", CredentialsFile: "/tmp/sa.json"})); got != 1 {
		t.Errorf("credentials file options = %d, want 1", got)
	}
	if got := len(clientOptions(&appconfig.GCSStorageConfig{Bucket: "b", Endpoint: "http://localhost:4443"})); got != 2 {
		t.Errorf("emulator options = %d, want 2", got)
	}
}

func TestNew_Emulator(t *testing.T) {
	s, err := New(&appconfig.GCSStorageConfig{Bucket: "archive", Endpoint: "http://localhost:4443/storage/v1/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer s.Close()
	if s.bucket != "archive" {
		t.Errorf("bucket = %q, want archive", s.bucket)
	}
}
