package s3

import (
	"strings"
	"testing"

	appconfig "github.com/policy-auditor/policy-auditor/internal/config"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		cfg    appconfig.S3StorageConfig
		errMsg string
	}{
		{"missing bucket", appconfig.S3StorageConfig{Region: "ap-south-1"}, "bucket name is required"},
		{"missing region", appconfig.S3StorageConfig{Bucket: "b"}, "region is required"},
		{"static without secret", appconfig.S3StorageConfig{Bucket: "b", Region: "r", AuthMethod: "static", AccessKeyID: "a"}, "secret_access_key"},
		{"assume role without arn", appconfig.S3StorageConfig{Bucket: "b", Region: "r", AuthMethod: "assume_role"}, "role_arn"},
		{"unknown method", appconfig.S3StorageConfig{Bucket: "b", Region: "r", AuthMethod: "oidc"}, "unsupported auth_method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("New() error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestNew_StaticCredentials(t *testing.T) {
	s, err := New(&appconfig.S3StorageConfig{
		Bucket:          "archive",
		Region:          "ap-south-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.bucket != "archive" {
		t.Errorf("bucket = %q, want archive", s.bucket)
	}
}

func TestResolveAuthMethod(t *testing.T) {
	if got := resolveAuthMethod(&appconfig.S3StorageConfig{}); got != "default" {
		t.Errorf("resolveAuthMethod(empty) = %q, want default", got)
	}
	if got := resolveAuthMethod(&appconfig.S3StorageConfig{AccessKeyID: "a", SecretAccessKey: "b"}); got != "static" {
		t.Errorf("resolveAuthMethod(keys) = %q, want static", got)
	}
	if got := resolveAuthMethod(&appconfig.S3StorageConfig{AuthMethod: "assume_role"}); got != "assume_role" {
		t.Errorf("resolveAuthMethod(explicit) = %q, want assume_role", got)
	}
}
