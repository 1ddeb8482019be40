package shipper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/policy-auditor/policy-auditor/internal/db/models"
)

// FileConfig holds file shipper configuration
type FileConfig struct {
	Path string
	// MaxSizeMB triggers rotation once the file exceeds it; 0 disables rotation
	MaxSizeMB  int
	MaxBackups int
}

// FileShipper appends usage records as JSON lines and rotates by size,
// keeping MaxBackups files named path.1 (newest) to path.N.
type FileShipper struct {
	cfg  FileConfig
	file *os.File
	mu   sync.Mutex
}

// NewFileShipper opens (or creates) the target file for appending
func NewFileShipper(cfg FileConfig) (*FileShipper, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	file, err := openAppend(cfg.Path)
	if err != nil {
		return nil, err
	}
	return &FileShipper{cfg: cfg, file: file}, nil
}

func openAppend(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage log file: %w", err)
	}
	return file, nil
}

// Ship writes one JSON line
func (fs *FileShipper) Ship(_ context.Context, rec *models.UsageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.cfg.MaxSizeMB > 0 {
		info, err := fs.file.Stat()
		if err == nil && info.Size() >= int64(fs.cfg.MaxSizeMB)*1024*1024 {
			if err := fs.rotate(); err != nil {
				slog.Warn("failed to rotate usage log", "path", fs.cfg.Path, "error", err)
			}
		}
	}

	if _, err := fs.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write usage record: %w", err)
	}
	return nil
}

func (fs *FileShipper) rotate() error {
	if err := fs.file.Close(); err != nil {
		return err
	}

	if fs.cfg.MaxBackups > 0 {
		_ = os.Remove(fmt.Sprintf("%s.%d", fs.cfg.Path, fs.cfg.MaxBackups))
		for i := fs.cfg.MaxBackups - 1; i >= 1; i-- {
			_ = os.Rename(fmt.Sprintf("%s.%d", fs.cfg.Path, i), fmt.Sprintf("%s.%d", fs.cfg.Path, i+1))
		}
		_ = os.Rename(fs.cfg.Path, fs.cfg.Path+".1")
	} else {
		_ = os.Remove(fs.cfg.Path)
	}

	file, err := openAppend(fs.cfg.Path)
	if err != nil {
		return err
	}
	fs.file = file
	return nil
}

// Close closes the file
func (fs *FileShipper) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.file.Close()
}
