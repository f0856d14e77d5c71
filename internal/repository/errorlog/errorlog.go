// Package errorlog persists failure details under a reference code.
package errorlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Record is one persisted failure.
type Record struct {
	Reference string         `json:"reference"`
	Time      time.Time      `json:"time"`
	Message   string         `json:"message"`
	Error     string         `json:"error"`
	Context   map[string]any `json:"context,omitempty"`
}

// FileStorage writes records as JSON files into a directory.
type FileStorage struct {
	dir string
	now func() time.Time
}

// NewFileStorage creates a storage rooted at dir. The directory is created on first write.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir, now: time.Now}
}

// Log persists err and returns its reference code.
func (s *FileStorage) Log(message string, err error, context map[string]any) (string, error) {
	now := s.now()
	ref := now.Format("20060102150405") + "-" + uuid.NewString()[:6]

	rec := Record{Reference: ref, Time: now.UTC(), Message: message, Context: context}
	if err != nil {
		rec.Error = err.Error()
	}
	data, mErr := json.MarshalIndent(rec, "", "  ")
	if mErr != nil {
		return ref, fmt.Errorf("encode error record: %w", mErr)
	}
	if mkErr := os.MkdirAll(s.dir, 0o755); mkErr != nil {
		return ref, fmt.Errorf("create error log dir: %w", mkErr)
	}
	if wErr := os.WriteFile(filepath.Join(s.dir, ref+".json"), data, 0o644); wErr != nil {
		return ref, fmt.Errorf("write error record: %w", wErr)
	}
	return ref, nil
}
