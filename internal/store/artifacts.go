package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ibeckermayer/threadfeed/internal/config"
)

// Kind groups artifacts into their own cache subdirectory.
type Kind string

const (
	KindReport     Kind = "reports"
	KindScreenshot Kind = "screenshots"
)

// Artifacts writes timestamped debug files under a root directory.
type Artifacts struct {
	dir string
	now func() time.Time
}

// NewArtifacts stores artifacts under dir.
func NewArtifacts(dir string) *Artifacts {
	return &Artifacts{dir: dir, now: time.Now}
}

// DefaultArtifacts stores artifacts in the user cache directory.
// On macOS this is ~/Library/Caches/threadfeed/
func DefaultArtifacts() (*Artifacts, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return nil, err
	}
	return NewArtifacts(cacheDir), nil
}

// Dir returns the directory for kind.
func (a *Artifacts) Dir(kind Kind) string {
	return filepath.Join(a.dir, string(kind))
}

// generateFilename creates a timestamped filename that sorts chronologically.
func (a *Artifacts) generateFilename(ext string) string {
	return a.now().Format("2006-01-02T15-04-05.000") + ext
}

// SaveJSON writes v as indented JSON. Returns the path to the saved file.
func (a *Artifacts) SaveJSON(kind Kind, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s artifact: %w", kind, err)
	}
	return a.SaveBytes(kind, data, ".json")
}

// SaveBytes writes raw content (e.g. a PNG screenshot). Returns the path to the saved file.
func (a *Artifacts) SaveBytes(kind Kind, data []byte, ext string) (string, error) {
	dir := a.Dir(kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}

	path := filepath.Join(dir, a.generateFilename(ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return path, nil
}

// LatestFile returns the path to the most recent artifact of kind.
func (a *Artifacts) LatestFile(kind Kind) (string, error) {
	dir := a.Dir(kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no %s artifacts", kind)
		}
		return "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	if len(files) == 0 {
		return "", fmt.Errorf("no %s artifacts", kind)
	}

	return filepath.Join(dir, files[len(files)-1]), nil
}

// LoadJSON loads JSON data from a specific file path.
func LoadJSON[T any](path string) (T, error) {
	var data T

	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("failed to read artifact: %w", err)
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}

	return data, nil
}
