package helpdesk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint records scraping progress so an interrupted run can resume
// without re-fetching completed articles.
type Checkpoint struct {
	UpdatedAt   string          `json:"updated_at"`
	DoneIDs     map[string]bool `json:"done_ids"`
	Collections []Collection    `json:"collections,omitempty"`
}

// NewCheckpoint creates an empty checkpoint
func NewCheckpoint() *Checkpoint {
	return &Checkpoint{DoneIDs: make(map[string]bool)}
}

// LoadCheckpoint reads a checkpoint file. A missing file yields a fresh
// checkpoint, not an error.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewCheckpoint(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	cp := NewCheckpoint()
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	if cp.DoneIDs == nil {
		cp.DoneIDs = make(map[string]bool)
	}
	return cp, nil
}

// Save writes the checkpoint atomically via a temp file rename.
func (cp *Checkpoint) Save(path string) error {
	cp.UpdatedAt = time.Now().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// MarkDone records an article as scraped
func (cp *Checkpoint) MarkDone(articleID string) {
	cp.DoneIDs[articleID] = true
}

// IsDone reports whether an article was already scraped
func (cp *Checkpoint) IsDone(articleID string) bool {
	return cp.DoneIDs[articleID]
}
