package generation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
)

// Phase markers recorded in the shared checkpoint file
const (
	PhaseQuestions         = "questions"
	PhaseQuestionsComplete = "questions_complete"
	PhaseAnswers           = "answers"
	PhaseAnswersComplete   = "answers_complete"
)

// Checkpoint persists partial generation progress. Both phases share one
// file; the Phase field says which phase the payload belongs to.
type Checkpoint struct {
	Phase       string                         `json:"phase"`
	LastUpdated string                         `json:"last_updated"`
	Processed   int                            `json:"processed"`
	Questions   map[string]dataset.QuestionSet `json:"questions,omitempty"`
	QAPairs     []dataset.QAPair               `json:"qa_pairs,omitempty"`
}

// LoadCheckpoint reads the checkpoint file. A missing file yields an
// empty checkpoint, not an error.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Checkpoint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	return &cp, nil
}

// Save writes the checkpoint atomically via a temp file rename.
func (cp *Checkpoint) Save(path string) error {
	cp.LastUpdated = time.Now().Format(time.RFC3339)

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
