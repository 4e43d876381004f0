// Package quality implements the dataset quality-control pipeline:
// structural validation of formatted training records, length bounds,
// grounding heuristics, duplicate detection, and the orchestration that
// turns a raw Q&A collection into a filtered dataset plus a report.
//
// Everything in this package is a pure transformation over in-memory
// collections; file and network I/O stay at the callers.
package quality

import (
	"encoding/json"
	"errors"
	"fmt"
)

var expectedRoles = [3]string{"system", "user", "assistant"}

// ValidateStructure checks one serialized training record line for the
// required shape: parseable JSON, a messages field holding exactly three
// entries with roles system/user/assistant in order, and non-empty
// content throughout. Returns nil for a valid line; the error names the
// first check that failed.
func ValidateStructure(line string) error {
	var record map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		// Distinguish malformed JSON from valid JSON of the wrong shape
		var probe any
		if json.Unmarshal([]byte(line), &probe) != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		return errors.New("missing 'messages' field")
	}

	rawMessages, ok := record["messages"]
	if !ok {
		return errors.New("missing 'messages' field")
	}

	var messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(rawMessages, &messages); err != nil || len(messages) != 3 {
		return errors.New("messages should be a list of 3 items (system, user, assistant)")
	}

	for i, msg := range messages {
		if msg.Role != expectedRoles[i] {
			return fmt.Errorf("message %d should have role '%s', got '%s'", i, expectedRoles[i], msg.Role)
		}
		if msg.Content == "" {
			return fmt.Errorf("message %d has empty content", i)
		}
	}

	return nil
}
