package knowledge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caregate/caregate/internal/domain/triage"
)

// document is the on-disk knowledge-base format. The schema version is
// explicit so a deploy with an incompatible file fails at startup, not
// at scoring time.
type document struct {
	SchemaVersion int                           `json:"schema_version"`
	Conditions    []*triage.ConditionDefinition `json:"conditions"`
}

// Load reads and validates a knowledge-base file. The returned knowledge
// base is immutable for the process lifetime.
func Load(path string) (*triage.KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge base: %w", err)
	}
	return Parse(data)
}

// Parse builds a knowledge base from raw JSON.
func Parse(data []byte) (*triage.KnowledgeBase, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing knowledge base: %w", err)
	}
	kb, err := triage.NewKnowledgeBase(doc.SchemaVersion, doc.Conditions)
	if err != nil {
		return nil, fmt.Errorf("validating knowledge base: %w", err)
	}
	return kb, nil
}
