package enrich

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CleanModelJSON removes surrounding whitespace and every markdown code fence
// marker (```json and ```) from the model's text.
func CleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseModelJSON cleans the model text and returns it as compact JSON.
func ParseModelJSON(raw string) (json.RawMessage, error) {
	clean := CleanModelJSON(raw)

	var parsed json.RawMessage
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("ParseModelJSON: unmarshal JSON: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, parsed); err != nil {
		return nil, fmt.Errorf("ParseModelJSON: compact JSON: %w", err)
	}
	return buf.Bytes(), nil
}
