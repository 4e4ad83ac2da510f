package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON locates the outermost JSON object in a model response and
// unmarshals it into v. Models occasionally wrap the object in prose or code
// fences despite the JSON-only instruction, so everything before the first
// '{' and after the last '}' is discarded.
func extractJSON(raw string, v interface{}) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("no JSON object found in analysis response")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("malformed JSON in analysis response: %w", err)
	}
	return nil
}
