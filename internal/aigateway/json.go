package aigateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when the response holds no {...} span.
var ErrNoJSON = errors.New("no JSON object in ai response")

// ExtractJSON decodes the span from the first '{' to the last '}' of text
// into v. Models routinely wrap their JSON in prose or markdown fences; this
// is the only shape the rest of the system relies on.
func ExtractJSON(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("decode ai json: %w", err)
	}
	return nil
}
