package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON document out of a model response, tolerating
// markdown code fences and surrounding prose. Returns the raw JSON
// string validated against dst.
func ExtractJSON(raw string, dst any) error {
	s := strings.TrimSpace(raw)

	// Strip a markdown code fence if present, with or without a
	// language tag.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.Index(s, "\n"); idx >= 0 {
			// Drop the language tag line (e.g. "json").
			first := strings.TrimSpace(s[:idx])
			if len(first) <= 10 && !strings.ContainsAny(first, "{}[]") {
				s = s[idx+1:]
			}
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Models sometimes wrap the JSON in prose. Recover the outermost
	// object or array.
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		start := strings.IndexAny(s, "{[")
		if start < 0 {
			return fmt.Errorf("no JSON found in response")
		}
		end := strings.LastIndexAny(s, "}]")
		if end < start {
			return fmt.Errorf("unterminated JSON in response")
		}
		s = s[start : end+1]
	}

	if err := json.Unmarshal([]byte(s), dst); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}
