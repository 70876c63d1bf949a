package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// parseResponse extracts the structured batch response from raw model
// output. Extraction is tolerant and tried in order: parse as-is, extract a
// fenced code block, extract the outermost {...} span.
func parseResponse(raw string) (*batchResponse, error) {
	candidates := []string{strings.TrimSpace(raw)}

	if m := fencedBlockPattern.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}

	if span := outermostBraces(raw); span != "" {
		candidates = append(candidates, span)
	}

	var lastErr error
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		var resp batchResponse
		if err := json.Unmarshal([]byte(candidate), &resp); err != nil {
			lastErr = err
			continue
		}
		if len(resp.Translations) == 0 {
			lastErr = fmt.Errorf("response contains no translations")
			continue
		}
		return &resp, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("empty response")
	}
	return nil, fmt.Errorf("unparsable model response: %w", lastErr)
}

// outermostBraces returns the span from the first '{' to the last '}', or "".
func outermostBraces(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
