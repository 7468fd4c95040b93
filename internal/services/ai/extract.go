package ai

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoJSONObject means the text contained no balanced, valid JSON object.
	ErrNoJSONObject = errors.New("no JSON object found in response")
)

// ExtractJSONObject returns the first balanced {...} span in text that is
// valid JSON. Braces inside string literals are ignored, so prose around the
// object and code fences are tolerated. Candidates that balance but fail to
// parse are skipped and scanning resumes after their opening brace. An
// unclosed brace ends the scan: a truncated object is not recovered from
// whatever nested fragment happens to balance.
func ExtractJSONObject(text string) (string, error) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		end := matchBrace(text, start)
		if end < 0 {
			break
		}
		if candidate := text[start : end+1]; gjson.Valid(candidate) {
			return candidate, nil
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSONObject
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
