package generation

import (
	"errors"
	"strings"
)

// ErrNoJSON indicates a model reply contained no JSON object.
var ErrNoJSON = errors.New("no JSON object in model reply")

// extractJSON pulls the first complete JSON object out of a model reply.
// Models occasionally wrap the object in markdown fences or prose despite
// instructions, so this scans for the first balanced {...} span.
func extractJSON(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(text[start : i+1]), nil
			}
		}
	}

	return nil, ErrNoJSON
}
