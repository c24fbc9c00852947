package extract

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNoJSON indicates the completion response contained no JSON span at all.
var ErrNoJSON = eris.New("extract: no JSON found in completion response")

// JSONSpan locates the first top-level {...} or [...] span in text. The
// model is permitted to add prose or markdown fences around the JSON, so
// fences are stripped first and the outermost matching bracket pair is
// taken. Returns ErrNoJSON when neither bracket appears.
func JSONSpan(text string) (string, error) {
	text = stripFences(text)

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	start, closer := -1, byte('}')
	switch {
	case objStart < 0 && arrStart < 0:
		return "", ErrNoJSON
	case objStart < 0:
		start, closer = arrStart, ']'
	case arrStart < 0:
		start = objStart
	case arrStart < objStart:
		start, closer = arrStart, ']'
	default:
		start = objStart
	}

	end := strings.LastIndexByte(text, closer)
	if end <= start {
		return "", ErrNoJSON
	}
	return strings.TrimSpace(text[start : end+1]), nil
}

// stripFences removes markdown code fences wrapping a JSON payload.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}
