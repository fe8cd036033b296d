package movie

import (
	"encoding/json"
	"strings"
)

// ParseList parses the string-encoded list fields of the dataset
// (genres_list, production_countries, cast_list). Three input shapes are
// accepted:
//
//   - a JSON array of strings:        ["Drama","Comedy"]
//   - a single-quoted literal list:   ['Drama', 'Comedy']
//   - a plain delimited string:       Drama, Comedy
//
// Anything else yields an empty list. Elements are trimmed and empty
// elements dropped.
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		if !strings.HasSuffix(raw, "]") {
			return nil
		}
		var arr []string
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return cleanElements(arr)
		}
		return cleanElements(splitQuoted(raw[1 : len(raw)-1]))
	}

	return cleanElements(strings.Split(raw, ","))
}

// splitQuoted splits a literal-list body on commas that sit outside single
// or double quotes.
func splitQuoted(body string) []string {
	parts := make([]string, 0, 4)
	var sb strings.Builder
	var quote rune
	for _, r := range body {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				sb.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ',':
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	parts = append(parts, sb.String())
	return parts
}

func cleanElements(elems []string) []string {
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		e = strings.TrimSpace(e)
		e = strings.Trim(e, `'"`)
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		// A stray bracket means the shape was not one we accept.
		if strings.ContainsAny(e, "[]") {
			return nil
		}
		out = append(out, e)
	}
	return out
}
