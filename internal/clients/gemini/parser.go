package gemini

import (
	"regexp"
	"strings"
)

// Section keys in prompt order. The model is asked for six numbered sections;
// parsing tolerates markdown decoration and skipped numbers.
var sectionOrder = [6]string{
	"summary",
	"technical",
	"fundamental",
	"risk",
	"suggestion",
	"conclusion",
}

// sectionTitles maps recognised heading text to section keys. Matching is
// exact so a body line such as "Risks include:" is never taken for a heading.
var sectionTitles = map[string]string{
	"summary":                   "summary",
	"overview":                  "summary",
	"technical analysis":        "technical",
	"technicals":                "technical",
	"technical":                 "technical",
	"fundamental analysis":      "fundamental",
	"fundamentals":              "fundamental",
	"valuation":                 "fundamental",
	"risk assessment":           "risk",
	"risk factors":              "risk",
	"risks":                     "risk",
	"risk":                      "risk",
	"investment suggestion":     "suggestion",
	"investment recommendation": "suggestion",
	"suggestion":                "suggestion",
	"recommendation":            "suggestion",
	"conclusion":                "conclusion",
	"outlook":                   "conclusion",
}

var sectionPrefix = regexp.MustCompile(`^([1-6])[.)、:：]\s*(.*)$`)

// ParseSections splits a six-section commentary into its parts, keyed by
// sectionOrder. Numbered headings must advance through the sections in order,
// which keeps numbered lists inside a section from being mistaken for
// headings. Text before the first heading is dropped; callers keep the raw
// response so nothing is lost.
func ParseSections(text string) map[string]string {
	out := make(map[string]string)
	var buf strings.Builder
	current := ""
	next := 0

	flush := func() {
		if current == "" {
			buf.Reset()
			return
		}
		body := strings.TrimSpace(buf.String())
		buf.Reset()
		if body == "" {
			return
		}
		if prev, ok := out[current]; ok && prev != "" {
			body = prev + "\n\n" + body
		}
		out[current] = body
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		stripped := strings.TrimSpace(strings.Trim(line, "#* \t"))

		if m := sectionPrefix.FindStringSubmatch(stripped); m != nil {
			idx := int(m[1][0] - '1')
			if idx >= next {
				flush()
				current = sectionOrder[idx]
				next = idx + 1
				rest := strings.TrimSpace(strings.Trim(m[2], "*: \t"))
				if rest != "" && !isSectionTitle(current, rest) {
					buf.WriteString(rest)
					buf.WriteByte('\n')
				}
				continue
			}
		}

		if key := headingKey(line, stripped); key != "" {
			flush()
			current = key
			continue
		}

		if current != "" {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	flush()

	return out
}

// headingKey matches unnumbered headings such as "## Technical Analysis" or
// "Risk Assessment:". Only lines that look like headings are considered, so
// body sentences mentioning a section name pass through untouched.
func headingKey(line, stripped string) string {
	looksLikeHeading := strings.HasPrefix(line, "#") ||
		(strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**")) ||
		strings.HasSuffix(line, ":")
	if !looksLikeHeading {
		return ""
	}

	title := strings.ToLower(strings.TrimSpace(strings.Trim(stripped, ": \t")))
	return sectionTitles[title]
}

func isSectionTitle(key, rest string) bool {
	return sectionTitles[strings.ToLower(rest)] == key
}
