package qtext

import "strings"

// Option is one lettered answer choice.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Parse splits a raw question blob into its stem (the first line) and the
// lettered options found on subsequent lines. An option line starts with an
// opening parenthesis and contains a closing one; anything else is skipped.
// Empty input yields an empty stem and no options.
func Parse(text string) (string, []Option) {
	if text == "" {
		return "", nil
	}

	lines := strings.Split(text, "\n")
	stem := strings.TrimSpace(lines[0])

	var options []Option
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "(") {
			continue
		}
		close := strings.Index(line, ")")
		if close < 0 {
			continue
		}
		letter := strings.TrimSpace(line[1:close])
		letter = strings.NewReplacer("(", "", ")", "").Replace(letter)
		options = append(options, Option{
			Letter: letter,
			Text:   strings.TrimSpace(line[close+1:]),
		})
	}
	return stem, options
}
