package detect

import (
	"regexp"
	"strings"
)

// DefaultTitleLength is the title budget used by the detector.
const DefaultTitleLength = 80

var (
	// Platform mention/channel/command markup like <@U123>, <#C456|general>, <!here>.
	markupRe = regexp.MustCompile(`<[@#!][^>]+>`)
	urlRe    = regexp.MustCompile(`https?://\S+`)
)

// skipWords are filler tokens dropped during title synthesis.
var skipWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "was": {}, "are": {}, "were": {},
	"i": {}, "we": {}, "you": {}, "they": {}, "it": {}, "this": {}, "that": {},
}

// Title builds a short extractive title from message text: markup and
// URLs are stripped, stop-words and tokens of length <= 2 dropped, and
// the first 12 surviving tokens joined. Results longer than maxLen are
// truncated with an ellipsis; budgets too small to fit one truncate
// hard. A message with no meaningful tokens yields an empty string;
// callers must tolerate that.
func Title(text string, maxLen int) string {
	cleaned := markupRe.ReplaceAllString(text, "")
	cleaned = urlRe.ReplaceAllString(cleaned, "")

	var kept []string
	for _, word := range strings.Fields(cleaned) {
		if _, skip := skipWords[strings.ToLower(word)]; skip {
			continue
		}
		if len([]rune(word)) <= 2 {
			continue
		}
		kept = append(kept, word)
		if len(kept) == 12 {
			break
		}
	}

	title := strings.Join(kept, " ")
	if runes := []rune(title); len(runes) > maxLen {
		switch {
		case maxLen <= 0:
			title = ""
		case maxLen <= 3:
			title = string(runes[:maxLen])
		default:
			title = string(runes[:maxLen-3]) + "..."
		}
	}
	return strings.TrimSpace(title)
}
