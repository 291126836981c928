// Package normalize cleans recognized bubble text into a message body.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	leadingBullets   = regexp.MustCompile(`^[▪■●•◦·\s]+`)
	checkmarks       = regexp.MustCompile(`[✓✔√]+`)
	controlChars     = regexp.MustCompile(`[\x{0000}-\x{001F}\x{007F}-\x{009F}]`)
	networkIndicator = regexp.MustCompile(`(?i)\s*\b(?:[2-5]G\+?|LTE\+?)\s*$`)
	leadingTime      = regexp.MustCompile(`(?i)^\d{1,2}[:.]\d{2}(?:\s*[AP]M)?\s*`)
	trailingTime     = regexp.MustCompile(`(?i)\s*\d{1,2}[:.]\d{2}(?:\s*[AP]M)?$`)
	spaces           = regexp.MustCompile(`\s+`)
)

// chrome matches whole lines that are app decoration rather than message text.
var chrome = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(AM|PM)$`),
	regexp.MustCompile(`^\d+%$`),
	regexp.MustCompile(`(?i)^(Back|Menu|More)$`),
	regexp.MustCompile(`^[0-9.]+$`),
	regexp.MustCompile(`^[^\p{L}\p{N}]+$`),
	regexp.MustCompile(`(?i)^(Sent|Delivered|Read|Seen)$`),
	regexp.MustCompile(`(?i)^(Today|Yesterday)$`),
}

// Body turns raw recognized text into a single-line message body.
//
// Each line is NFKC-normalized, then stripped of leading bullet glyphs,
// checkmarks, control characters, a trailing network indicator and a leading
// or trailing clock time. Whitespace is collapsed and lines that are only
// app chrome (status words, battery percentages, navigation labels, bare
// numbers or punctuation) are dropped. Remaining lines are joined with a
// single space. The result may be empty.
func Body(raw string) string {
	var kept []string
	for _, line := range strings.Split(norm.NFKC.String(raw), "\n") {
		if line = Line(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

// Line cleans a single line and returns "" when nothing useful remains.
func Line(line string) string {
	line = leadingBullets.ReplaceAllString(line, "")
	line = checkmarks.ReplaceAllString(line, "")
	line = controlChars.ReplaceAllString(line, " ")
	line = strings.TrimSpace(line)
	line = networkIndicator.ReplaceAllString(line, "")
	line = leadingTime.ReplaceAllString(line, "")
	line = trailingTime.ReplaceAllString(line, "")
	line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
	if line == "" || IsChrome(line) {
		return ""
	}
	return line
}

// IsChrome reports whether line is UI decoration such as "Delivered" or "87%".
func IsChrome(line string) bool {
	for _, re := range chrome {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
