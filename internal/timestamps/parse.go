package timestamps

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// clockPattern matches "H:MM", "HH.MM" and an optional AM/PM marker. Digits
// directly before the hour are rejected in Find, not here, since RE2 has no
// lookbehind.
var clockPattern = regexp.MustCompile(`(?i)(\d{1,2})[:.]\s?(\d{2})(?:\s*(AM|PM))?`)

// Match is a valid clock time found in recognized text.
type Match struct {
	// Text is the matched substring, e.g. "12:38 PM".
	Text string `json:"text"`
	// Start and End are byte offsets of Text in the searched string.
	Start int `json:"start"`
	End   int `json:"end"`
	// Hour (0-23) and Minute after applying the meridiem.
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Find returns every valid clock time in text, in order.
//
// Candidates with out-of-range values (minute 60 or more, hour above 12 with
// a meridiem or above 23 without) are dropped rather than corrected.
// Candidates glued to surrounding digits, such as "123:45" or "12:345", are
// ignored.
func Find(text string) []Match {
	var matches []Match
	for _, loc := range clockPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isDigit(text[start-1]) {
			continue
		}
		if loc[6] < 0 && end < len(text) && isDigit(text[end]) {
			continue
		}

		hour, _ := strconv.Atoi(text[loc[2]:loc[3]])
		minute, _ := strconv.Atoi(text[loc[4]:loc[5]])
		meridiem := ""
		if loc[6] >= 0 {
			meridiem = strings.ToUpper(text[loc[6]:loc[7]])
		}

		h, ok := toHour24(hour, meridiem)
		if !ok || minute > 59 {
			continue
		}
		matches = append(matches, Match{
			Text:   text[start:end],
			Start:  start,
			End:    end,
			Hour:   h,
			Minute: minute,
		})
	}
	return matches
}

func toHour24(hour int, meridiem string) (int, bool) {
	switch meridiem {
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			return 0, true
		}
		return hour, true
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			return 12, true
		}
		return hour + 12, true
	default:
		if hour > 23 {
			return 0, false
		}
		return hour, true
	}
}

// Parse returns the first valid clock time in raw on day's calendar date, in
// day's location. It reports false when raw holds no valid time.
func Parse(raw string, day time.Time) (time.Time, bool) {
	matches := Find(raw)
	if len(matches) == 0 {
		return time.Time{}, false
	}
	return matches[0].On(day), true
}

// On returns the match as a time on day's calendar date.
func (m Match) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), m.Hour, m.Minute, 0, 0, day.Location())
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
