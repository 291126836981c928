package extract

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ironsheep/chatshot/internal/timestamps"
)

// Message is one chat message recovered from a screenshot.
type Message struct {
	// Time is the message's time of day on the processing date, or nil.
	Time *time.Time `json:"time,omitempty"`
	Body string     `json:"body"`
	// IsReceiver is true for left-aligned (received) bubbles.
	IsReceiver bool `json:"is_receiver"`
}

// Associate attaches a located time to each segment without an inline one.
//
// A segment takes the location with the smallest vertical distance to its
// bubble (zero when the location's top lies within the bubble). Locations
// farther than maxDistance are ignored unless maxDistance is zero. Ties go to
// the smaller Y, then the smaller X. Segments are modified in place.
func Associate(segments []Segment, locs []timestamps.Location, maxDistance int) {
	for i := range segments {
		seg := &segments[i]
		if seg.Timestamp != nil {
			continue
		}
		var best *timestamps.Location
		bestDist := 0
		for j := range locs {
			loc := &locs[j]
			d := verticalDistance(seg, loc)
			if maxDistance > 0 && d > maxDistance {
				continue
			}
			if best == nil || d < bestDist ||
				(d == bestDist && (loc.Y < best.Y || (loc.Y == best.Y && loc.X < best.X))) {
				best, bestDist = loc, d
			}
		}
		if best != nil {
			found := *best
			seg.Timestamp = &found
		}
	}
}

func verticalDistance(seg *Segment, loc *timestamps.Location) int {
	top, bottom := seg.Bubble.Y, seg.Bubble.Bottom()
	switch {
	case loc.Y < top:
		return top - loc.Y
	case loc.Y >= bottom:
		return loc.Y - bottom
	default:
		return 0
	}
}

// Assemble turns segments into messages.
//
// Segments whose body is empty, longer than maxBodyLength runes, or the
// literal "null" or "undefined" are dropped. Messages with a time are then
// ordered by time (stable) among the positions they occupy; messages without
// a time keep their position.
func Assemble(segments []Segment, maxBodyLength int) []Message {
	messages := make([]Message, 0, len(segments))
	for _, seg := range segments {
		body := strings.TrimSpace(seg.Text)
		if !validBody(body, maxBodyLength) {
			continue
		}
		msg := Message{Body: body, IsReceiver: seg.Bubble.IsLeftAligned}
		if seg.Timestamp != nil {
			t := seg.Timestamp.Time
			msg.Time = &t
		}
		messages = append(messages, msg)
	}
	SortTimed(messages)
	return messages
}

func validBody(body string, maxBodyLength int) bool {
	if body == "" || body == "null" || body == "undefined" {
		return false
	}
	return maxBodyLength <= 0 || utf8.RuneCountInString(body) <= maxBodyLength
}

// SortTimed orders the timed messages ascending within the slots they
// already occupy. Untimed messages do not move.
func SortTimed(messages []Message) {
	var slots []int
	var timed []Message
	for i, m := range messages {
		if m.Time != nil {
			slots = append(slots, i)
			timed = append(timed, m)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Time.Before(*timed[j].Time)
	})
	for k, i := range slots {
		messages[i] = timed[k]
	}
}
