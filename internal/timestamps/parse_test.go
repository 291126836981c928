package timestamps

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	day := time.Date(2024, time.March, 9, 17, 5, 0, 0, time.UTC)

	tests := []struct {
		raw        string
		wantOK     bool
		wantHour   int
		wantMinute int
	}{
		{"12:38 PM", true, 12, 38},
		{"12:05 AM", true, 0, 5},
		{"1:07 pm", true, 13, 7},
		{"9:41AM", true, 9, 41},
		{"11.15 PM", true, 23, 15},
		{"23:59", true, 23, 59},
		{"0:00", true, 0, 0},
		{"7: 30", true, 7, 30},
		{"sent at 14:22, read", true, 14, 22},
		{"10:65", false, 0, 0},
		{"24:00", false, 0, 0},
		{"13:00 PM", false, 0, 0},
		{"0:30 AM", false, 0, 0},
		{"123:45", false, 0, 0},
		{"12:345", false, 0, 0},
		{"hello", false, 0, 0},
		{"", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Parse(tt.raw, day)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok: got %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Hour() != tt.wantHour || got.Minute() != tt.wantMinute {
				t.Errorf("Parse(%q): got %02d:%02d, want %02d:%02d",
					tt.raw, got.Hour(), got.Minute(), tt.wantHour, tt.wantMinute)
			}
			if got.Year() != 2024 || got.Month() != time.March || got.Day() != 9 {
				t.Errorf("Parse(%q): date %v, want 2024-03-09", tt.raw, got)
			}
			if got.Second() != 0 || got.Nanosecond() != 0 {
				t.Errorf("Parse(%q): seconds should be zero, got %v", tt.raw, got)
			}
		})
	}
}

func TestParse_UsesDayLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	day := time.Date(2024, time.December, 31, 23, 0, 0, 0, loc)
	got, ok := Parse("8:15 AM", day)
	if !ok {
		t.Fatal("Parse failed")
	}
	if got.Location() != loc {
		t.Errorf("location: got %v, want %v", got.Location(), loc)
	}
	if got.Day() != 31 {
		t.Errorf("day: got %d, want 31", got.Day())
	}
}

func TestFind(t *testing.T) {
	matches := Find("10:65 then 9:41 AM and 18.30")
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}

	first := matches[0]
	if first.Text != "9:41 AM" || first.Hour != 9 || first.Minute != 41 {
		t.Errorf("first match: %+v", first)
	}
	if first.Start != 11 || first.End != 18 {
		t.Errorf("first offsets: got [%d,%d), want [11,18)", first.Start, first.End)
	}

	second := matches[1]
	if second.Text != "18.30" || second.Hour != 18 || second.Minute != 30 {
		t.Errorf("second match: %+v", second)
	}
}

func TestFind_None(t *testing.T) {
	if got := Find("no times here"); len(got) != 0 {
		t.Errorf("Find: got %+v, want none", got)
	}
}
