package detection

import (
	"reflect"
	"testing"

	"github.com/ironsheep/chatshot/internal/config"
)

func TestMerge(t *testing.T) {
	m := NewMerger(config.Default().Merger) // gap 12, padding 24

	tests := []struct {
		name    string
		regions []Bubble
		want    []Bubble
	}{
		{
			name:    "empty",
			regions: nil,
			want:    []Bubble{},
		},
		{
			name: "two lines of one message",
			regions: []Bubble{
				{X: 20, Y: 100, Width: 180, Height: 20, IsLeftAligned: true, AverageIntensity: 100},
				{X: 20, Y: 125, Width: 120, Height: 20, IsLeftAligned: true, AverageIntensity: 120},
			},
			want: []Bubble{
				{X: 20, Y: 100, Width: 180, Height: 45, IsLeftAligned: true, AverageIntensity: 110},
			},
		},
		{
			name: "gap at threshold does not merge",
			regions: []Bubble{
				{X: 20, Y: 100, Width: 100, Height: 20, IsLeftAligned: true},
				{X: 20, Y: 132, Width: 100, Height: 20, IsLeftAligned: true},
			},
			want: []Bubble{
				{X: 20, Y: 100, Width: 100, Height: 20, IsLeftAligned: true},
				{X: 20, Y: 132, Width: 100, Height: 20, IsLeftAligned: true},
			},
		},
		{
			name: "different alignment does not merge",
			regions: []Bubble{
				{X: 20, Y: 100, Width: 100, Height: 20, IsLeftAligned: true},
				{X: 25, Y: 122, Width: 100, Height: 20, IsLeftAligned: false},
			},
			want: []Bubble{
				{X: 20, Y: 100, Width: 100, Height: 20, IsLeftAligned: true},
				{X: 25, Y: 122, Width: 100, Height: 20, IsLeftAligned: false},
			},
		},
		{
			name: "left edges too far apart",
			regions: []Bubble{
				{X: 200, Y: 100, Width: 100, Height: 20},
				{X: 224, Y: 122, Width: 76, Height: 20},
			},
			want: []Bubble{
				{X: 200, Y: 100, Width: 100, Height: 20},
				{X: 224, Y: 122, Width: 76, Height: 20},
			},
		},
		{
			name: "unsorted input is ordered by Y",
			regions: []Bubble{
				{X: 20, Y: 300, Width: 100, Height: 20, IsLeftAligned: true},
				{X: 220, Y: 100, Width: 100, Height: 20},
			},
			want: []Bubble{
				{X: 220, Y: 100, Width: 100, Height: 20},
				{X: 20, Y: 300, Width: 100, Height: 20, IsLeftAligned: true},
			},
		},
		{
			name: "chain merges into one bubble",
			regions: []Bubble{
				{X: 220, Y: 100, Width: 100, Height: 20, AverageIntensity: 200},
				{X: 230, Y: 125, Width: 90, Height: 20, AverageIntensity: 200},
				{X: 210, Y: 150, Width: 110, Height: 20, AverageIntensity: 200},
			},
			want: []Bubble{
				{X: 210, Y: 100, Width: 110, Height: 70, AverageIntensity: 200},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Merge(tt.regions)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge:\n got  %+v\n want %+v", got, tt.want)
			}
		})
	}
}

func TestMerge_DoesNotModifyInput(t *testing.T) {
	m := NewMerger(config.Default().Merger)
	regions := []Bubble{
		{X: 20, Y: 200, Width: 100, Height: 20},
		{X: 20, Y: 100, Width: 100, Height: 20},
	}
	m.Merge(regions)
	if regions[0].Y != 200 || regions[1].Y != 100 {
		t.Errorf("input reordered: %v", regions)
	}
}

func TestMerge_Deterministic(t *testing.T) {
	m := NewMerger(config.Default().Merger)
	regions := []Bubble{
		{X: 20, Y: 100, Width: 100, Height: 20, IsLeftAligned: true},
		{X: 22, Y: 122, Width: 100, Height: 20, IsLeftAligned: true},
		{X: 220, Y: 180, Width: 100, Height: 20},
		{X: 20, Y: 180, Width: 100, Height: 20, IsLeftAligned: true},
	}
	first := m.Merge(regions)
	for i := 0; i < 10; i++ {
		if got := m.Merge(regions); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestMerge_RespectsThresholds(t *testing.T) {
	m := &Merger{Gap: 10, Padding: 15}
	regions := []Bubble{
		{X: 20, Y: 100, Width: 100, Height: 20, IsLeftAligned: true},
		{X: 30, Y: 125, Width: 100, Height: 20, IsLeftAligned: true},
		{X: 30, Y: 150, Width: 100, Height: 20, IsLeftAligned: true},
		{X: 50, Y: 175, Width: 100, Height: 20, IsLeftAligned: true},
	}
	merged := m.Merge(regions)

	// Every pair that was not merged must violate at least one condition.
	for i := 1; i < len(merged); i++ {
		prev, next := merged[i-1], merged[i]
		gap := next.Y - prev.Bottom()
		dx := next.X - prev.X
		if dx < 0 {
			dx = -dx
		}
		if gap < m.Gap && prev.IsLeftAligned == next.IsLeftAligned && dx < m.Padding {
			t.Errorf("bubbles %v and %v should have merged", prev, next)
		}
	}
	if len(merged) != 2 {
		t.Errorf("got %d bubbles, want 2: %v", len(merged), merged)
	}
}
