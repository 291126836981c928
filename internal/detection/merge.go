package detection

import (
	"sort"

	"github.com/ironsheep/chatshot/internal/config"
)

// Merger joins regions that belong to the same message bubble, such as the
// separate lines of a multi-line message.
type Merger struct {
	// Gap is the vertical distance below which two regions may merge.
	Gap int
	// Padding bounds the difference between the regions' left edges.
	Padding int
}

// NewMerger returns a Merger using cfg's thresholds.
func NewMerger(cfg config.Merger) *Merger {
	return &Merger{Gap: cfg.Gap, Padding: cfg.Padding}
}

// Merge combines vertically adjacent regions in a single pass.
//
// Regions are ordered by Y (stable) first. A region merges into the current
// bubble when the vertical gap between them is below Gap, both share the same
// alignment, and their left edges differ by less than Padding. A merged bubble
// covers the union of both rectangles and averages their intensities. The
// input slice is not modified.
func (m *Merger) Merge(regions []Bubble) []Bubble {
	sorted := make([]Bubble, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y < sorted[j].Y
	})

	merged := make([]Bubble, 0, len(sorted))
	for i, next := range sorted {
		if i == 0 {
			merged = append(merged, next)
			continue
		}
		cur := &merged[len(merged)-1]
		if m.mergeable(*cur, next) {
			*cur = union(*cur, next)
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

func (m *Merger) mergeable(cur, next Bubble) bool {
	if cur.IsLeftAligned != next.IsLeftAligned {
		return false
	}
	if next.Y-cur.Bottom() >= m.Gap {
		return false
	}
	dx := next.X - cur.X
	if dx < 0 {
		dx = -dx
	}
	return dx < m.Padding
}

func union(a, b Bubble) Bubble {
	r := a.Rect().Union(b.Rect())
	return Bubble{
		X:                r.Min.X,
		Y:                r.Min.Y,
		Width:            r.Dx(),
		Height:           r.Dy(),
		IsLeftAligned:    a.IsLeftAligned,
		AverageIntensity: (a.AverageIntensity + b.AverageIntensity) / 2,
	}
}
