// Package render keeps a paint surface in sync with the displayed snapshot,
// repainting only regions whose primary alert changed.
package render

import "github.com/couchcryptid/storm-alert-map/internal/domain"

// ColorFunc resolves an alert code to a map color. It must return a fallback
// color for unknown codes and for domain.NoAlert.
type ColorFunc func(domain.AlertCode) domain.Color

// PaintFunc fills one region.
type PaintFunc func(domain.RegionID, domain.Color)

// ApplyDiff paints every region in the union of previous and next whose
// primary alert differs between them, or every region in the union when
// forceAll is set. It returns the number of paint calls made.
func ApplyDiff(previous, next domain.Snapshot, colorOf ColorFunc, paint PaintFunc, forceAll bool) int {
	painted := 0
	for id := range next {
		primary := next.Primary(id)
		if forceAll || primary != previous.Primary(id) {
			paint(id, colorOf(primary))
			painted++
		}
	}
	for id := range previous {
		if _, ok := next[id]; ok {
			continue
		}
		// Present before, gone now: the region reverts to the no-alert color.
		if forceAll || previous.Primary(id) != domain.NoAlert {
			paint(id, colorOf(domain.NoAlert))
			painted++
		}
	}
	return painted
}

// unionSize counts distinct regions across both snapshots.
func unionSize(previous, next domain.Snapshot) int {
	n := len(next)
	for id := range previous {
		if _, ok := next[id]; !ok {
			n++
		}
	}
	return n
}
