// Package selection tracks which region the user is inspecting: the pinned
// (clicked) region if any, otherwise the hovered one.
package selection

import (
	"slices"
	"sync"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
)

// State is the raw hover and click state. Zero means none.
type State struct {
	Hovered domain.RegionID
	Clicked domain.RegionID
}

// Inspected returns the clicked region if set, otherwise the hovered one.
func (s State) Inspected() domain.RegionID {
	if s.Clicked != domain.NoRegion {
		return s.Clicked
	}
	return s.Hovered
}

// Inspection is what a legend needs to describe the inspected region.
type Inspection struct {
	Region domain.RegionID
	Pinned bool
	Alerts []domain.AlertCode
}

// Observer is notified whenever the inspected region or its alerts change.
type Observer interface {
	OnSelectionChanged(Inspection)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Inspection)

func (f ObserverFunc) OnSelectionChanged(in Inspection) { f(in) }

// Outliner draws the selection outline on the map surface.
type Outliner interface {
	DrawOutline(id domain.RegionID)
}

// Tracker owns the SelectionState. Observers and the outliner are called
// with the tracker's lock held and must not call back into it.
type Tracker struct {
	mu        sync.Mutex
	state     State
	snapshot  domain.Snapshot
	outlined  domain.RegionID
	outliner  Outliner
	observers []Observer
	last      Inspection
	notified  bool
}

// NewTracker creates a Tracker with nothing selected. outliner may be nil.
func NewTracker(outliner Outliner, observers ...Observer) *Tracker {
	return &Tracker{
		outliner:  outliner,
		observers: observers,
		snapshot:  domain.Snapshot{},
	}
}

// Subscribe adds an observer.
func (t *Tracker) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// OnHover records the region under the pointer. Ignored while a region is pinned.
func (t *Tracker) OnHover(id domain.RegionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Clicked != domain.NoRegion {
		return
	}
	t.state.Hovered = id
	t.changed()
}

// OnHoverEnd clears the hovered region when the pointer leaves the map.
func (t *Tracker) OnHoverEnd() {
	t.OnHover(domain.NoRegion)
}

// OnClick toggles the pin: clicking the pinned region (or empty map while
// something is pinned) unpins; clicking any other region pins it.
func (t *Tracker) OnClick(id domain.RegionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Hovered = id
	if t.state.Clicked == id {
		t.state.Clicked = domain.NoRegion
	} else {
		t.state.Clicked = id
	}
	t.changed()
}

// Update installs the snapshot of the frame now on screen.
func (t *Tracker) Update(snap domain.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if snap == nil {
		snap = domain.Snapshot{}
	}
	t.snapshot = snap
	t.changed()
}

// State returns the raw hover and click state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Inspected returns the region currently shown in the legend.
func (t *Tracker) Inspected() domain.RegionID {
	return t.State().Inspected()
}

// Inspection returns the inspected region with its current alerts.
func (t *Tracker) Inspection() Inspection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inspection()
}

func (t *Tracker) inspection() Inspection {
	id := t.state.Inspected()
	in := Inspection{
		Region: id,
		Pinned: t.state.Clicked != domain.NoRegion,
	}
	if id != domain.NoRegion {
		in.Alerts = slices.Clone(t.snapshot.Alerts(id))
	}
	return in
}

func (t *Tracker) changed() {
	in := t.inspection()

	if t.outliner != nil && in.Region != t.outlined {
		t.outliner.DrawOutline(in.Region)
		t.outlined = in.Region
	}

	if t.notified && in.Region == t.last.Region && in.Pinned == t.last.Pinned && slices.Equal(in.Alerts, t.last.Alerts) {
		return
	}
	t.last = in
	t.notified = true
	for _, o := range t.observers {
		o.OnSelectionChanged(in)
	}
}
