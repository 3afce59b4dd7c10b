package render

import (
	"log/slog"
	"sync"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/observability"
)

// Renderer owns the snapshot last drawn to a surface. Each call paints and
// flushes under one lock, so an outline drawn from a pointer event never
// splits a frame's batch on a buffered surface.
type Renderer struct {
	mu       sync.Mutex
	surface  Surface
	colorOf  ColorFunc
	previous domain.Snapshot
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewRenderer creates a Renderer that starts from an empty map.
func NewRenderer(surface Surface, colorOf ColorFunc, logger *slog.Logger, metrics *observability.Metrics) *Renderer {
	return &Renderer{
		surface:  surface,
		colorOf:  colorOf,
		previous: domain.Snapshot{},
		logger:   logger,
		metrics:  metrics,
	}
}

// Render diffs next against the last drawn snapshot and paints the changes.
// The previous-snapshot cell is replaced only after painting completes.
func (r *Renderer) Render(next domain.Snapshot) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draw(next, false)
}

// Repaint redraws every region of the current snapshot, for use after the
// surface lost its content.
func (r *Renderer) Repaint() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draw(r.previous, true)
}

// Resize forwards the new size to the surface and repaints from ground truth.
func (r *Renderer) Resize(width, height int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface.ResizeTo(width, height)
	return r.draw(r.previous, true)
}

// DrawOutline highlights id on the surface. It satisfies selection.Outliner.
func (r *Renderer) DrawOutline(id domain.RegionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface.DrawOutline(id)
	r.flush()
}

// Previous returns the snapshot currently on the surface.
func (r *Renderer) Previous() domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.previous
}

// Reset forgets the drawn state so the next Render paints everything, and
// clears regions that the previous dataset left colored.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draw(domain.Snapshot{}, false)
}

func (r *Renderer) draw(next domain.Snapshot, forceAll bool) int {
	if next == nil {
		next = domain.Snapshot{}
	}
	painted := ApplyDiff(r.previous, next, r.colorOf, r.surface.PaintRegion, forceAll)
	skipped := unionSize(r.previous, next) - painted
	r.previous = next
	r.flush()

	r.metrics.RegionsPainted.Add(float64(painted))
	r.metrics.PaintSkipped.Add(float64(skipped))
	r.metrics.ActiveRegions.Set(float64(len(next)))
	return painted
}

func (r *Renderer) flush() {
	f, ok := r.surface.(Flusher)
	if !ok {
		return
	}
	if err := f.Flush(); err != nil {
		r.logger.Warn("surface flush failed", "error", err)
	}
}
