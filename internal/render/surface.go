package render

import (
	"maps"
	"sync"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
)

// Surface is the drawing target: a canvas, a vector layer or a remote sink.
type Surface interface {
	PaintRegion(id domain.RegionID, color domain.Color)
	// DrawOutline highlights one region; domain.NoRegion clears the outline.
	DrawOutline(id domain.RegionID)
	ResizeTo(width, height int)
}

// Flusher is implemented by surfaces that buffer paint calls per frame.
type Flusher interface {
	Flush() error
}

// MultiSurface fans every call out to each surface in order.
type MultiSurface []Surface

func (m MultiSurface) PaintRegion(id domain.RegionID, color domain.Color) {
	for _, s := range m {
		s.PaintRegion(id, color)
	}
}

func (m MultiSurface) DrawOutline(id domain.RegionID) {
	for _, s := range m {
		s.DrawOutline(id)
	}
}

func (m MultiSurface) ResizeTo(width, height int) {
	for _, s := range m {
		s.ResizeTo(width, height)
	}
}

// Flush flushes every member that buffers and returns the first error.
func (m MultiSurface) Flush() error {
	var first error
	for _, s := range m {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Canvas is an in-memory Surface recording the last color painted into each
// region. It backs headless playback and the HTTP inspection API.
type Canvas struct {
	mu      sync.RWMutex
	colors  map[domain.RegionID]domain.Color
	outline domain.RegionID
	width   int
	height  int
	paints  int
}

func NewCanvas() *Canvas {
	return &Canvas{colors: make(map[domain.RegionID]domain.Color)}
}

func (c *Canvas) PaintRegion(id domain.RegionID, color domain.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colors[id] = color
	c.paints++
}

func (c *Canvas) DrawOutline(id domain.RegionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outline = id
}

// ResizeTo records the new size and clears every region back to the basemap.
func (c *Canvas) ResizeTo(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	clear(c.colors)
}

// ColorOf returns the last color painted into id.
func (c *Canvas) ColorOf(id domain.RegionID) (domain.Color, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	col, ok := c.colors[id]
	return col, ok
}

// Colors returns a copy of every painted region's color.
func (c *Canvas) Colors() map[domain.RegionID]domain.Color {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.colors)
}

func (c *Canvas) Outline() domain.RegionID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.outline
}

func (c *Canvas) Size() (width, height int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// Paints is the total number of PaintRegion calls received.
func (c *Canvas) Paints() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paints
}
