// Package hitindex answers "which region is under this pixel" in constant
// time from a precomputed raster of region IDs.
package hitindex

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
)

// Index is a dense width×height raster stored column-major: the cell for
// pixel (x, y) lives at x*height + y.
type Index struct {
	width  int
	height int
	cells  []domain.RegionID
}

// New wraps cells, which must hold exactly width*height entries.
func New(width, height int, cells []domain.RegionID) (*Index, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("hit index dimensions %dx%d must be positive", width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("hit index has %d cells, want %d for %dx%d", len(cells), width*height, width, height)
	}
	return &Index{width: width, height: height, cells: cells}, nil
}

// Load decodes a raster of little-endian u16 region IDs.
func Load(buf []byte, width, height int) (*Index, error) {
	if len(buf) != 2*width*height {
		return nil, fmt.Errorf("hit map is %d bytes, want %d for %dx%d", len(buf), 2*width*height, width, height)
	}
	cells := make([]domain.RegionID, width*height)
	for i := range cells {
		cells[i] = domain.RegionID(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return New(width, height, cells)
}

func (ix *Index) Width() int  { return ix.width }
func (ix *Index) Height() int { return ix.height }

// RegionAt returns the region covering pixel (x, y), or NoRegion when the
// pixel is empty or outside the raster.
func (ix *Index) RegionAt(x, y int) domain.RegionID {
	if x < 0 || y < 0 || x >= ix.width || y >= ix.height {
		return domain.NoRegion
	}
	return ix.cells[x*ix.height+y]
}

// RegionAtScaled maps a point on a surface drawn at scale times the raster's
// native size back onto the raster.
func (ix *Index) RegionAtScaled(x, y, scale float64) domain.RegionID {
	if scale <= 0 || math.IsNaN(x) || math.IsNaN(y) {
		return domain.NoRegion
	}
	px := math.Floor(x / scale)
	py := math.Floor(y / scale)
	if px < 0 || py < 0 || px >= float64(ix.width) || py >= float64(ix.height) {
		return domain.NoRegion
	}
	return ix.RegionAt(int(px), int(py))
}
