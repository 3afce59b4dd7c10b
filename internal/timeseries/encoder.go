package timeseries

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
)

// Group is one alert code and the regions it covers within a step.
type Group struct {
	Code    domain.AlertCode
	Regions []domain.RegionID
}

// Encoder builds the binary format step by step. Groups keep insertion
// order, which decides each region's primary alert.
type Encoder struct {
	minSec  uint32
	stepSec uint32
	steps   [][]Group
}

// NewEncoder prepares an empty series covering [start, end) in steps of
// step. Times are truncated to whole seconds.
func NewEncoder(start, end time.Time, step time.Duration) (*Encoder, error) {
	stepSec := int64(step / time.Second)
	minSec, maxSec := start.Unix(), end.Unix()

	switch {
	case stepSec <= 0:
		return nil, fmt.Errorf("step interval %s must be at least one second", step)
	case minSec < 0 || maxSec > math.MaxUint32:
		return nil, fmt.Errorf("time range %s..%s does not fit in u32 seconds", start, end)
	case maxSec <= minSec:
		return nil, fmt.Errorf("end %s must be after start %s", end, start)
	case (maxSec-minSec)%stepSec != 0:
		return nil, fmt.Errorf("range %ds is not a multiple of step %ds", maxSec-minSec, stepSec)
	}

	return &Encoder{
		minSec:  uint32(minSec),
		stepSec: uint32(stepSec),
		steps:   make([][]Group, (maxSec-minSec)/stepSec),
	}, nil
}

// StepCount is the number of steps in the series.
func (e *Encoder) StepCount() int { return len(e.steps) }

// Add records regions under code at step k. Adding the same code twice to a
// step extends the existing group rather than repeating it.
func (e *Encoder) Add(k int, code domain.AlertCode, regions ...domain.RegionID) error {
	if k < 0 || k >= len(e.steps) {
		return fmt.Errorf("step %d out of range [0, %d)", k, len(e.steps))
	}
	if _, err := code.Decode(); err != nil {
		return err
	}

	groups := e.steps[k]
	i := slices.IndexFunc(groups, func(g Group) bool { return g.Code == code })
	if i < 0 {
		groups = append(groups, Group{Code: code})
		i = len(groups) - 1
	}
	for _, id := range regions {
		if id == domain.NoRegion {
			return fmt.Errorf("region 0 is reserved")
		}
		if !slices.Contains(groups[i].Regions, id) {
			groups[i].Regions = append(groups[i].Regions, id)
		}
	}
	e.steps[k] = groups
	return nil
}

// AddInterval records code for every step whose start falls in [from, to).
// Parts of the interval outside the series are ignored.
func (e *Encoder) AddInterval(from, to time.Time, code domain.AlertCode, regions ...domain.RegionID) error {
	first := e.ceilStep(from.Unix())
	last := e.ceilStep(to.Unix())
	for k := max(first, 0); k < min(last, len(e.steps)); k++ {
		if err := e.Add(k, code, regions...); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) ceilStep(sec int64) int {
	d := sec - int64(e.minSec)
	step := int64(e.stepSec)
	if d <= 0 {
		return int(d / step)
	}
	return int((d + step - 1) / step)
}

// Bytes serializes the series.
func (e *Encoder) Bytes() ([]byte, error) {
	n := len(e.steps)
	size := headerSize + 4*n
	for _, groups := range e.steps {
		for _, g := range groups {
			if len(g.Regions) > math.MaxUint16 {
				return nil, fmt.Errorf("alert %s covers %d regions, more than a group can hold", g.Code, len(g.Regions))
			}
			size += 4 + 2*len(g.Regions)
		}
		size += 2
	}

	buf := make([]byte, size)
	le.PutUint32(buf[0:], e.minSec)
	le.PutUint32(buf[4:], e.minSec+uint32(n)*e.stepSec)
	le.PutUint32(buf[8:], e.stepSec)

	pos := headerSize + 4*n
	for k, groups := range e.steps {
		le.PutUint32(buf[headerSize+4*k:], uint32(pos/2))
		for _, g := range groups {
			le.PutUint16(buf[pos:], uint16(g.Code))
			le.PutUint16(buf[pos+2:], uint16(len(g.Regions)))
			pos += 4
			for _, id := range g.Regions {
				le.PutUint16(buf[pos:], uint16(id))
				pos += 2
			}
		}
		le.PutUint16(buf[pos:], uint16(domain.NoAlert))
		pos += 2
	}
	return buf, nil
}
