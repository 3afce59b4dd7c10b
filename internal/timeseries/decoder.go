// Package timeseries decodes the step-indexed binary alert format.
//
// Layout, little-endian:
//
//	offset 0:  u32 minTimeSeconds
//	offset 4:  u32 maxTimeSeconds
//	offset 8:  u32 stepIntervalSeconds
//	offset 12: u32[N] stepOffsets   N = (max-min)/step
//
// stepOffsets[k] is an index in 16-bit elements into the same buffer. At
// that index the step record is a run of groups
//
//	u16 alertCode, u16 count, u16[count] regionIDs
//
// terminated by a u16 alertCode of 0.
package timeseries

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
)

const headerSize = 12

var le = binary.LittleEndian

var (
	// ErrTruncated means the buffer ends before the header or offset table does.
	ErrTruncated = errors.New("time series truncated")
	// ErrMalformed means a step record is unreadable or breaks a format invariant.
	ErrMalformed = errors.New("time series malformed")
)

// DecodeError describes where a load failed. It wraps ErrTruncated or
// ErrMalformed.
type DecodeError struct {
	Err    error
	Step   int // -1 when the failure is in the header or offset table
	Offset int // byte offset of the failure
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("%v: %s (byte %d)", e.Err, e.Reason, e.Offset)
	}
	return fmt.Sprintf("%v: step %d: %s (byte %d)", e.Err, e.Step, e.Reason, e.Offset)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TimeSeries is an immutable, decoded view over a binary alert buffer.
// Times are epoch milliseconds.
type TimeSeries struct {
	buf     []byte
	minTime int64
	maxTime int64
	step    int64
	offsets []uint32
}

// Load validates buf and builds the offset table. The buffer is retained, not
// copied, and must not be modified afterwards. Every step record is walked
// once so later SnapshotAt calls cannot run off the end of the buffer.
func Load(buf []byte) (*TimeSeries, error) {
	if len(buf) < headerSize {
		return nil, &DecodeError{Err: ErrTruncated, Step: -1, Offset: len(buf), Reason: "short header"}
	}

	minSec := le.Uint32(buf[0:4])
	maxSec := le.Uint32(buf[4:8])
	stepSec := le.Uint32(buf[8:12])

	switch {
	case stepSec == 0:
		return nil, &DecodeError{Err: ErrMalformed, Step: -1, Offset: 8, Reason: "zero step interval"}
	case maxSec <= minSec:
		return nil, &DecodeError{Err: ErrMalformed, Step: -1, Offset: 4, Reason: "max time not after min time"}
	case (maxSec-minSec)%stepSec != 0:
		return nil, &DecodeError{Err: ErrMalformed, Step: -1, Offset: 8, Reason: "time range is not a multiple of the step interval"}
	}

	n := int((maxSec - minSec) / stepSec)
	tableEnd := headerSize + 4*n
	if len(buf) < tableEnd {
		return nil, &DecodeError{Err: ErrTruncated, Step: -1, Offset: len(buf), Reason: fmt.Sprintf("offset table needs %d bytes", tableEnd)}
	}

	offsets := make([]uint32, n)
	for k := range offsets {
		offsets[k] = le.Uint32(buf[headerSize+4*k:])
	}

	ts := &TimeSeries{
		buf:     buf,
		minTime: int64(minSec) * 1000,
		maxTime: int64(maxSec) * 1000,
		step:    int64(stepSec) * 1000,
		offsets: offsets,
	}
	for k := range offsets {
		if err := ts.validateStep(k); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// validateStep walks step k to its terminator, checking bounds, that every
// code has a kind and exactly one severity bit, and that no alert code
// repeats within the step.
func (ts *TimeSeries) validateStep(k int) error {
	pos := int(ts.offsets[k]) * 2
	seen := make([]domain.AlertCode, 0, 8)

	for {
		if pos+2 > len(ts.buf) {
			return &DecodeError{Err: ErrMalformed, Step: k, Offset: pos, Reason: "terminator not reached"}
		}
		code := domain.AlertCode(le.Uint16(ts.buf[pos:]))
		if code == domain.NoAlert {
			return nil
		}
		if _, err := code.Decode(); err != nil {
			return &DecodeError{Err: ErrMalformed, Step: k, Offset: pos, Reason: err.Error()}
		}
		for _, c := range seen {
			if c == code {
				return &DecodeError{Err: ErrMalformed, Step: k, Offset: pos, Reason: fmt.Sprintf("alert %s repeated", code)}
			}
		}
		seen = append(seen, code)

		if pos+4 > len(ts.buf) {
			return &DecodeError{Err: ErrMalformed, Step: k, Offset: pos, Reason: "group length missing"}
		}
		count := int(le.Uint16(ts.buf[pos+2:]))
		pos += 4 + 2*count
		if pos > len(ts.buf) {
			return &DecodeError{Err: ErrMalformed, Step: k, Offset: pos, Reason: fmt.Sprintf("group of %d regions overruns buffer", count)}
		}
	}
}

// MinTime is the first step's time.
func (ts *TimeSeries) MinTime() int64 { return ts.minTime }

// MaxTime is the exclusive end of the series.
func (ts *TimeSeries) MaxTime() int64 { return ts.maxTime }

// StepInterval is the width of one step in milliseconds.
func (ts *TimeSeries) StepInterval() int64 { return ts.step }

// StepCount is the number of steps N.
func (ts *TimeSeries) StepCount() int { return len(ts.offsets) }

// LastStep is the time of the final step, maxTime - stepInterval.
func (ts *TimeSeries) LastStep() int64 { return ts.maxTime - ts.step }

// TimeAt returns the time of step k.
func (ts *TimeSeries) TimeAt(k int) int64 { return ts.minTime + int64(k)*ts.step }

// StepIndex maps a time to its step. ok is false when t is misaligned or
// outside [MinTime, LastStep].
func (ts *TimeSeries) StepIndex(t int64) (k int, ok bool) {
	d := t - ts.minTime
	if d < 0 || d%ts.step != 0 {
		return 0, false
	}
	k = int(d / ts.step)
	return k, k < len(ts.offsets)
}

// SnapshotAt returns the alerts active at step-aligned time t. Times that do
// not name a step yield an empty snapshot.
func (ts *TimeSeries) SnapshotAt(t int64) domain.Snapshot {
	k, ok := ts.StepIndex(t)
	if !ok {
		return domain.Snapshot{}
	}
	return ts.SnapshotAtStep(k)
}

// SnapshotAtStep decodes step k. Cost is linear in the (alert, region) pairs
// of that step only.
func (ts *TimeSeries) SnapshotAtStep(k int) domain.Snapshot {
	snap := domain.Snapshot{}
	if k < 0 || k >= len(ts.offsets) {
		return snap
	}

	pos := int(ts.offsets[k]) * 2
	for {
		code := domain.AlertCode(le.Uint16(ts.buf[pos:]))
		if code == domain.NoAlert {
			return snap
		}
		count := int(le.Uint16(ts.buf[pos+2:]))
		pos += 4
		for i := 0; i < count; i++ {
			id := domain.RegionID(le.Uint16(ts.buf[pos:]))
			snap[id] = append(snap[id], code)
			pos += 2
		}
	}
}

// Stats summarizes a whole series.
type Stats struct {
	Steps         int
	Groups        int
	Pairs         int
	DistinctCodes int
	MaxRegions    int // most regions with an alert in a single step
	EmptySteps    int
}

// Stats walks every step. It is linear in the dataset size and meant for
// tooling, not the playback path.
func (ts *TimeSeries) Stats() Stats {
	st := Stats{Steps: len(ts.offsets)}
	codes := make(map[domain.AlertCode]struct{})

	for k := range ts.offsets {
		pos := int(ts.offsets[k]) * 2
		regions := make(map[domain.RegionID]struct{})
		for {
			code := domain.AlertCode(le.Uint16(ts.buf[pos:]))
			if code == domain.NoAlert {
				break
			}
			count := int(le.Uint16(ts.buf[pos+2:]))
			pos += 4
			st.Groups++
			st.Pairs += count
			codes[code] = struct{}{}
			for i := 0; i < count; i++ {
				regions[domain.RegionID(le.Uint16(ts.buf[pos:]))] = struct{}{}
				pos += 2
			}
		}
		if len(regions) == 0 {
			st.EmptySteps++
		}
		st.MaxRegions = max(st.MaxRegions, len(regions))
	}
	st.DistinctCodes = len(codes)
	return st
}
