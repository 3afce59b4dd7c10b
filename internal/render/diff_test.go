package render

import (
	"testing"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
)

const (
	tornadoWarning = domain.AlertCode(0x8005)
	svrWatch       = domain.AlertCode(0x200C)
	wwAdvisory     = domain.AlertCode(0x4011)
)

var (
	grey  = colorful.Color{R: 0.8, G: 0.8, B: 0.8}
	red   = colorful.Color{R: 1}
	pink  = colorful.Color{R: 0.86, G: 0.44, B: 0.58}
	olive = colorful.Color{R: 0.48, G: 0.41, B: 0.93}
)

func testColors(code domain.AlertCode) domain.Color {
	switch code {
	case tornadoWarning:
		return red
	case svrWatch:
		return pink
	case wwAdvisory:
		return olive
	default:
		return grey
	}
}

type paintLog map[domain.RegionID]domain.Color

func (p paintLog) paint(id domain.RegionID, c domain.Color) { p[id] = c }

func TestApplyDiff_PaintsOnlyChangedPrimaries(t *testing.T) {
	previous := domain.Snapshot{
		1: {tornadoWarning},
		2: {svrWatch},
		3: {wwAdvisory, tornadoWarning},
		4: {svrWatch},
	}
	next := domain.Snapshot{
		1: {tornadoWarning},       // unchanged
		2: {tornadoWarning},       // new primary
		3: {wwAdvisory},           // primary unchanged, secondary dropped
		5: {svrWatch},             // new region
		6: {wwAdvisory, svrWatch}, // new region, multiple alerts
	}

	log := paintLog{}
	n := ApplyDiff(previous, next, testColors, log.paint, false)

	assert.Equal(t, 4, n)
	assert.Equal(t, paintLog{
		2: red,
		4: grey,
		5: pink,
		6: olive,
	}, log)
}

func TestApplyDiff_ForceAllPaintsUnion(t *testing.T) {
	previous := domain.Snapshot{1: {tornadoWarning}, 2: {svrWatch}}
	next := domain.Snapshot{1: {tornadoWarning}, 3: {wwAdvisory}}

	log := paintLog{}
	n := ApplyDiff(previous, next, testColors, log.paint, true)

	assert.Equal(t, 3, n)
	assert.Equal(t, paintLog{1: red, 2: grey, 3: olive}, log)
}

func TestApplyDiff_IdenticalSnapshotsPaintNothing(t *testing.T) {
	snap := domain.Snapshot{1: {tornadoWarning}, 2: {svrWatch, wwAdvisory}}

	n := ApplyDiff(snap, snap, testColors, func(domain.RegionID, domain.Color) {
		t.Fatal("paint called for unchanged snapshot")
	}, false)
	assert.Zero(t, n)
}

func TestApplyDiff_NilSnapshots(t *testing.T) {
	log := paintLog{}
	assert.Zero(t, ApplyDiff(nil, nil, testColors, log.paint, true))
	assert.Equal(t, 1, ApplyDiff(nil, domain.Snapshot{9: {svrWatch}}, testColors, log.paint, false))
	assert.Equal(t, 1, ApplyDiff(domain.Snapshot{9: {svrWatch}}, nil, testColors, log.paint, false))
	assert.Equal(t, grey, log[9])
}

func TestApplyDiff_NeverPaintsUnchangedPrimary(t *testing.T) {
	// Walk a sequence of frames and check every paint targets a region whose
	// primary really changed.
	frames := []domain.Snapshot{
		{},
		{1: {tornadoWarning}, 2: {svrWatch}},
		{1: {tornadoWarning, svrWatch}, 2: {svrWatch}, 3: {wwAdvisory}},
		{2: {wwAdvisory}, 3: {wwAdvisory}},
		{},
	}
	for i := 1; i < len(frames); i++ {
		prev, next := frames[i-1], frames[i]
		ApplyDiff(prev, next, testColors, func(id domain.RegionID, _ domain.Color) {
			assert.NotEqual(t, prev.Primary(id), next.Primary(id), "frame %d region %d", i, id)
		}, false)
	}
}

func TestUnionSize(t *testing.T) {
	assert.Equal(t, 3, unionSize(domain.Snapshot{1: nil, 2: nil}, domain.Snapshot{2: nil, 3: nil}))
	assert.Equal(t, 0, unionSize(nil, nil))
}
