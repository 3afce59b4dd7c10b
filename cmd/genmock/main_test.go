package main

import (
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/timeseries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `issued,expires,phenomenon,significance,fips
2018-01-01T00:10:00Z,2018-01-01T01:00:00Z,TO,W,6087 6081
2018-01-01T00:30:00Z,2018-01-01T02:05:00Z,WW,Y,6087
`

func TestParseRecords(t *testing.T) {
	records, err := parseRecords(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, domain.AlertCode(0x8005), records[0].code)
	assert.Equal(t, []domain.RegionID{6087, 6081}, records[0].regions)
	assert.Equal(t, 3, records[1].line)
}

func TestParseRecords_Rejects(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"unknown phenomenon", "2018-01-01T00:00:00Z,2018-01-01T01:00:00Z,ZZ,W,6087"},
		{"bad significance", "2018-01-01T00:00:00Z,2018-01-01T01:00:00Z,TO,Q,6087"},
		{"zero fips", "2018-01-01T00:00:00Z,2018-01-01T01:00:00Z,TO,W,0"},
		{"no fips", "2018-01-01T00:00:00Z,2018-01-01T01:00:00Z,TO,W,"},
		{"inverted interval", "2018-01-01T01:00:00Z,2018-01-01T00:00:00Z,TO,W,6087"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRecords(strings.NewReader("issued,expires,phenomenon,significance,fips\n" + tt.row + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestEncode_CoversRecordsWithWholeSteps(t *testing.T) {
	records, err := parseRecords(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	buf, err := encode(records, 15*time.Minute)
	require.NoError(t, err)
	ts, err := timeseries.Load(buf)
	require.NoError(t, err)

	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start.UnixMilli(), ts.MinTime())
	assert.Equal(t, start.Add(2*time.Hour+15*time.Minute).UnixMilli(), ts.MaxTime())

	// 00:00 starts before the warning was issued.
	assert.Empty(t, ts.SnapshotAtStep(0))
	// 00:30: both alerts, warning first in file order.
	assert.Equal(t, []domain.AlertCode{0x8005, records[1].code}, ts.SnapshotAtStep(2).Alerts(6087))
	// 01:00: the warning has expired.
	assert.Equal(t, []domain.AlertCode{records[1].code}, ts.SnapshotAtStep(4).Alerts(6087))
	assert.Empty(t, ts.SnapshotAtStep(4).Alerts(6081))
}
