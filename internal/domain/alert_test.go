package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertCode_Decode(t *testing.T) {
	tests := []struct {
		name    string
		code    AlertCode
		want    Alert
		wantErr bool
	}{
		{"tornado warning", 0x8005, Alert{Kind: 5, Severity: SeverityWarning}, false},
		{"winter weather advisory", 0x4011, Alert{Kind: 17, Severity: SeverityAdvisory}, false},
		{"terminator", NoAlert, Alert{}, true},
		{"no kind", 0x8000, Alert{}, true},
		{"two severity bits", 0xC005, Alert{}, true},
		{"no severity", 0x0005, Alert{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.code.Decode()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.code, got.Code())
		})
	}
}

func TestParseSeverity(t *testing.T) {
	for _, in := range []string{"W", "Warning"} {
		sev, err := ParseSeverity(in)
		require.NoError(t, err)
		assert.Equal(t, SeverityWarning, sev)
	}
	sev, err := ParseSeverity("Y")
	require.NoError(t, err)
	assert.Equal(t, SeverityAdvisory, sev)

	_, err = ParseSeverity("X")
	assert.Error(t, err)
}

func TestSnapshot_Primary(t *testing.T) {
	snap := Snapshot{6001: {0x4011, 0x8005}}

	assert.Equal(t, AlertCode(0x4011), snap.Primary(6001))
	assert.Equal(t, NoAlert, snap.Primary(6003))
	assert.Equal(t, []AlertCode{0x4011, 0x8005}, snap.Alerts(6001))
	assert.Nil(t, snap.Alerts(6003))
}

func TestNow_UsesInjectedClock(t *testing.T) {
	frozen := time.Date(2018, time.January, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, frozen, Now())
}
