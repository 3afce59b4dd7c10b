package playback

import "time"

const (
	// MaxSpeedLevel is the fastest setting; the speed button wraps after it.
	MaxSpeedLevel = 4
	// DefaultSpeedLevel is the level playback starts at.
	DefaultSpeedLevel = 3
)

// Speed is the tick cadence and how many steps each tick advances.
type Speed struct {
	Delay      time.Duration
	Multiplier int
}

var speeds = [MaxSpeedLevel + 1]Speed{
	{Delay: 96 * time.Millisecond, Multiplier: 1},
	{Delay: 48 * time.Millisecond, Multiplier: 1},
	{Delay: 24 * time.Millisecond, Multiplier: 1},
	{Delay: 24 * time.Millisecond, Multiplier: 2},
	{Delay: 24 * time.Millisecond, Multiplier: 4},
}

// SpeedFor returns the setting for level. Levels outside 0..MaxSpeedLevel
// get the single-step 24ms cadence.
func SpeedFor(level int) Speed {
	if level < 0 || level > MaxSpeedLevel {
		return Speed{Delay: 24 * time.Millisecond, Multiplier: 1}
	}
	return speeds[level]
}
