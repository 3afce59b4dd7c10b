package playback

import (
	"fmt"
	"time"
)

// Mode names the controller's state-machine state.
type Mode int

const (
	ModePlaying Mode = iota
	ModePaused
	ModeRewinding
	ModeAtEnd
)

func (m Mode) String() string {
	switch m {
	case ModePlaying:
		return "playing"
	case ModePaused:
		return "paused"
	case ModeRewinding:
		return "rewinding"
	case ModeAtEnd:
		return "at_end"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// State is the PlaybackState. CurrentTime is always minTime + k*stepInterval
// and within [minTime, lastStep].
type State struct {
	CurrentTime    int64 // epoch milliseconds
	Paused         bool
	Rewinding      bool
	SpeedLevel     int
	StepDelay      time.Duration
	StepMultiplier int
}

// Mode derives the state-machine state. lastStep is the final step's time.
func (s State) Mode(lastStep int64) Mode {
	switch {
	case s.Paused:
		return ModePaused
	case s.Rewinding:
		return ModeRewinding
	case s.CurrentTime >= lastStep:
		return ModeAtEnd
	default:
		return ModePlaying
	}
}

// Frame is what observers see after a redraw or a state change.
type Frame struct {
	Seq            uint64
	State          State
	Mode           Mode
	TimeText       string
	SliderPosition int
	PlayButton     string
	SpeedButton    string
	Redrawn        bool
	Painted        int
	ActiveRegions  int
}

// Observer receives frames. Frames are delivered outside the controller's
// lock; Seq orders them when ticks and input race.
type Observer interface {
	OnTick(Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Frame)

func (f ObserverFunc) OnTick(fr Frame) { f(fr) }

// FormatTime renders an epoch-millisecond time the way the time display shows it.
func FormatTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04 UTC")
}
