package domain

import (
	"fmt"
	"slices"
)

// Severity is the significance bit carried in the high byte of an AlertCode.
type Severity uint16

const (
	SeverityStatement Severity = 0x1000
	SeverityWatch     Severity = 0x2000
	SeverityAdvisory  Severity = 0x4000
	SeverityWarning   Severity = 0x8000
)

// Valid reports whether s is exactly one of the four significance bits.
func (s Severity) Valid() bool {
	switch s {
	case SeverityStatement, SeverityWatch, SeverityAdvisory, SeverityWarning:
		return true
	default:
		return false
	}
}

// Name returns the long severity label, e.g. "Warning".
func (s Severity) Name() string {
	switch s {
	case SeverityWarning:
		return "Warning"
	case SeverityAdvisory:
		return "Advisory"
	case SeverityWatch:
		return "Watch"
	case SeverityStatement:
		return "Statement"
	default:
		return ""
	}
}

// ShortName returns the abbreviated label used on narrow displays.
func (s Severity) ShortName() string {
	switch s {
	case SeverityWarning:
		return "Wrn"
	case SeverityAdvisory:
		return "Adv"
	case SeverityWatch:
		return "Wtch"
	case SeverityStatement:
		return "Stmt"
	default:
		return ""
	}
}

// Letter returns the one-letter VTEC significance code (W, Y, A, S).
func (s Severity) Letter() string {
	switch s {
	case SeverityWarning:
		return "W"
	case SeverityAdvisory:
		return "Y"
	case SeverityWatch:
		return "A"
	case SeverityStatement:
		return "S"
	default:
		return ""
	}
}

// ParseSeverity accepts either a VTEC letter ("W") or a long name ("Warning").
func ParseSeverity(s string) (Severity, error) {
	for _, sev := range []Severity{SeverityWarning, SeverityAdvisory, SeverityWatch, SeverityStatement} {
		if s == sev.Letter() || s == sev.Name() {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Kind indexes the phenomenon table. Kind 0 is reserved for "no alert".
type Kind uint8

// KindNone is the sentinel kind; it never appears in a lookup table.
const KindNone Kind = 0

// AlertCode is the packed wire form of one alert: kind in the low byte,
// severity bit in the high byte.
type AlertCode uint16

// NoAlert terminates a step record and stands for "no active alert" when diffing.
const NoAlert AlertCode = 0

// Alert is the decoded form of an AlertCode.
type Alert struct {
	Kind     Kind
	Severity Severity
}

// Code packs the alert back into its wire form.
func (a Alert) Code() AlertCode {
	return NewAlertCode(a.Kind, a.Severity)
}

// NewAlertCode packs a kind and severity.
func NewAlertCode(k Kind, s Severity) AlertCode {
	return AlertCode(uint16(s)&0xFF00 | uint16(k))
}

func (c AlertCode) Kind() Kind { return Kind(c & 0x00FF) }

func (c AlertCode) Severity() Severity { return Severity(c & 0xFF00) }

// Decode validates the packing and returns the tagged form. The kind index
// is only checked for being non-zero; whether it names a known phenomenon is
// a catalog concern.
func (c AlertCode) Decode() (Alert, error) {
	if c == NoAlert {
		return Alert{}, fmt.Errorf("alert code 0 is the terminator")
	}
	if c.Kind() == KindNone {
		return Alert{}, fmt.Errorf("alert code %s has no kind", c)
	}
	if !c.Severity().Valid() {
		return Alert{}, fmt.Errorf("alert code %s has invalid severity bits", c)
	}
	return Alert{Kind: c.Kind(), Severity: c.Severity()}, nil
}

func (c AlertCode) String() string {
	return fmt.Sprintf("0x%04X", uint16(c))
}

// RegionID identifies a county by its numeric FIPS code (state*1000 + county).
// Zero means "no region".
type RegionID uint16

// NoRegion is returned by lookups that hit nothing.
const NoRegion RegionID = 0

// Snapshot maps each region with at least one active alert to its alert
// codes, in file order. The first code is the primary alert used for map
// coloring. Regions without alerts are absent. Snapshots are shared between
// the renderer, the selection tracker and caches and must not be mutated
// once built.
type Snapshot map[RegionID][]AlertCode

// Primary returns the code used for coloring id, or NoAlert.
func (s Snapshot) Primary(id RegionID) AlertCode {
	if codes := s[id]; len(codes) > 0 {
		return codes[0]
	}
	return NoAlert
}

// Alerts returns the codes active for id, or nil.
func (s Snapshot) Alerts(id RegionID) []AlertCode {
	return s[id]
}

// Regions returns the region IDs in ascending order.
func (s Snapshot) Regions() []RegionID {
	ids := make([]RegionID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
