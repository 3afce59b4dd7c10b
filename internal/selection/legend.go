package selection

import (
	"strings"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
)

const (
	promptText  = "Select a county to see alerts."
	noAlertText = "No alerts"
)

// AlertNamer resolves alert codes for display.
type AlertNamer interface {
	FullName(domain.AlertCode) string
	ShortName(domain.AlertCode) string
	ColorFor(domain.AlertCode) domain.Color
}

// RegionNamer resolves a region's display name.
type RegionNamer interface {
	DisplayName(domain.RegionID) string
}

// LegendItem is one alert line with its swatch color.
type LegendItem struct {
	Name  string
	Color domain.Color
}

// Legend is the text content of the inspection panel.
type Legend struct {
	Title string
	Items []LegendItem
	// Note replaces Items when there is nothing to list.
	Note string
}

// Describe builds the legend for in. Compact uses short alert names for
// narrow displays. Alerts without a name are left out; if none remain the
// legend says "No alerts".
func Describe(in Inspection, alerts AlertNamer, regions RegionNamer, compact bool) Legend {
	if in.Region == domain.NoRegion {
		return Legend{Title: promptText}
	}

	lg := Legend{Title: regions.DisplayName(in.Region)}
	for _, code := range in.Alerts {
		name := alerts.FullName(code)
		if compact {
			name = alerts.ShortName(code)
		}
		if name == "" {
			continue
		}
		lg.Items = append(lg.Items, LegendItem{Name: name, Color: alerts.ColorFor(code)})
	}
	if len(lg.Items) == 0 {
		lg.Note = noAlertText
	}
	return lg
}

// String renders the legend as plain text, one alert per line.
func (l Legend) String() string {
	var b strings.Builder
	b.WriteString(l.Title)
	for _, it := range l.Items {
		b.WriteString("\n")
		b.WriteString(it.Color.Hex())
		b.WriteString(" ")
		b.WriteString(it.Name)
	}
	if l.Note != "" {
		b.WriteString("\n")
		b.WriteString(l.Note)
	}
	return b.String()
}
