// Command validate checks a binary alert time series and, optionally, the
// lookup tables served alongside it. It decodes the file, walks every step,
// and cross-checks regions against the click map and county names.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data data/weather.dat \
//	  -click-map data/clickmap.bin \
//	  -county-names data/county-names.json
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/hitindex"
	"github.com/couchcryptid/storm-alert-map/internal/playback"
	"github.com/couchcryptid/storm-alert-map/internal/timeseries"
)

// maxReported caps the detailed errors printed per phase.
const maxReported = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	skipped bool
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataPath := flag.String("data", "", "binary alert time series")
	clickMapPath := flag.String("click-map", "", "optional click map raster")
	namesPath := flag.String("county-names", "", "optional county names JSON")
	width := flag.Int("width", 960, "click map width")
	height := flag.Int("height", 600, "click map height")
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataPath, *clickMapPath, *namesPath, *width, *height); code != 0 {
		os.Exit(code)
	}
}

func run(dataPath, clickMapPath, namesPath string, width, height int) int {
	fmt.Println("=== Alert Time Series Validation ===")
	fmt.Println()

	buf, err := os.ReadFile(dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read data: %v\n", err)
		return 1
	}
	ts, err := timeseries.Load(buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode data: %v\n", err)
		return 1
	}

	var hits *hitindex.Index
	if clickMapPath != "" {
		raw, err := os.ReadFile(clickMapPath)
		if err == nil {
			hits, err = hitindex.Load(raw, width, height)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load click map: %v\n", err)
			return 1
		}
	}

	var names domain.CountyNames
	if namesPath != "" {
		f, err := os.Open(namesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: open county names: %v\n", err)
			return 1
		}
		names, err = domain.LoadCountyNames(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
	}

	regions := dataRegions(ts)
	phases := []*phase{
		validateSteps(ts),
		validateCatalog(ts),
		validateClickMap(regions, hits),
		validateCountyNames(regions, names),
	}

	st := ts.Stats()
	fmt.Printf("Range: %s .. %s, step %ds\n",
		playback.FormatTime(ts.MinTime()), playback.FormatTime(ts.LastStep()), ts.StepInterval()/1000)
	fmt.Printf("Steps: %d (%d empty), groups: %d, pairs: %d, distinct alerts: %d, max regions in a step: %d\n",
		st.Steps, st.EmptySteps, st.Groups, st.Pairs, st.DistinctCodes, st.MaxRegions)
	fmt.Printf("Regions with alerts: %d\n", len(regions))
	fmt.Println()

	if report(os.Stdout, phases) {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// report prints each phase's status, then up to maxReported errors for
// every failed phase. It returns true when no phase failed.
func report(w io.Writer, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "SKIP"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors[:min(len(p.errors), maxReported)] {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		if n := len(p.errors) - maxReported; n > 0 {
			fmt.Fprintf(w, "  ... and %d more\n", n)
		}
	}
	return allPassed
}

func dataRegions(ts *timeseries.TimeSeries) []domain.RegionID {
	seen := map[domain.RegionID]struct{}{}
	for k := range ts.StepCount() {
		for id := range ts.SnapshotAtStep(k) {
			seen[id] = struct{}{}
		}
	}
	ids := make([]domain.RegionID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ── Phase 1: Step records ──

func validateSteps(ts *timeseries.TimeSeries) *phase {
	p := &phase{name: "Phase 1: Step records"}
	for k := range ts.StepCount() {
		for id, codes := range ts.SnapshotAtStep(k) {
			if id == domain.NoRegion {
				p.errorf("step %d: region 0 carries %d alerts", k, len(codes))
			}
			if len(codes) == 0 {
				p.errorf("step %d: region %d has an empty alert list", k, id)
			}
			for i, c := range codes {
				if slices.Contains(codes[:i], c) {
					p.errorf("step %d: region %d lists %s twice", k, id, c)
				}
			}
		}
	}
	return p
}

// ── Phase 2: Alert catalog ──

func validateCatalog(ts *timeseries.TimeSeries) *phase {
	p := &phase{name: "Phase 2: Alert catalog coverage"}
	catalog := domain.NewAlertCatalog()
	reported := map[domain.AlertCode]bool{}
	for k := range ts.StepCount() {
		for _, codes := range ts.SnapshotAtStep(k) {
			for _, c := range codes {
				if reported[c] {
					continue
				}
				if _, err := c.Decode(); err != nil {
					p.errorf("step %d: %v", k, err)
					reported[c] = true
				} else if catalog.FullName(c) == "" {
					p.errorf("step %d: alert %s has no name", k, c)
					reported[c] = true
				}
			}
		}
	}
	return p
}

// ── Phase 3: Click map ──

func validateClickMap(regions []domain.RegionID, hits *hitindex.Index) *phase {
	p := &phase{name: "Phase 3: Click map coverage"}
	if hits == nil {
		p.skipped = true
		return p
	}
	onMap := map[domain.RegionID]bool{}
	for x := range hits.Width() {
		for y := range hits.Height() {
			onMap[hits.RegionAt(x, y)] = true
		}
	}
	for _, id := range regions {
		if !onMap[id] {
			p.errorf("region %d has alerts but no pixels on the click map", id)
		}
	}
	return p
}

// ── Phase 4: County names ──

func validateCountyNames(regions []domain.RegionID, names domain.CountyNames) *phase {
	p := &phase{name: "Phase 4: County names"}
	if names == nil {
		p.skipped = true
		return p
	}
	for _, id := range regions {
		if names.DisplayName(id) == "" {
			p.errorf("region %d has alerts but no display name", id)
		}
	}
	return p
}
