// Command genmock builds a binary alert time series from a CSV listing of
// alert intervals. Each row is one alert over one or more counties:
//
//	issued,expires,phenomenon,significance,fips
//	2018-01-01T00:00:00Z,2018-01-01T01:00:00Z,TO,W,6087 6081
//
// Rows are written in file order, which makes the first row covering a
// county at a given step that county's map color.
//
// Usage:
//
//	go run ./cmd/genmock -csv data/mock/alerts.csv -out data/weather.dat
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/timeseries"
)

// alertRecord is one parsed CSV row.
type alertRecord struct {
	line    int
	issued  time.Time
	expires time.Time
	code    domain.AlertCode
	regions []domain.RegionID
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "CSV file of alert intervals")
	out := flag.String("out", "", "output path for the binary time series")
	step := flag.Duration("step", 15*time.Minute, "step interval")
	flag.Parse()

	if *csvPath == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -out")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	records, err := parseRecords(f)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}
	log.Printf("%s: %d alerts", *csvPath, len(records))

	buf, err := encode(records, *step)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf, 0o600); err != nil {
		return fmt.Errorf("writing time series: %w", err)
	}
	log.Printf("wrote time series: %s (%d bytes)", *out, len(buf))

	printStats(records)
	return nil
}

func parseRecords(r io.Reader) ([]alertRecord, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	records := make([]alertRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		rec.line = i + 2
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, idx map[string]int) (alertRecord, error) {
	issued, err := time.Parse(time.RFC3339, get(row, idx, "issued"))
	if err != nil {
		return alertRecord{}, fmt.Errorf("issued: %w", err)
	}
	expires, err := time.Parse(time.RFC3339, get(row, idx, "expires"))
	if err != nil {
		return alertRecord{}, fmt.Errorf("expires: %w", err)
	}
	if !expires.After(issued) {
		return alertRecord{}, fmt.Errorf("expires %s is not after issued %s", expires.Format(time.RFC3339), issued.Format(time.RFC3339))
	}

	phenomenon := strings.ToUpper(get(row, idx, "phenomenon"))
	kind, ok := domain.KindOf(phenomenon)
	if !ok {
		return alertRecord{}, fmt.Errorf("unknown phenomenon %q", phenomenon)
	}
	sev, err := domain.ParseSeverity(get(row, idx, "significance"))
	if err != nil {
		return alertRecord{}, err
	}

	var regions []domain.RegionID
	for _, field := range strings.Fields(get(row, idx, "fips")) {
		fips, err := strconv.ParseUint(field, 10, 16)
		if err != nil || fips == 0 {
			return alertRecord{}, fmt.Errorf("invalid fips %q", field)
		}
		regions = append(regions, domain.RegionID(fips))
	}
	if len(regions) == 0 {
		return alertRecord{}, fmt.Errorf("no fips codes")
	}

	return alertRecord{
		issued:  issued.UTC(),
		expires: expires.UTC(),
		code:    domain.NewAlertCode(kind, sev),
		regions: regions,
	}, nil
}

// encode covers every record with whole steps: the series starts at the
// earliest issue time rounded down and ends at the latest expiry rounded up.
func encode(records []alertRecord, step time.Duration) ([]byte, error) {
	start, end := records[0].issued, records[0].expires
	for _, rec := range records[1:] {
		if rec.issued.Before(start) {
			start = rec.issued
		}
		if rec.expires.After(end) {
			end = rec.expires
		}
	}
	start = start.Truncate(step)
	if t := end.Truncate(step); !t.Equal(end) {
		end = t.Add(step)
	}

	enc, err := timeseries.NewEncoder(start, end, step)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := enc.AddInterval(rec.issued, rec.expires, rec.code, rec.regions...); err != nil {
			return nil, fmt.Errorf("line %d: %w", rec.line, err)
		}
	}
	return enc.Bytes()
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

type codeCount struct {
	code  domain.AlertCode
	count int
}

func printStats(records []alertRecord) {
	catalog := domain.NewAlertCatalog()
	counts := map[domain.AlertCode]int{}
	counties := map[domain.RegionID]struct{}{}
	for _, rec := range records {
		counts[rec.code]++
		for _, id := range rec.regions {
			counties[id] = struct{}{}
		}
	}

	cc := make([]codeCount, 0, len(counts))
	for c, n := range counts {
		cc = append(cc, codeCount{c, n})
	}
	sort.Slice(cc, func(i, j int) bool { return cc[i].count > cc[j].count })

	fmt.Println("\n=== Alert stats ===")
	fmt.Printf("Alerts: %d over %d counties\n", len(records), len(counties))
	for _, c := range cc {
		fmt.Printf("  %s %-32s %d\n", c.code, catalog.FullName(c.code), c.count)
	}
}
