package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// CountyNames maps unpadded FIPS codes to names. A state's name is stored
// under its county-000 code, so Alabama lives at 1000.
type CountyNames map[int]string

// LoadCountyNames decodes a JSON object of FIPS string keys to names.
func LoadCountyNames(r io.Reader) (CountyNames, error) {
	var raw map[string]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode county names: %w", err)
	}

	names := make(CountyNames, len(raw))
	for key, name := range raw {
		fips, err := strconv.Atoi(key)
		if err != nil || fips < 0 {
			return nil, fmt.Errorf("county names: invalid FIPS key %q", key)
		}
		names[fips] = name
	}
	return names, nil
}

// DisplayName returns "County, State" for id, just the county when the
// state is missing, and "" when the county is unknown.
func (n CountyNames) DisplayName(id RegionID) string {
	fips := int(id)
	county, ok := n[fips]
	if !ok || id == NoRegion {
		return ""
	}
	state, ok := n[fips-fips%1000]
	if !ok || fips%1000 == 0 {
		return county
	}
	return county + ", " + state
}
