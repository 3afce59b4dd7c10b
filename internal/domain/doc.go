// Package domain models National Weather Service (NWS) watch, warning and
// advisory data as displayed on a county map.
//
// # Alert Codes
//
// Every active alert is packed into 16 bits:
//
//	bits 0-7   kind: index into the phenomenon table, 0 = none
//	bits 8-15  severity: exactly one of
//	             0x8000 Warning   (VTEC significance W)
//	             0x4000 Advisory  (Y)
//	             0x2000 Watch     (A)
//	             0x1000 Statement (S)
//
// So 0x8005 is kind 5 (TO, Tornado) with severity Warning: a Tornado Warning.
//
// The phenomenon table follows the two-letter VTEC phenomena codes (TO, SV,
// WS, FF, ...). Kind 0 is reserved and is never looked up; name and color
// tables are sized by the real kinds only.
//
// # Colors
//
// Map colors are keyed by phenomenon plus significance letter ("TOW",
// "SVA") and follow the NWS public hazard map palette. Anything unmapped is
// drawn in the fallback grey #cccccc, which is also the basemap color.
//
// # Regions
//
// Regions are counties identified by their FIPS code without zero padding:
// state*1000 + county, e.g. 6087 for Santa Cruz, California. The state entry
// itself uses county 000 (6000 = California).
//
// # Primary Alert
//
// A county can carry several alerts at once. The first code in file order is
// the primary alert and decides the county's color. The data producer picks
// that order; nothing here re-ranks by severity.
package domain
