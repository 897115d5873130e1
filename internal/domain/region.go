package domain

import (
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Region groups countries by continent. All is a virtual aggregate.
type Region string

const (
	RegionAll           Region = "All"
	RegionAfrica        Region = "Africa"
	RegionAsia          Region = "Asia"
	RegionEurope        Region = "Europe"
	RegionNorthAmerica  Region = "North America"
	RegionSouthAmerica  Region = "South America"
	RegionOceania       Region = "Oceania"
	RegionAntarctica    Region = "Antarctica"
	RegionInternational Region = "International"
)

// Regions lists the closed set in display order.
var Regions = []Region{
	RegionAll,
	RegionAfrica,
	RegionAsia,
	RegionEurope,
	RegionNorthAmerica,
	RegionSouthAmerica,
	RegionOceania,
	RegionAntarctica,
	RegionInternational,
}

// Selectable reports whether players may pick the region directly.
// Antarctica and International only appear through All.
func (r Region) Selectable() bool {
	return r != RegionAntarctica && r != RegionInternational && r.Valid()
}

// Valid reports whether r belongs to the closed set.
func (r Region) Valid() bool {
	for _, known := range Regions {
		if r == known {
			return true
		}
	}
	return false
}

// Slug returns the URL form of the region, e.g. "north-america".
func (r Region) Slug() string {
	return slug.Make(string(r))
}

// SelectableRegions returns the regions offered for selection, All first.
func SelectableRegions() []Region {
	out := make([]Region, 0, len(Regions))
	for _, r := range Regions {
		if r.Selectable() {
			out = append(out, r)
		}
	}
	return out
}

var titleCaser = cases.Title(language.English)

// ParseRegion accepts a display name in any casing or a slug.
func ParseRegion(raw string) (Region, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrUnknownRegion
	}
	candidate := Region(titleCaser.String(strings.ReplaceAll(trimmed, "-", " ")))
	if candidate.Valid() {
		return candidate, nil
	}
	wanted := slug.Make(trimmed)
	for _, r := range Regions {
		if r.Slug() == wanted {
			return r, nil
		}
	}
	return "", ErrUnknownRegion
}
