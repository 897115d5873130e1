// Package catalog holds the read-only country list the quiz draws from.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"flag-quiz-service/internal/domain"
	"github.com/gosimple/unidecode"
)

//go:embed countries.json
var embeddedCountries []byte

// Loader fetches the catalog from a backing source (embedded data, file, S3, Postgres).
type Loader interface {
	LoadCatalog(ctx context.Context) (*Catalog, error)
}

// Catalog is an immutable, name-unique list of countries.
type Catalog struct {
	countries []domain.Country
	byName    map[string]int
}

// New validates countries and builds a catalog. Names must be unique and
// every continent must be a concrete region.
func New(countries []domain.Country) (*Catalog, error) {
	c := &Catalog{
		countries: make([]domain.Country, 0, len(countries)),
		byName:    make(map[string]int, len(countries)),
	}
	for _, country := range countries {
		country.Name = strings.TrimSpace(country.Name)
		country.Code = strings.ToLower(strings.TrimSpace(country.Code))
		if country.Name == "" || country.Code == "" {
			return nil, fmt.Errorf("catalog entry %q: name and code are required", country.Name)
		}
		if !country.Continent.Valid() || country.Continent == domain.RegionAll {
			return nil, fmt.Errorf("catalog entry %q: %w: %q", country.Name, domain.ErrUnknownRegion, country.Continent)
		}
		key := normalize(country.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateCountry, country.Name)
		}
		c.byName[key] = len(c.countries)
		c.countries = append(c.countries, country)
	}
	return c, nil
}

// Parse decodes a JSON array of {name, continent, code} records.
func Parse(data []byte) (*Catalog, error) {
	var countries []domain.Country
	if err := json.Unmarshal(data, &countries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(countries)
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(embeddedCountries)
}

// Len is the number of countries.
func (c *Catalog) Len() int {
	return len(c.countries)
}

// Countries returns a copy of every country in load order.
func (c *Catalog) Countries() []domain.Country {
	out := make([]domain.Country, len(c.countries))
	copy(out, c.countries)
	return out
}

// Filter returns the pool for a region; All returns the whole catalog.
func (c *Catalog) Filter(region domain.Region) []domain.Country {
	if region == domain.RegionAll {
		return c.Countries()
	}
	out := make([]domain.Country, 0)
	for _, country := range c.countries {
		if country.Continent == region {
			out = append(out, country)
		}
	}
	return out
}

// Counts lists selectable regions with their pool sizes.
func (c *Catalog) Counts() []domain.RegionCount {
	perRegion := make(map[domain.Region]int)
	for _, country := range c.countries {
		perRegion[country.Continent]++
	}
	perRegion[domain.RegionAll] = len(c.countries)

	selectable := domain.SelectableRegions()
	out := make([]domain.RegionCount, 0, len(selectable))
	for _, r := range selectable {
		out = append(out, domain.RegionCount{Region: r, Slug: r.Slug(), Count: perRegion[r]})
	}
	return out
}

// Lookup finds a country by name, ignoring case and diacritics.
func (c *Catalog) Lookup(name string) (domain.Country, bool) {
	idx, ok := c.byName[normalize(name)]
	if !ok {
		return domain.Country{}, false
	}
	return c.countries[idx], true
}

// MarshalJSON encodes the catalog in the same shape Parse reads.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.countries)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(name)))
}

// FileLoader reads a catalog JSON file from disk.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) LoadCatalog(_ context.Context) (*Catalog, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, l.path)
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}
