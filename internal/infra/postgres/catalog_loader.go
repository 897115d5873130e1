package postgres

import (
	"context"
	"fmt"

	"flag-quiz-service/internal/catalog"
	"flag-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads the country catalog from the countries table.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := l.pool.Query(ctx, `SELECT name, continent, code FROM countries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	defer rows.Close()

	var countries []domain.Country
	for rows.Next() {
		var (
			country   domain.Country
			continent string
		)
		if err := rows.Scan(&country.Name, &continent, &country.Code); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		country.Continent = domain.Region(continent)
		countries = append(countries, country)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	if len(countries) == 0 {
		return nil, fmt.Errorf("%w: countries table is empty", domain.ErrCatalogNotFound)
	}
	return catalog.New(countries)
}

// Seed inserts every country of c that the table does not already hold.
func (l *CatalogLoader) Seed(ctx context.Context, c *catalog.Catalog) (int, error) {
	batch := &pgx.Batch{}
	for _, country := range c.Countries() {
		batch.Queue(`INSERT INTO countries (name, continent, code) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
			country.Name, string(country.Continent), country.Code)
	}

	results := l.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("seed countries: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
