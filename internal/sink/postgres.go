package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutomart/pricescout/internal/scrape"
)

// PostgresConfig holds the connection settings for the audit store.
type PostgresConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	MaxConns    int32
	MinConns    int32
	MaxConnLife time.Duration
	MaxConnIdle time.Duration
}

// Postgres persists every exported record for later price-history queries.
type Postgres struct {
	pool *pgxpool.Pool
}

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS product_records (
	id            BIGSERIAL PRIMARY KEY,
	brand         TEXT NOT NULL,
	product       TEXT NOT NULL,
	oem_number    TEXT NOT NULL DEFAULT 'NA',
	asin_number   TEXT NOT NULL DEFAULT 'NA',
	website       TEXT NOT NULL,
	product_name  TEXT NOT NULL,
	price         DOUBLE PRECISION,
	currency      TEXT NOT NULL,
	seller_rating TEXT NOT NULL,
	scraped_at    TIMESTAMPTZ NOT NULL,
	source_url    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_product_records_brand_product
	ON product_records (brand, product);
CREATE INDEX IF NOT EXISTS idx_product_records_scraped_at
	ON product_records (scraped_at);
`

// NewPostgres connects the pool, verifies the connection and ensures the
// schema exists.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLife > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLife
	}
	if cfg.MaxConnIdle > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdle
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, createRecordsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Write stores one site's records in a single batched transaction. A NULL
// price marks a record whose price could not be parsed.
func (p *Postgres) Write(_ string, records []scrape.ProductRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, rec := range records {
		var price *float64
		if rec.PriceKnown {
			price = &rec.Price
		}
		batch.Queue(`
			INSERT INTO product_records
				(brand, product, oem_number, asin_number, website, product_name,
				 price, currency, seller_rating, scraped_at, source_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			rec.Brand, rec.Product, rec.OEMNumber, rec.ASINNumber, rec.Website,
			rec.ProductName, price, rec.Currency, rec.SellerRating, rec.ScrapedAt, rec.SourceURL,
		)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}
	return nil
}

// History returns the stored records for a brand/product pair, newest first.
func (p *Postgres) History(ctx context.Context, brand, product string, limit int) ([]scrape.ProductRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx, `
		SELECT brand, product, oem_number, asin_number, website, product_name,
		       price, currency, seller_rating, scraped_at, source_url
		FROM product_records
		WHERE brand = $1 AND product = $2
		ORDER BY scraped_at DESC
		LIMIT $3`, brand, product, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []scrape.ProductRecord
	for rows.Next() {
		var rec scrape.ProductRecord
		var price *float64
		if err := rows.Scan(&rec.Brand, &rec.Product, &rec.OEMNumber, &rec.ASINNumber,
			&rec.Website, &rec.ProductName, &price, &rec.Currency,
			&rec.SellerRating, &rec.ScrapedAt, &rec.SourceURL); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if price != nil {
			rec.Price = *price
			rec.PriceKnown = true
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
