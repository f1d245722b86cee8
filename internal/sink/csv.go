package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/tutomart/pricescout/internal/scrape"
)

// CSVWriter appends normalized records to a CSV file, one file per process.
// Writes are serialized because site exports run on their own goroutines.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

var csvHeader = []string{
	"brand", "product", "oem_number", "asin_number", "website",
	"product_name", "price", "currency", "seller_rating", "scraped_at", "source_url",
}

// NewCSVWriter creates the output file, its parent directory if needed, and
// writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{file: f, writer: writer}, nil
}

// Write appends one site's records.
func (cw *CSVWriter) Write(_ string, records []scrape.ProductRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, rec := range records {
		price := scrape.Unavailable
		if rec.PriceKnown {
			price = strconv.FormatFloat(rec.Price, 'f', -1, 64)
		}
		row := []string{
			rec.Brand,
			rec.Product,
			rec.OEMNumber,
			rec.ASINNumber,
			rec.Website,
			rec.ProductName,
			price,
			rec.Currency,
			rec.SellerRating,
			rec.ScrapedAt.Format(time.RFC3339),
			rec.SourceURL,
		}
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}
