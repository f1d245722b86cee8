package sink

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutomart/pricescout/internal/scrape"
)

func sampleRecords() []scrape.ProductRecord {
	return []scrape.ProductRecord{
		{
			Brand:        "Acme",
			Product:      "Widget",
			OEMNumber:    "NA",
			ASINNumber:   "NA",
			Website:      "TestStore",
			ProductName:  "Widget One",
			Price:        12.99,
			PriceKnown:   true,
			Currency:     "USD",
			SellerRating: "4.5",
			ScrapedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			SourceURL:    "https://test.example/p/1",
		},
		{
			Brand:        "Acme",
			Product:      "Widget",
			OEMNumber:    "NA",
			ASINNumber:   "NA",
			Website:      "TestStore",
			ProductName:  "Widget Two",
			Currency:     "AED",
			SellerRating: "unavailable",
			ScrapedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			SourceURL:    "https://test.example/p/2",
		},
	}
}

func TestCSVWriterWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Write("teststore", sampleRecords()))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Widget One", rows[1][5])
	assert.Equal(t, "12.99", rows[1][6])
	assert.Equal(t, "unavailable", rows[2][6], "an unparsed price must export as the sentinel")
}

type recordingSink struct {
	calls int
	err   error
}

func (r *recordingSink) Write(string, []scrape.ProductRecord) error {
	r.calls++
	return r.err
}

func TestMultiWritesAllSinksDespiteFailure(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}

	err := NewMulti(failing, nil, ok).Write("teststore", sampleRecords())

	assert.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls, "a failing sink must not starve the others")
}
