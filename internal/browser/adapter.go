package browser

import (
	"context"

	"github.com/tutomart/pricescout/internal/scrape"
)

// ScrapeFactory adapts Factory to scrape.SessionFactory, which needs Start
// to return the abstract session type.
type ScrapeFactory struct {
	Factory *Factory
}

func (f ScrapeFactory) Start(ctx context.Context) (scrape.Session, error) {
	return f.Factory.Start(ctx)
}
