package scrape

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SiteConfig parameterizes the shared adapter engine for one target site.
// One engine plus these small config tables replaces a per-site scraper
// implementation.
type SiteConfig struct {
	// Name is the lowercase site key used in queries and logs.
	Name string
	// MaxPages caps pagination.
	MaxPages int
	// JoinSep joins the normalized query tokens into the search term.
	JoinSep string
	// UseOEM / UseASIN include those identifiers in the search term when
	// the query carries them. ASIN wins over OEM.
	UseOEM  bool
	UseASIN bool

	// PageURL builds the search URL for one page (1-based).
	PageURL func(q Query, term string, page int) string
	// Label names the site in output records, e.g. "Amazon (amazon.de)".
	Label func(q Query) string
	// BaseURL prefixes relative product links.
	BaseURL func(q Query) string
	// Prime optionally prepares the session before the first search page,
	// e.g. cookie priming for a regional currency.
	Prime func(ctx context.Context, sess Session, q Query) error

	// Cards selects the product card elements on a result page.
	Cards string
	// Link, NameSel, PriceSel and RatingSel are fallback chains; the
	// first selector that yields content wins.
	Link      []string
	NameSel   []string
	PriceSel  []string
	RatingSel []string
	// RatingClean post-processes raw rating text.
	RatingClean func(string) string

	// BlockMarkers are content fragments of interstitial/verification
	// pages; any hit classifies the attempt as Blocked.
	BlockMarkers []string
	// SkipNames drops cards whose name matches (case-insensitive), e.g.
	// sponsored placements.
	SkipNames []string

	// Currency resolves the record currency from the raw price text.
	Currency func(q Query, rawPrice string) string
	// KeepUnpriced keeps records whose price failed to parse instead of
	// dropping them. The original per-site behavior disagreed on this, so
	// it is an explicit switch.
	KeepUnpriced bool
}

// SearchTerm joins the query tokens the way this site expects.
func (c SiteConfig) SearchTerm(q Query) string {
	tokens := []string{q.Brand, q.Product}
	switch {
	case c.UseASIN && q.ASINNumber != "":
		tokens = append(tokens, q.ASINNumber)
	case c.UseOEM && q.OEMNumber != "":
		tokens = append(tokens, q.OEMNumber)
	}
	var parts []string
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, strings.ReplaceAll(t, " ", c.JoinSep))
		}
	}
	return strings.Join(parts, c.JoinSep)
}

// Collector accumulates records and the seen-URL set for one site-scrape
// run. It outlives individual attempts so a retry after a block keeps the
// records already extracted and never re-adds a URL it has seen.
type Collector struct {
	Records []ProductRecord
	Seen    SeenURLs
}

// NewCollector creates an empty per-site-run collector.
func NewCollector() *Collector {
	return &Collector{Seen: make(SeenURLs)}
}

// Engine runs the shared pagination/extraction algorithm for one site.
type Engine struct {
	site   SiteConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an engine for one site configuration.
func NewEngine(site SiteConfig, logger *slog.Logger) *Engine {
	return &Engine{
		site:   site,
		logger: logger.With("component", "adapter", "site", site.Name),
		now:    time.Now,
	}
}

// Run executes one attempt: paginate in strictly increasing order, extract
// and deduplicate product cards, and classify the outcome. The collector is
// shared across retried attempts of the same site.
func (e *Engine) Run(ctx context.Context, sess Session, q Query, col *Collector) Outcome {
	if e.site.Prime != nil {
		if err := e.site.Prime(ctx, sess, q); err != nil {
			e.logger.Warn("session priming failed", "error", err)
		}
	}

	term := e.site.SearchTerm(q)
	startCount := len(col.Records)

	for page := 1; page <= e.site.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return Outcome{Kind: OutcomeError, Err: err}
		}

		url := e.site.PageURL(q, term, page)
		e.logger.Debug("fetching page", "page", page, "url", url)

		html, err := sess.Fetch(ctx, url)
		if err != nil {
			if len(col.Records) > startCount {
				// Keep what this attempt already extracted.
				break
			}
			return Outcome{Kind: OutcomeError, Err: err}
		}

		if marker := e.blockMarker(html); marker != "" {
			e.logger.Warn("block marker detected", "page", page, "marker", marker)
			return Outcome{Kind: OutcomeBlocked, Err: ErrBlocked}
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return Outcome{Kind: OutcomeError, Err: err}
		}

		cards := doc.Find(e.site.Cards)
		if cards.Length() == 0 {
			if page == 1 && len(col.Records) == 0 {
				return Outcome{Kind: OutcomeEmpty}
			}
			break
		}

		newItems := 0
		cards.Each(func(_ int, card *goquery.Selection) {
			if rec, ok := e.extract(card, q, col.Seen); ok {
				col.Records = append(col.Records, rec)
				newItems++
			}
		})

		e.logger.Info("page processed", "page", page, "cards", cards.Length(), "new_items", newItems)

		// A page of nothing but duplicates means the site is looping its
		// pagination; stop rather than revisit the same results.
		if newItems == 0 {
			break
		}
	}

	return Outcome{Kind: OutcomeSuccess, Records: col.Records}
}

func (e *Engine) blockMarker(html string) string {
	for _, marker := range e.site.BlockMarkers {
		if strings.Contains(html, marker) {
			return marker
		}
	}
	return ""
}

// extract pulls one product record out of a card selection. The URL is
// recorded in the seen set before any field filtering so a card dropped for
// a missing price is not re-examined on later pages.
func (e *Engine) extract(card *goquery.Selection, q Query, seen SeenURLs) (ProductRecord, bool) {
	link := firstAttr(card, e.site.Link, "href")
	if link == "" {
		return ProductRecord{}, false
	}
	if strings.HasPrefix(link, "/") {
		link = e.site.BaseURL(q) + link
	}
	link = strings.SplitN(link, "#", 2)[0]

	if seen.Seen(Canonical(link)) {
		return ProductRecord{}, false
	}
	name := firstText(card, e.site.NameSel)
	if name == "" {
		name = "N/A"
	}
	for _, skip := range e.site.SkipNames {
		if strings.EqualFold(name, skip) {
			return ProductRecord{}, false
		}
	}

	rawPrice := firstText(card, e.site.PriceSel)
	price, priceKnown := ParsePrice(rawPrice)
	if !priceKnown && !e.site.KeepUnpriced {
		return ProductRecord{}, false
	}

	rating := firstText(card, e.site.RatingSel)
	if e.site.RatingClean != nil && rating != "" {
		rating = e.site.RatingClean(rating)
	}
	if rating == "" {
		rating = Unavailable
	}

	return ProductRecord{
		Brand:        q.Brand,
		Product:      q.Product,
		OEMNumber:    orNA(q.OEMNumber),
		ASINNumber:   orNA(q.ASINNumber),
		Website:      e.site.Label(q),
		ProductName:  name,
		Price:        price,
		PriceKnown:   priceKnown,
		Currency:     e.site.Currency(q, rawPrice),
		SellerRating: rating,
		ScrapedAt:    e.now(),
		SourceURL:    link,
	}, true
}

// firstText walks a selector fallback chain and returns the first
// non-empty trimmed text.
func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		if found := s.Find(sel).First(); found.Length() > 0 {
			if text := strings.TrimSpace(found.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// firstAttr walks a selector fallback chain and returns the first
// non-empty attribute value.
func firstAttr(s *goquery.Selection, selectors []string, attr string) string {
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		found := s.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		if val, ok := found.Attr(attr); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "NA"
	}
	return s
}
