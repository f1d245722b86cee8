package scrape

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Unavailable is the sentinel used for fields that could not be extracted
// or parsed. Price is either a parsed non-negative number or this sentinel,
// never a raw string.
const Unavailable = "unavailable"

// Query describes one product search. It is immutable once a run starts;
// per-request site parameters (such as the Amazon regional domain) travel
// here instead of process-wide state.
type Query struct {
	Brand        string `json:"brand"`
	Product      string `json:"product"`
	OEMNumber    string `json:"oem_number,omitempty"`
	ASINNumber   string `json:"asin_number,omitempty"`
	TargetSite   string `json:"website,omitempty"`
	AmazonDomain string `json:"amazon_country,omitempty"`
}

// Validate reports whether the query carries the required fields.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Brand) == "" || strings.TrimSpace(q.Product) == "" {
		return ErrMissingFields
	}
	return nil
}

// ProductRecord is the normalized output unit shared by every site adapter.
type ProductRecord struct {
	Brand        string    `json:"brand"`
	Product      string    `json:"product"`
	OEMNumber    string    `json:"oem_number"`
	ASINNumber   string    `json:"asin_number"`
	Website      string    `json:"website"`
	ProductName  string    `json:"product_name"`
	Price        float64   `json:"-"`
	PriceKnown   bool      `json:"-"`
	Currency     string    `json:"currency"`
	SellerRating string    `json:"seller_rating"`
	ScrapedAt    time.Time `json:"scraped_at"`
	SourceURL    string    `json:"source_url"`
}

// MarshalJSON emits the price as a number when it parsed, and as the
// "unavailable" sentinel otherwise.
func (r ProductRecord) MarshalJSON() ([]byte, error) {
	type alias ProductRecord
	out := struct {
		alias
		Price any `json:"price"`
	}{alias: alias(r)}
	if r.PriceKnown {
		out.Price = r.Price
	} else {
		out.Price = Unavailable
	}
	return json.Marshal(out)
}

// OutcomeKind classifies one (site, attempt) pair.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeEmpty
	OutcomeBlocked
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeError:
		return "error"
	}
	return "unknown"
}

// Outcome is the result of one adapter attempt.
type Outcome struct {
	Kind    OutcomeKind
	Records []ProductRecord
	Err     error
}

// SiteResult is the terminal result for one site after the retry machine
// has given up or succeeded.
type SiteResult struct {
	Site     string
	Attempts int
	Outcome  Outcome
}

// Session is one isolated browser session. Exactly one adapter invocation
// uses a session; Close tears down the browser process, the profile
// directory and the proxy extension artifact.
type Session interface {
	// Fetch navigates to url and returns the rendered page content.
	Fetch(ctx context.Context, url string) (string, error)
	// SetCookie installs a cookie on the session before navigation.
	SetCookie(name, value, domain string) error
	Close() error
}

// SessionFactory launches sessions. Each Start call wires a fresh proxy
// session and a randomized fingerprint so every attempt gets a distinct
// egress IP and browser identity.
type SessionFactory interface {
	Start(ctx context.Context) (Session, error)
}

// SeenURLs is the per-site-run set of canonical product URLs used to drop
// duplicates across pages and across retried attempts. It is never shared
// between sites, so it needs no locking.
type SeenURLs map[string]struct{}

// Canonical strips the query string and fragment from a product URL.
func Canonical(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL = rawURL[:i]
	}
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		rawURL = rawURL[:i]
	}
	return rawURL
}

// Seen reports and records a canonical URL in one step.
func (s SeenURLs) Seen(canonical string) bool {
	if _, ok := s[canonical]; ok {
		return true
	}
	s[canonical] = struct{}{}
	return false
}
