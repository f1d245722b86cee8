package scrape

import "errors"

var (
	// ErrMissingFields is returned before any scraping starts when the
	// query lacks a brand or product.
	ErrMissingFields = errors.New("brand and product are required")

	// ErrNoResults is the aggregate error synthesized when no site
	// produced a record and no more specific error was recorded.
	ErrNoResults = errors.New("no results found from any website")

	// ErrBlocked marks an attempt that hit a CAPTCHA or interstitial
	// verification page.
	ErrBlocked = errors.New("blocked by site")

	// ErrUnknownSite is returned when the query names a site that has no
	// registered adapter configuration.
	ErrUnknownSite = errors.New("unknown target site")
)
