package browser

import "math/rand"

// Fingerprint is the browser identity randomized per session to reduce
// automated-traffic detectability.
type Fingerprint struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
}

// DefaultFingerprints is the pool sessions draw from. Small on purpose:
// these are agents real traffic actually presents.
var DefaultFingerprints = []Fingerprint{
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "en-US",
		TimezoneID:     "America/New_York",
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "en-GB",
		TimezoneID:     "Europe/London",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.5 Safari/605.1.15",
		ViewportWidth:  1680,
		ViewportHeight: 1050,
		Locale:         "en-US",
		TimezoneID:     "America/Los_Angeles",
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		ViewportWidth:  1536,
		ViewportHeight: 864,
		Locale:         "en-US",
		TimezoneID:     "Europe/Berlin",
	},
}

func pickFingerprint(pool []Fingerprint) Fingerprint {
	if len(pool) == 0 {
		pool = DefaultFingerprints
	}
	return pool[rand.Intn(len(pool))]
}
