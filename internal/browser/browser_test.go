package browser

import (
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.Headless {
		t.Error("Expected headless to be true by default")
	}

	if opts.PageTimeout != 45*time.Second {
		t.Errorf("Expected page timeout to be 45s, got %v", opts.PageTimeout)
	}
}

func TestPickFingerprintFromPool(t *testing.T) {
	pool := []Fingerprint{{UserAgent: "ua-1", ViewportWidth: 800, ViewportHeight: 600}}

	fp := pickFingerprint(pool)
	if fp.UserAgent != "ua-1" {
		t.Errorf("Expected fingerprint from pool, got %s", fp.UserAgent)
	}
}

func TestPickFingerprintEmptyPoolFallsBack(t *testing.T) {
	fp := pickFingerprint(nil)

	if fp.UserAgent == "" {
		t.Error("Expected a fingerprint from the default pool")
	}
	if fp.ViewportWidth == 0 || fp.ViewportHeight == 0 {
		t.Error("Expected a non-zero viewport")
	}
}
