package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession serves canned HTML per URL without a browser.
type fakeSession struct {
	pages   map[string]string
	fetchFn func(url string) (string, error)
	cookies map[string]string
	fetched []string
	closed  bool
}

func newFakeSession(pages map[string]string) *fakeSession {
	return &fakeSession{pages: pages, cookies: map[string]string{}}
}

func (s *fakeSession) Fetch(_ context.Context, url string) (string, error) {
	s.fetched = append(s.fetched, url)
	if s.fetchFn != nil {
		return s.fetchFn(url)
	}
	if html, ok := s.pages[url]; ok {
		return html, nil
	}
	return "<html><body></body></html>", nil
}

func (s *fakeSession) SetCookie(name, value, _ string) error {
	s.cookies[name] = value
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func testSite(maxPages int) SiteConfig {
	return SiteConfig{
		Name:     "teststore",
		MaxPages: maxPages,
		JoinSep:  "+",
		PageURL: func(_ Query, term string, page int) string {
			return fmt.Sprintf("https://test.example/search?q=%s&page=%d", term, page)
		},
		Label:        staticLabel("TestStore"),
		BaseURL:      staticBase("https://test.example"),
		Cards:        "div.card",
		Link:         []string{"a.link"},
		NameSel:      []string{"span.name"},
		PriceSel:     []string{"span.price"},
		RatingSel:    []string{"span.rating"},
		BlockMarkers: []string{"verify you are human"},
		SkipNames:    []string{"sponsored"},
		Currency:     staticCurrency("USD"),
	}
}

func card(href, name, price string) string {
	return fmt.Sprintf(
		`<div class="card"><a class="link" href="%s"><span class="name">%s</span></a><span class="price">%s</span></div>`,
		href, name, price,
	)
}

func page(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

func testQuery() Query {
	return Query{Brand: "Acme", Product: "Widget"}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEngineExtractsRecords(t *testing.T) {
	site := testSite(1)
	sess := newFakeSession(map[string]string{
		"https://test.example/search?q=Acme+Widget&page=1": page(
			card("/p/1", "Widget One", "$12.99"),
			card("https://test.example/p/2", "Widget Two", "$5.00"),
		),
	})

	col := NewCollector()
	out := NewEngine(site, discardLogger()).Run(context.Background(), sess, testQuery(), col)

	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Len(t, out.Records, 2)

	first := out.Records[0]
	assert.Equal(t, "Widget One", first.ProductName)
	assert.Equal(t, "https://test.example/p/1", first.SourceURL)
	assert.Equal(t, 12.99, first.Price)
	assert.True(t, first.PriceKnown)
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, "TestStore", first.Website)
}

func TestEngineDeduplicatesAcrossPages(t *testing.T) {
	site := testSite(3)
	pageOne := page(card("/p/1", "Widget One", "$12.99"), card("/p/2", "Widget Two", "$5.00"))
	sess := newFakeSession(map[string]string{
		"https://test.example/search?q=Acme+Widget&page=1": pageOne,
		// Page 2 repeats page 1, the looping-pagination case.
		"https://test.example/search?q=Acme+Widget&page=2": pageOne,
	})

	col := NewCollector()
	out := NewEngine(site, discardLogger()).Run(context.Background(), sess, testQuery(), col)

	require.Equal(t, OutcomeSuccess, out.Kind)
	assert.Len(t, out.Records, 2)
	// Fetched page 2, saw only duplicates, never reached page 3.
	assert.Len(t, sess.fetched, 2)
}

func TestEngineDeduplicatesAcrossAttempts(t *testing.T) {
	site := testSite(1)
	sess := newFakeSession(map[string]string{
		"https://test.example/search?q=Acme+Widget&page=1": page(card("/p/1", "Widget One", "$12.99")),
	})

	col := NewCollector()
	engine := NewEngine(site, discardLogger())

	out := engine.Run(context.Background(), sess, testQuery(), col)
	require.Equal(t, OutcomeSuccess, out.Kind)
	out = engine.Run(context.Background(), sess, testQuery(), col)
	require.Equal(t, OutcomeSuccess, out.Kind)

	assert.Len(t, col.Records, 1, "a retried attempt must not duplicate records")
}

func TestEngineDetectsBlockPage(t *testing.T) {
	site := testSite(1)
	sess := newFakeSession(map[string]string{
		"https://test.example/search?q=Acme+Widget&page=1": "<html><body>Please verify you are human</body></html>",
	})

	out := NewEngine(site, discardLogger()).Run(context.Background(), sess, testQuery(), NewCollector())

	assert.Equal(t, OutcomeBlocked, out.Kind)
	assert.ErrorIs(t, out.Err, ErrBlocked)
}

func TestEngineEmptyFirstPage(t *testing.T) {
	site := testSite(2)
	sess := newFakeSession(nil)

	out := NewEngine(site, discardLogger()).Run(context.Background(), sess, testQuery(), NewCollector())

	assert.Equal(t, OutcomeEmpty, out.Kind)
	assert.Len(t, sess.fetched, 1, "no results on page one should stop pagination")
}

func TestEngineDropsUnpricedByDefault(t *testing.T) {
	site := testSite(1)
	sess := newFakeSession(map[string]string{
		"https://test.example/search?q=Acme+Widget&page=1": page(
			card("/p/1", "Widget One", "$12.99"),
			card("/p/2", "Widget Two", "Out of stock"),
		),
	})

	out := NewEngine(site, discardLogger()).Run(context.Background(), sess, testQuery(), NewCollector())

	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "Widget One", out.Records[0].ProductName)
}

func TestEngineKeepsUnpricedWhenConfigured(t *testing.T) {
	site := testSite(1)
	site.KeepUnpriced = true
	sess := newFakeSession(map[string]string{
		"https://test.example/search?q=Acme+Widget&page=1": page(card("/p/1", "Widget One", "Out of stock")),
	})

	out := NewEngine(site, discardLogger()).Run(context.Background(), sess, testQuery(), NewCollector())

	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Len(t, out.Records, 1)
	assert.False(t, out.Records[0].PriceKnown)
}

func TestEngineSkipsConfiguredNames(t *testing.T) {
	site := testSite(1)
	sess := newFakeSession(map[string]string{
		"https://test.example/search?q=Acme+Widget&page=1": page(
			card("/p/ad", "Sponsored", "$1.00"),
			card("/p/1", "Widget One", "$12.99"),
		),
	})

	out := NewEngine(site, discardLogger()).Run(context.Background(), sess, testQuery(), NewCollector())

	require.Equal(t, OutcomeSuccess, out.Kind)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "Widget One", out.Records[0].ProductName)
}

func TestEngineKeepsRecordsOnMidRunFetchError(t *testing.T) {
	site := testSite(3)
	sess := newFakeSession(map[string]string{
		"https://test.example/search?q=Acme+Widget&page=1": page(card("/p/1", "Widget One", "$12.99")),
	})
	calls := 0
	sess.fetchFn = func(url string) (string, error) {
		calls++
		if calls > 1 {
			return "", errors.New("connection reset")
		}
		return sess.pages[url], nil
	}

	col := NewCollector()
	out := NewEngine(site, discardLogger()).Run(context.Background(), sess, testQuery(), col)

	require.Equal(t, OutcomeSuccess, out.Kind)
	assert.Len(t, out.Records, 1)
}

func TestEngineRunsPrime(t *testing.T) {
	site := testSite(1)
	site.Prime = func(_ context.Context, sess Session, _ Query) error {
		return sess.SetCookie("i18n-prefs", "USD", ".test.example")
	}
	sess := newFakeSession(nil)

	NewEngine(site, discardLogger()).Run(context.Background(), sess, testQuery(), NewCollector())

	assert.Equal(t, "USD", sess.cookies["i18n-prefs"])
}
