package scrape

import (
	"context"
	"fmt"
	"strings"
)

// AmazonDomains are the regional storefronts tried when the query does not
// pin one.
var AmazonDomains = []string{
	"amazon.com", "amazon.co.uk", "amazon.de", "amazon.fr", "amazon.it",
	"amazon.es", "amazon.ca", "amazon.in", "amazon.com.mx", "amazon.com.br",
	"amazon.com.au", "amazon.ae", "amazon.sa", "amazon.sg", "amazon.nl",
	"amazon.se", "amazon.pl", "amazon.co.jp", "amazon.cn",
}

// amazonCurrencies maps a regional domain to its display currency, pinned
// via the i18n-prefs cookie before searching.
var amazonCurrencies = map[string]string{
	"amazon.com": "USD", "amazon.co.uk": "GBP",
	"amazon.de": "EUR", "amazon.fr": "EUR", "amazon.it": "EUR",
	"amazon.es": "EUR", "amazon.nl": "EUR",
	"amazon.ca": "CAD", "amazon.in": "INR",
	"amazon.com.mx": "MXN", "amazon.com.br": "BRL",
	"amazon.com.au": "AUD", "amazon.ae": "AED", "amazon.sa": "SAR",
	"amazon.sg": "SGD", "amazon.se": "SEK", "amazon.pl": "PLN",
	"amazon.co.jp": "JPY", "amazon.cn": "CNY",
}

func amazonDomain(q Query) string {
	if d := strings.TrimSpace(strings.ToLower(q.AmazonDomain)); d != "" {
		return d
	}
	return "amazon.com"
}

func staticLabel(label string) func(Query) string {
	return func(Query) string { return label }
}

func staticBase(base string) func(Query) string {
	return func(Query) string { return base }
}

func staticCurrency(code string) func(Query, string) string {
	return func(Query, string) string { return code }
}

func detectedCurrency(def string) func(Query, string) string {
	return func(_ Query, raw string) string { return DetectCurrency(raw, def) }
}

// firstToken reduces rating text like "4.5 out of 5 stars" to "4.5".
func firstToken(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}

// Sites returns the adapter configurations for every supported target
// site, in processing order.
func Sites() []SiteConfig {
	return []SiteConfig{
		{
			Name:     "amazon",
			MaxPages: 25,
			JoinSep:  "+",
			PageURL: func(q Query, term string, page int) string {
				return fmt.Sprintf("https://www.%s/s?k=%s&page=%d", amazonDomain(q), term, page)
			},
			Label: func(q Query) string {
				return fmt.Sprintf("Amazon (%s)", amazonDomain(q))
			},
			BaseURL: func(q Query) string {
				return "https://www." + amazonDomain(q)
			},
			Prime: func(ctx context.Context, sess Session, q Query) error {
				domain := amazonDomain(q)
				currency, ok := amazonCurrencies[domain]
				if !ok {
					return nil
				}
				// Land on the storefront first so the cookie domain is
				// accepted, then pin the display currency.
				if _, err := sess.Fetch(ctx, fmt.Sprintf("https://www.%s/ref=cs_503_link", domain)); err != nil {
					return err
				}
				return sess.SetCookie("i18n-prefs", currency, "."+domain)
			},
			Cards:       "div[data-component-type='s-search-result']",
			Link:        []string{"a.a-link-normal.s-underline-text", "a.a-link-normal.s-no-outline", "h2 a"},
			NameSel:     []string{"h2 span", "h2"},
			PriceSel:    []string{"span.a-price > span.a-offscreen", "span.a-color-price"},
			RatingSel:   []string{"span.a-icon-alt"},
			RatingClean: firstToken,
			BlockMarkers: []string{
				"Enter the characters", "Type the characters",
			},
			Currency: func(q Query, _ string) string {
				if c, ok := amazonCurrencies[amazonDomain(q)]; ok {
					return c
				}
				return Unavailable
			},
		},
		{
			Name:     "flipkart",
			MaxPages: 25,
			JoinSep:  "+",
			UseOEM:   true,
			UseASIN:  true,
			PageURL: func(_ Query, term string, page int) string {
				return fmt.Sprintf("https://www.flipkart.com/search?q=%s&page=%d", term, page)
			},
			Label:        staticLabel("Flipkart"),
			BaseURL:      staticBase("https://www.flipkart.com"),
			Cards:        "div[data-id]",
			Link:         []string{"a.k7wcnx", "a.CIaYa1", "a.GnxRXv", "a"},
			NameSel:      []string{"div.RG5Slk", "a.atJtCj", "a.pIpigb", "div.TbCaMn"},
			PriceSel:     []string{"div.hZ3P6w"},
			RatingSel:    []string{"div.MKiFS6"},
			BlockMarkers: []string{"Something is wrong"},
			SkipNames:    []string{"sponsored", "advertisement"},
			Currency:     detectedCurrency("₹"),
		},
		{
			Name:     "ebay",
			MaxPages: 1,
			JoinSep:  "+",
			UseOEM:   true,
			UseASIN:  true,
			PageURL: func(_ Query, term string, _ int) string {
				return fmt.Sprintf("https://www.ebay.com/sch/i.html?_nkw=%s", term)
			},
			Label:    staticLabel("eBay"),
			BaseURL:  staticBase("https://www.ebay.com"),
			Cards:    "li.s-card",
			Link:     []string{"a.s-card__link"},
			NameSel:  []string{".s-item__title", ".s-card__title", "h3.s-item__title"},
			PriceSel: []string{".s-card__price"},
			Currency: detectedCurrency(Unavailable),
		},
		{
			Name:     "snapdeal",
			MaxPages: 25,
			JoinSep:  "%20",
			UseOEM:   true,
			UseASIN:  true,
			PageURL: func(_ Query, term string, page int) string {
				offset := (page - 1) * 20
				return fmt.Sprintf("https://www.snapdeal.com/search?keyword=%s&sort=rlvncy&start=%d&noOfResults=20", term, offset)
			},
			Label:     staticLabel("Snapdeal"),
			BaseURL:   staticBase("https://www.snapdeal.com"),
			Cards:     ".product-tuple-listing",
			Link:      []string{"a.dp-widget-link"},
			NameSel:   []string{".product-title"},
			PriceSel:  []string{"span.lfloat.product-price", "span[id^='display-price']", ".product-price > span"},
			RatingSel: []string{".filled-stars"},
			Currency:  detectedCurrency("₹"),
		},
		{
			Name:     "noon",
			MaxPages: 25,
			JoinSep:  "+",
			UseOEM:   true,
			UseASIN:  true,
			PageURL: func(_ Query, term string, page int) string {
				if page == 1 {
					return fmt.Sprintf("https://www.noon.com/uae-en/search/?q=%s", term)
				}
				return fmt.Sprintf("https://www.noon.com/uae-en/search/?q=%s&page=%d", term, page)
			},
			Label:        staticLabel("Noon"),
			BaseURL:      staticBase("https://www.noon.com"),
			Cards:        `div[class*="linkWrapper"]`,
			Link:         []string{`a[class*="productBoxLink"]`, `a[href*="/p/"]`},
			NameSel:      []string{`[data-qa="plp-product-box-name"]`, `h2[data-qa="plp-product-box-name"]`},
			PriceSel:     []string{`strong[class*="amount"]`},
			RatingSel:    []string{`div[class*="textCtr"]`},
			Currency:     staticCurrency("AED"),
			KeepUnpriced: true,
		},
		{
			Name:     "sharafdg",
			MaxPages: 1,
			JoinSep:  "+",
			UseOEM:   true,
			UseASIN:  true,
			PageURL: func(_ Query, term string, _ int) string {
				return fmt.Sprintf("https://uae.sharafdg.com/?q=%s&post_type=product", term)
			},
			Label:        staticLabel("SharafDG"),
			BaseURL:      staticBase("https://uae.sharafdg.com"),
			Cards:        ".product-wrapper, .product-item",
			Link:         []string{"a", ".product-link"},
			NameSel:      []string{"h2", ".product-title", ".slider--prd-info"},
			PriceSel:     []string{".price", ".amount", "[class*='price']"},
			RatingSel:    []string{"[class*='rating']", ".product-rating-count"},
			Currency:     staticCurrency("AED"),
			KeepUnpriced: true,
		},
		{
			Name:     "amitretail",
			MaxPages: 1,
			JoinSep:  "+",
			UseOEM:   true,
			UseASIN:  true,
			PageURL: func(_ Query, term string, _ int) string {
				return fmt.Sprintf("https://www.amitretail.com/shop?search=%s", term)
			},
			Label:        staticLabel("AmitRetail"),
			BaseURL:      staticBase("https://www.amitretail.com"),
			Cards:        "li.product-col",
			Link:         []string{"a.product-loop-title"},
			NameSel:      []string{"h3.woocommerce-loop-product__title"},
			PriceSel:     []string{"span.price"},
			Currency:     staticCurrency("AED"),
			KeepUnpriced: true,
		},
		{
			Name:     "climaxmarine",
			MaxPages: 25,
			JoinSep:  "+",
			UseOEM:   true,
			UseASIN:  true,
			PageURL: func(_ Query, term string, page int) string {
				if page == 1 {
					return fmt.Sprintf("https://www.climaxmarine.com/?s=%s&post_type=product&type_aws=true", term)
				}
				return fmt.Sprintf("https://www.climaxmarine.com/page/%d/?s=%s&post_type=product&type_aws=true", page, term)
			},
			Label:    staticLabel("ClimaxMarine"),
			BaseURL:  staticBase("https://www.climaxmarine.com"),
			Cards:    "li.product-col",
			Link:     []string{"a.product-loop-title"},
			NameSel:  []string{"h3.woocommerce-loop-product__title"},
			PriceSel: []string{"span.price bdi"},
			Currency: staticCurrency("AED"),
		},
		{
			Name:     "empiremarine",
			MaxPages: 1,
			JoinSep:  "+",
			UseOEM:   true,
			UseASIN:  true,
			PageURL: func(_ Query, term string, _ int) string {
				return fmt.Sprintf("https://empire-marine.com/?s=%s&post_type=product&dgwt_wcas=1", term)
			},
			Label:        staticLabel("EmpireMarine"),
			BaseURL:      staticBase("https://empire-marine.com"),
			Cards:        "div.box.price_div",
			Link:         []string{"a[href]"},
			NameSel:      []string{"p.p"},
			PriceSel:     []string{"h3.price-tag b"},
			Currency:     staticCurrency("AED"),
			KeepUnpriced: true,
		},
		{
			Name:     "seazoneuae",
			MaxPages: 25,
			JoinSep:  "+",
			UseOEM:   true,
			UseASIN:  true,
			PageURL: func(_ Query, term string, page int) string {
				return fmt.Sprintf("https://seazoneuae.com/products?search=%s&page=%d", term, page)
			},
			Label:    staticLabel("SeazoneUAE"),
			BaseURL:  staticBase("https://seazoneuae.com"),
			Cards:    "div.vertical-product-card",
			Link:     []string{"a.card-title"},
			NameSel:  []string{"a.card-title"},
			PriceSel: []string{"h6.price span"},
			Currency: staticCurrency("AED"),
		},
	}
}

// SelectSites filters the adapter set by the query's target site. An empty
// or "all" target selects every site.
func SelectSites(all []SiteConfig, target string) ([]SiteConfig, error) {
	target = strings.TrimSpace(strings.ToLower(target))
	if target == "" || target == "all" {
		return all, nil
	}
	for _, site := range all {
		if site.Name == target {
			return []SiteConfig{site}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSite, target)
}
