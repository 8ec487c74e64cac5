package ebay

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/J3698/tcg/models"
)

// Result-card selectors for the two page layouts eBay serves. The legacy
// layout uses .s-item rows, the current one .s-card. Selection is by
// trying each row selector in order until one matches.
var (
	selRowsPrimary = cascadia.MustCompile(".srp-results li.s-item")
	selRowsLoose   = cascadia.MustCompile("li.s-item")
	selRowsCard    = cascadia.MustCompile(".srp-results li.s-card")

	selItemTitle   = cascadia.MustCompile(".s-item__title")
	selCardTitle   = cascadia.MustCompile(".s-card__title .su-styled-text")
	selItemTag     = cascadia.MustCompile(".s-item__title--tag")
	selItemEnded   = cascadia.MustCompile(".s-item__ended-date")
	selCardCaption = cascadia.MustCompile(".s-card__caption .su-styled-text")
	selItemPrice   = cascadia.MustCompile(".s-item__price")
	selCardPrice   = cascadia.MustCompile(".s-card__price")
	selItemLink    = cascadia.MustCompile("a.s-item__link")
	selCardLink    = cascadia.MustCompile("a.s-card__link")
	selItemImage   = cascadia.MustCompile("img.s-item__image-img")
	selCardImage   = cascadia.MustCompile("img.s-card__image")
)

var (
	// USD-style: currency symbol, comma thousands, period decimal.
	reUSDPrice = regexp.MustCompile(`(?i)(USD|US \$|\$)\s?([0-9,]+\.?\d*)`)

	// Euro/Real-style: period thousands, comma decimal.
	reEURPrice = regexp.MustCompile(`(?i)(R\$|€|£)\s?([0-9.]+,\d{2})`)

	reImageSize   = regexp.MustCompile(`/s-l\d+\.jpg`)
	reNonWordRuns = regexp.MustCompile(`[^a-z0-9 ]+`)
	reSpaceRuns   = regexp.MustCompile(`\s+`)
)

// Approximate BRL→USD rate applied when a price matched in Brazilian Real.
const realsPerDollar = 5.0

// ParsePage extracts sale listings from one raw search-results page.
// Rows missing a title, a parseable sold date, or a positive price are
// silently dropped. Pure function of the page content; zero qualifying
// rows yield an empty, non-nil slice.
func ParsePage(html string, base *url.URL) []models.SaleListing {
	listings := []models.SaleListing{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return listings
	}

	rows := doc.FindMatcher(selRowsPrimary)
	if rows.Length() == 0 {
		rows = doc.FindMatcher(selRowsLoose)
	}
	if rows.Length() == 0 {
		rows = doc.FindMatcher(selRowsCard)
	}

	rows.Each(func(_ int, row *goquery.Selection) {
		if l, ok := parseRow(row, base); ok {
			listings = append(listings, l)
		}
	})

	return listings
}

// parseRow extracts one SaleListing from a result card. ok is false when
// the row is filler or misses a required field.
func parseRow(row *goquery.Selection, base *url.URL) (models.SaleListing, bool) {
	title := strings.TrimSpace(row.FindMatcher(selItemTitle).First().Text())
	if title == "" {
		title = strings.TrimSpace(row.FindMatcher(selCardTitle).First().Text())
	}
	if title == "" || isPlaceholderTitle(title) {
		return models.SaleListing{}, false
	}

	caption := strings.TrimSpace(
		row.FindMatcher(selItemTag).Text() + " " + row.FindMatcher(selItemEnded).Text(),
	)
	if caption == "" {
		caption = strings.TrimSpace(row.FindMatcher(selCardCaption).First().Text())
	}
	soldAt, ok := parseSoldDate(caption)
	if !ok {
		return models.SaleListing{}, false
	}

	priceText := strings.TrimSpace(row.FindMatcher(selItemPrice).First().Text())
	if priceText == "" {
		priceText = strings.TrimSpace(row.FindMatcher(selCardPrice).First().Text())
	}
	price, ok := parsePrice(priceText)
	if !ok || price <= 0 {
		return models.SaleListing{}, false
	}

	rowHTML, _ := goquery.OuterHtml(row)

	return models.SaleListing{
		Title:           title,
		NormalizedTitle: normalizeTitle(title),
		SoldAt:          soldAt,
		Price:           price,
		AuthGuarantee:   hasAuthGuarantee(rowHTML),
		Vaulted:         isVaulted(rowHTML),
		URL:             extractListingURL(row, base),
		ImageURL:        extractImageURL(row),
	}, true
}

// parsePrice parses a listing price into USD. The comma-decimal form is
// checked first since an "R$" amount also contains a dollar sign and
// would otherwise be misread as a USD price. Real amounts convert at a
// fixed approximate rate.
func parsePrice(text string) (float64, bool) {
	if m := reEURPrice.FindStringSubmatch(text); m != nil {
		normalized := strings.ReplaceAll(m[2], ".", "")
		normalized = strings.Replace(normalized, ",", ".", 1)
		v, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			return 0, false
		}
		if strings.Contains(strings.ToLower(m[1]), "r$") {
			v /= realsPerDollar
		}
		return v, true
	}

	m := reUSDPrice.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// extractListingURL resolves the row's listing link against the
// marketplace origin. Empty when the row has no link.
func extractListingURL(row *goquery.Selection, base *url.URL) string {
	href, ok := row.FindMatcher(selItemLink).First().Attr("href")
	if !ok || href == "" {
		href, ok = row.FindMatcher(selCardLink).First().Attr("href")
		if !ok || href == "" {
			return ""
		}
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return href
	}
	return resolved.String()
}

// extractImageURL returns the row's image source, rewritten to the
// larger-resolution size variant when the size token is present.
func extractImageURL(row *goquery.Selection) string {
	src, ok := row.FindMatcher(selItemImage).First().Attr("src")
	if !ok || src == "" {
		src, ok = row.FindMatcher(selCardImage).First().Attr("src")
		if !ok || src == "" {
			return ""
		}
	}
	return reImageSize.ReplaceAllString(src, "/s-l500.jpg")
}

// normalizeTitle lowercases, strips punctuation, and collapses runs of
// whitespace so near-identical titles compare equal.
func normalizeTitle(title string) string {
	lower := strings.ToLower(title)
	lower = reNonWordRuns.ReplaceAllString(lower, " ")
	lower = reSpaceRuns.ReplaceAllString(lower, " ")
	return strings.TrimSpace(lower)
}
