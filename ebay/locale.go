package ebay

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// localePatterns holds the per-language text fragments the parser needs
// to recognize on a results page. New locales are additive: add an entry
// here and every matcher picks it up.
type localePatterns struct {
	// SoldTokens prefix a completed-sale date in the row caption.
	SoldTokens []string

	// Months maps the locale's month abbreviations (lowercase) to
	// canonical months.
	Months map[string]time.Month

	// PlaceholderTitles mark non-listing filler rows ("shop on site").
	PlaceholderTitles []string

	// AuthGuaranteeMarkers and VaultMarkers are substrings searched over
	// the raw row markup.
	AuthGuaranteeMarkers []string
	VaultMarkers         []string
}

var locales = map[string]localePatterns{
	"en": {
		SoldTokens: []string{"Sold"},
		Months: map[string]time.Month{
			"jan": time.January, "feb": time.February, "mar": time.March,
			"apr": time.April, "may": time.May, "jun": time.June,
			"jul": time.July, "aug": time.August, "sep": time.September,
			"oct": time.October, "nov": time.November, "dec": time.December,
		},
		PlaceholderTitles:    []string{"shop on ebay"},
		AuthGuaranteeMarkers: []string{"Authenticity Guarantee"},
		VaultMarkers:         []string{"PSA Vault", "In the PSA Vault"},
	},
	"es": {
		SoldTokens: []string{"Vendido", "Vendidos"},
		Months: map[string]time.Month{
			"ene": time.January, "feb": time.February, "mar": time.March,
			"abr": time.April, "may": time.May, "jun": time.June,
			"jul": time.July, "ago": time.August, "sep": time.September,
			"oct": time.October, "nov": time.November, "dic": time.December,
		},
		PlaceholderTitles:    []string{"comprar en ebay"},
		AuthGuaranteeMarkers: []string{"Garantía de autenticidad"},
	},
	"pt": {
		SoldTokens: []string{"Vendido", "Vendidos"},
		Months: map[string]time.Month{
			"jan": time.January, "fev": time.February, "mar": time.March,
			"abr": time.April, "mai": time.May, "jun": time.June,
			"jul": time.July, "ago": time.August, "set": time.September,
			"out": time.October, "nov": time.November, "dez": time.December,
		},
	},
}

// Matchers derived from the locale tables, built once at init.
var (
	reSoldDate        *regexp.Regexp
	monthByAbbrev     map[string]time.Month
	placeholderTitles []string
	authMarkers       []string
	vaultMarkers      []string
)

func init() {
	tokenSet := make(map[string]struct{})
	monthByAbbrev = make(map[string]time.Month)
	for _, loc := range locales {
		for _, t := range loc.SoldTokens {
			tokenSet[strings.ToLower(t)] = struct{}{}
		}
		for abbrev, m := range loc.Months {
			monthByAbbrev[abbrev] = m
		}
		for _, p := range loc.PlaceholderTitles {
			placeholderTitles = append(placeholderTitles, strings.ToLower(p))
		}
		authMarkers = append(authMarkers, loc.AuthGuaranteeMarkers...)
		vaultMarkers = append(vaultMarkers, loc.VaultMarkers...)
	}

	tokens := make([]string, 0, len(tokenSet))
	for t := range tokenSet {
		tokens = append(tokens, t)
	}
	months := make([]string, 0, len(monthByAbbrev))
	for m := range monthByAbbrev {
		months = append(months, m)
	}
	// Deterministic alternation order regardless of map iteration.
	sort.Strings(tokens)
	sort.Strings(months)

	// Accepts both month-first ("Sold Dec 5, 2024") and day-first
	// ("Vendido 5 Dic, 2024") captions.
	reSoldDate = regexp.MustCompile(
		`(?i)\b(` + strings.Join(tokens, "|") + `)\s+` +
			`(?:(\d{1,2})\s+)?` +
			`(` + strings.Join(months, "|") + `)` +
			`(?:\s+(\d{1,2}))?` +
			`,?\s+(\d{4})`,
	)
}

// parseSoldDate extracts a completed-sale date from row caption text.
// Returns the zero time when no localized date token matches.
func parseSoldDate(caption string) (time.Time, bool) {
	m := reSoldDate.FindStringSubmatch(caption)
	if m == nil {
		return time.Time{}, false
	}

	month, ok := monthByAbbrev[strings.ToLower(m[3])]
	if !ok {
		return time.Time{}, false
	}

	dayStr := m[2]
	if dayStr == "" {
		dayStr = m[4]
	}
	if dayStr == "" {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(m[5])
	if err != nil {
		return time.Time{}, false
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

// isPlaceholderTitle reports whether the title is marketplace filler
// rather than a real listing, in any supported language.
func isPlaceholderTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, p := range placeholderTitles {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// hasAuthGuarantee reports whether the raw row markup carries an
// authenticity-guarantee marker.
func hasAuthGuarantee(rowHTML string) bool {
	return containsAny(rowHTML, authMarkers)
}

// isVaulted reports whether the raw row markup carries a vault-custody marker.
func isVaulted(rowHTML string) bool {
	return containsAny(rowHTML, vaultMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
