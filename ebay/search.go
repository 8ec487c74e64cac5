package ebay

import (
	"net/url"
	"strconv"
)

// SearchQuery describes one results-page request.
type SearchQuery struct {
	// Term is the free-text search term. Required.
	Term string

	// Grade restricts results to one numeric grade. Optional.
	Grade string

	// Page is the 1-based results page.
	Page int
}

// buildSearchURL renders the fixed search constraints for sold, graded,
// PSA-slabbed card listings: sold+completed only, graded only, the
// grading-card category, a large page size, and the grader filter.
func buildSearchURL(base *url.URL, q SearchQuery) string {
	params := url.Values{}
	params.Set("_nkw", q.Term)
	params.Set("_sacat", "0")
	params.Set("_from", "R40")
	params.Set("Graded", "Yes")
	params.Set("LH_Sold", "1")
	params.Set("LH_Complete", "1")
	params.Set("_ipg", "120")
	params.Set("LH_PrefLoc", "3")
	params.Set("rt", "nc")
	params.Set("LH_All", "1")
	params.Set("Professional Grader", "Professional Sports Authenticator (PSA)")
	params.Set("_dcat", "183454")
	if q.Grade != "" {
		params.Set("Grade", q.Grade)
	}
	if q.Page > 1 {
		params.Set("_pgn", strconv.Itoa(q.Page))
	}

	u := *base
	u.Path = "/sch/i.html"
	u.RawQuery = params.Encode()
	return u.String()
}
