package models

import "time"

// SaleListing is one completed-sale record parsed from a marketplace
// search-results page. A row becomes a SaleListing only when title, sold
// date, and a positive price were all extracted; anything else is dropped
// during parsing. Immutable after creation.
type SaleListing struct {
	// Title is the raw listing title as shown on the results page.
	Title string `json:"title"`

	// NormalizedTitle is the lowercased, punctuation-stripped,
	// whitespace-collapsed form of Title, used for grouping.
	NormalizedTitle string `json:"normalized_title"`

	// SoldAt is the completed-sale date. Always non-zero for a retained
	// listing; serialized as an ISO-8601 string.
	SoldAt time.Time `json:"sell_date"`

	// Price is the sale price in USD. Foreign-currency prices are
	// converted at a fixed approximate rate during parsing.
	Price float64 `json:"sell_price"`

	// AuthGuarantee is true when the row carries an authenticity
	// guarantee marker in any supported language.
	AuthGuarantee bool `json:"auth_guarantee"`

	// Vaulted is true when the item is held in the grader's vault.
	Vaulted bool `json:"psa_vault"`

	// URL is the absolute listing URL, empty when the row had none.
	URL string `json:"url,omitempty"`

	// ImageURL is the result image, rewritten to the larger-resolution
	// variant when the size token is present in its path.
	ImageURL string `json:"image,omitempty"`
}

// CertRecord is the resolved identity of one graded card, produced once
// per scan by cert resolution and read-only afterwards.
type CertRecord struct {
	CertNumber       string `json:"cert_number"`
	Subject          string `json:"subject"`
	GradeNumeric     string `json:"grade_numeric"`
	GradeDescription string `json:"grade"`
	Year             string `json:"year"`
	Brand            string `json:"brand"`
	Category         string `json:"category"`
}
