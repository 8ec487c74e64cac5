package scrape

import "github.com/J3698/tcg/models"

// Stats summarizes prices over the listing set. Returns nil for an
// empty set: "no sales" must stay distinguishable from zero-value sales.
func Stats(listings []models.SaleListing) *models.PriceStats {
	if len(listings) == 0 {
		return nil
	}

	stats := &models.PriceStats{
		Min: listings[0].Price,
		Max: listings[0].Price,
	}
	var total float64
	for _, l := range listings {
		total += l.Price
		if l.Price < stats.Min {
			stats.Min = l.Price
		}
		if l.Price > stats.Max {
			stats.Max = l.Price
		}
	}
	stats.Average = total / float64(len(listings))

	return stats
}
