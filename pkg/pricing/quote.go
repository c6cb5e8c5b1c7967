package pricing

import (
	"github.com/shopspring/decimal"
)

// QuoteLine is the priced form of one node pool.
type QuoteLine struct {
	Pool      string              `json:"pool"`
	Type      string              `json:"type"`
	Label     string              `json:"label,omitempty"`
	Count     int                 `json:"count"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	Monthly   decimal.NullDecimal `json:"monthly"`
}

// Quote is a per-pool breakdown of a cluster price.
type Quote struct {
	Region           string              `json:"region"`
	Lines            []QuoteLine         `json:"pools"`
	HighAvailability decimal.NullDecimal `json:"high_availability"`
	Total            decimal.Decimal     `json:"total"`
	// Unpriced lists pool IDs whose type has no price in the region.
	Unpriced []string `json:"unpriced,omitempty"`
}

// NewQuote prices every pool in opts. Total always equals
// TotalClusterPrice(opts).
func NewQuote(opts TotalClusterPriceOptions) Quote {
	q := Quote{
		Region:           opts.Region,
		Lines:            make([]QuoteLine, 0, len(opts.Pools)),
		HighAvailability: opts.HighAvailabilityPrice,
		Total:            TotalClusterPrice(opts),
	}

	for _, p := range opts.Pools {
		unit := UnitPrice(p.Type, opts.Region, opts.Types, opts.Flags)
		line := QuoteLine{
			Pool:      p.ID,
			Type:      p.Type,
			Count:     p.Count,
			UnitPrice: unit,
			Monthly:   PoolPrice(p.Count, unit),
		}
		if t := FindType(opts.Types, p.Type); t != nil {
			line.Label = t.Label
		}
		if !unit.Valid {
			q.Unpriced = append(q.Unpriced, p.ID)
		}
		q.Lines = append(q.Lines, line)
	}
	return q
}
