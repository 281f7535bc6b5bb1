package session

// Price tiers accepted in discovery filters
const (
	PriceTierBudget     = "$"
	PriceTierModerate   = "$$"
	PriceTierUpscale    = "$$$"
	PriceTierFineDining = "$$$$"
)

// Filters narrows the candidate search. An empty PriceTiers slice means any
// tier, a nil MinRating means any rating.
type Filters struct {
	PriceTiers []string `json:"prices"`
	MinRating  *float64 `json:"min_rating,omitempty"`
}

// Query is what the host hands to the discovery provider when a round starts
type Query struct {
	Location string  `json:"location"`
	Radius   float64 `json:"radius"` // Miles
	Filters  Filters `json:"filters"`
}

func ValidPriceTier(tier string) bool {
	switch tier {
	case PriceTierBudget, PriceTierModerate, PriceTierUpscale, PriceTierFineDining:
		return true
	}
	return false
}

// Accepts reports whether a candidate passes the filters
func (f Filters) Accepts(c Candidate) bool {
	if f.MinRating != nil && c.Rating < *f.MinRating {
		return false
	}
	if len(f.PriceTiers) == 0 {
		return true
	}
	for _, tier := range f.PriceTiers {
		if tier == c.PriceTier {
			return true
		}
	}
	return false
}
