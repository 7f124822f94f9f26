package models

// Summary is a count + mean-percentage snapshot. Zero values mean no rows matched.
type Summary struct {
	Total         int     `json:"total"`
	AvgPercentage float64 `json:"avg_percentage"`
}

// CategoryStat is one category of a grouped breakdown.
type CategoryStat struct {
	Type       *string `json:"type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Rate is a count + mean percentage for a single outcome (preterm, NICU, ...).
type Rate struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}
