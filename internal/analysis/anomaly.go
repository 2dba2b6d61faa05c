package analysis

import (
	"math"

	"github.com/shopspring/decimal"

	"spese-insights/internal/core"
	"spese-insights/internal/timeseries"
)

// Anomaly is a transaction whose amount is far from its category's mean.
type Anomaly struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	ZScore      float64         `json:"z_score"`
}

// Unusual flags transactions whose population z-score within their category
// exceeds the configured threshold in absolute value. Categories with a
// single transaction or no spread are never flagged.
func (a *Analyzer) Unusual(expenses []core.Expense) []Anomaly {
	order, groups := core.GroupByCategory(expenses)
	var out []Anomaly
	for _, name := range order {
		group := groups[name]
		if len(group) < 2 {
			continue
		}
		amounts := make([]float64, len(group))
		for i, e := range group {
			amounts[i] = e.Amount.InexactFloat64()
		}
		z, ok := timeseries.ZScores(amounts)
		if !ok {
			continue
		}
		for i, e := range group {
			if math.Abs(z[i]) > a.config.ZThreshold {
				out = append(out, Anomaly{
					Amount:      e.Amount,
					Description: e.Description,
					Category:    name,
					Date:        e.Date.String(),
					ZScore:      z[i],
				})
			}
		}
	}
	return out
}
