// Package analysis computes descriptive statistics over an expense history
// and flags transactions that stand out within their category.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"spese-insights/internal/core"
	"spese-insights/internal/timeseries"
)

// Config holds analyzer settings
type Config struct {
	// ZThreshold is the absolute z-score above which a transaction is
	// reported as unusual (default: 2)
	ZThreshold float64

	// SeasonalPeriod is the monthly cycle length (default: 12)
	SeasonalPeriod int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		ZThreshold:     2,
		SeasonalPeriod: 12,
	}
}

type (
	CategoryShare struct {
		Category   string          `json:"category"`
		Amount     decimal.Decimal `json:"amount"`
		Percentage float64         `json:"percentage"`
	}

	Granularities[T any] struct {
		Daily   T `json:"daily"`
		Weekly  T `json:"weekly"`
		Monthly T `json:"monthly"`
	}

	Result struct {
		TotalSpent           decimal.Decimal                 `json:"total_spent"`
		CategoryDistribution []CategoryShare                 `json:"category_distribution"`
		UnusualSpending      []Anomaly                       `json:"unusual_spending"`
		Trends               Granularities[timeseries.Trend] `json:"spending_trends"`
		Volatility           Granularities[float64]          `json:"spending_volatility"`
		Patterns             Patterns                        `json:"patterns"`
		AverageDaily         float64                         `json:"average_daily_spending"`
		AverageWeekly        float64                         `json:"average_weekly_spending"`
		AverageMonthly       float64                         `json:"average_monthly_spending"`
	}
)

// TopCategory returns the category with the highest share. Ties go to the
// category seen first.
func (r Result) TopCategory() (CategoryShare, bool) {
	if len(r.CategoryDistribution) == 0 {
		return CategoryShare{}, false
	}
	top := r.CategoryDistribution[0]
	for _, c := range r.CategoryDistribution[1:] {
		if c.Percentage > top.Percentage {
			top = c
		}
	}
	return top, true
}

// Analyzer is stateless and safe for concurrent use.
type Analyzer struct {
	config Config
}

func New(config Config) *Analyzer {
	def := DefaultConfig()
	if config.ZThreshold <= 0 {
		config.ZThreshold = def.ZThreshold
	}
	if config.SeasonalPeriod < 2 {
		config.SeasonalPeriod = def.SeasonalPeriod
	}
	return &Analyzer{config: config}
}

// Analyze computes the full report. Empty input yields core.ErrNoData.
func (a *Analyzer) Analyze(ctx context.Context, expenses []core.Expense) (Result, error) {
	if len(expenses) == 0 {
		return Result{}, core.ErrNoData
	}
	if err := core.ValidateExpenses(expenses); err != nil {
		return Result{}, err
	}

	daily := timeseries.Daily(expenses)
	weekly := timeseries.Weekly(daily)
	monthly := timeseries.Monthly(daily)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("analyze: %w", err)
	}

	dv, wv, mv := daily.Values(), weekly.Values(), monthly.Values()
	total := core.Sum(expenses)
	res := Result{
		TotalSpent:           total,
		CategoryDistribution: Distribution(expenses),
		UnusualSpending:      a.Unusual(expenses),
		Trends: Granularities[timeseries.Trend]{
			Daily:   timeseries.LinearTrend(dv),
			Weekly:  timeseries.LinearTrend(wv),
			Monthly: timeseries.LinearTrend(mv),
		},
		Volatility: Granularities[float64]{
			Daily:   timeseries.Volatility(dv),
			Weekly:  timeseries.Volatility(wv),
			Monthly: timeseries.Volatility(mv),
		},
		Patterns: Patterns{
			Daily:   DailyPatternOf(daily),
			Weekly:  PeriodPatternOf(weekly),
			Monthly: a.MonthlyPatternOf(monthly),
		},
		AverageDaily:   timeseries.Mean(dv),
		AverageWeekly:  timeseries.Mean(wv),
		AverageMonthly: timeseries.Mean(mv),
	}

	slog.DebugContext(ctx, "Analysis completed",
		"expenses", len(expenses),
		"days", daily.Len(),
		"months", monthly.Len(),
		"unusual", len(res.UnusualSpending))
	return res, nil
}

// Distribution returns each category's total and its share of the overall
// total in percent, rounded to two decimals, in first-seen order.
func Distribution(expenses []core.Expense) []CategoryShare {
	total := core.Sum(expenses)
	byCat := core.ByCategory(expenses)
	out := make([]CategoryShare, 0, len(byCat))
	for _, c := range byCat {
		out = append(out, CategoryShare{
			Category:   c.Name,
			Amount:     c.Amount,
			Percentage: core.Percentage(c.Amount, total).InexactFloat64(),
		})
	}
	return out
}
