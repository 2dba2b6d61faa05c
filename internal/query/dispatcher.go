// Package query answers free-text questions about an expense history by
// routing them to a fixed set of handlers.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"spese-insights/internal/analysis"
	"spese-insights/internal/core"
	"spese-insights/internal/timeseries"
)

// Intent identifies the handler that produced an answer.
type Intent string

const (
	IntentNone     Intent = "none"
	IntentTotal    Intent = "total"
	IntentCategory Intent = "category"
	IntentTrend    Intent = "trend"
	IntentInsight  Intent = "insight"
)

// NoExpensesMessage is the answer for an empty history.
const NoExpensesMessage = "No expenses found in your history."

const (
	shareLimit     = 30.0
	suggestedShare = 25.0
)

var hundred = decimal.NewFromInt(100)

type (
	Breakdown struct {
		ByCategory []core.CategoryAmount `json:"by_category"`
		ByMonth    []core.MonthAmount    `json:"by_month"`
	}

	Recommendation struct {
		Category            string  `json:"category"`
		CurrentPercentage   float64 `json:"current_percentage"`
		Recommendation      string  `json:"recommendation"`
		SuggestedPercentage float64 `json:"suggested_percentage"`
	}

	// Answer carries the message plus the fields of the handler that
	// produced it; unrelated fields stay empty.
	Answer struct {
		Intent          Intent                `json:"intent"`
		Message         string                `json:"message"`
		Amount          decimal.NullDecimal   `json:"amount"`
		Confidence      *float64              `json:"confidence,omitempty"`
		Breakdown       *Breakdown            `json:"breakdown,omitempty"`
		Categories      []core.CategoryAmount `json:"categories,omitempty"`
		Recommendations []Recommendation      `json:"recommendations,omitempty"`
		Analysis        *analysis.Result      `json:"analysis,omitempty"`
	}
)

type Dispatcher struct {
	analyzer *analysis.Analyzer
}

func New(analyzer *analysis.Analyzer) *Dispatcher {
	if analyzer == nil {
		analyzer = analysis.New(analysis.DefaultConfig())
	}
	return &Dispatcher{analyzer: analyzer}
}

// Route picks the intent for a query. Matching is a case-insensitive
// substring test in priority order total, category, trend.
func Route(query string) Intent {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "total"):
		return IntentTotal
	case strings.Contains(q, "category"):
		return IntentCategory
	case strings.Contains(q, "trend"):
		return IntentTrend
	default:
		return IntentInsight
	}
}

// Answer responds to query using expenses. An empty history is not an
// error; it yields NoExpensesMessage.
func (d *Dispatcher) Answer(ctx context.Context, query string, expenses []core.Expense) (Answer, error) {
	if len(expenses) == 0 {
		return Answer{Intent: IntentNone, Message: NoExpensesMessage}, nil
	}
	if err := core.ValidateExpenses(expenses); err != nil {
		return Answer{}, err
	}

	intent := Route(query)
	slog.DebugContext(ctx, "Routing query", "intent", intent, "expenses", len(expenses))

	switch intent {
	case IntentTotal:
		return totalAnswer(expenses), nil
	case IntentCategory:
		return categoryAnswer(expenses), nil
	case IntentTrend:
		return trendAnswer(expenses), nil
	default:
		res, err := d.analyzer.Analyze(ctx, expenses)
		if err != nil {
			return Answer{}, fmt.Errorf("insight: %w", err)
		}
		return Answer{
			Intent:   IntentInsight,
			Message:  Narrative(res),
			Analysis: &res,
		}, nil
	}
}

func totalAnswer(expenses []core.Expense) Answer {
	total := core.Sum(expenses)
	return Answer{
		Intent:  IntentTotal,
		Message: fmt.Sprintf("Your total spending is %s.", core.FormatEuros(total)),
		Amount:  decimal.NewNullDecimal(total),
		Breakdown: &Breakdown{
			ByCategory: core.ByCategory(expenses),
			ByMonth:    core.ByMonth(expenses),
		},
	}
}

func categoryAnswer(expenses []core.Expense) Answer {
	totals := core.ByCategory(expenses)
	parts := make([]string, len(totals))
	for i, c := range totals {
		parts[i] = fmt.Sprintf("%s: %s", c.Name, core.FormatEuros(c.Amount))
	}
	return Answer{
		Intent:          IntentCategory,
		Message:         "Category-wise spending: " + strings.Join(parts, ", ") + ".",
		Amount:          decimal.NewNullDecimal(core.Sum(expenses)),
		Categories:      totals,
		Recommendations: Recommendations(totals),
	}
}

// Recommendations suggests cutting any category above 30% of the total
// towards 25%.
func Recommendations(totals []core.CategoryAmount) []Recommendation {
	total := decimal.Zero
	for _, c := range totals {
		total = total.Add(c.Amount)
	}
	if !total.IsPositive() {
		return nil
	}
	var out []Recommendation
	for _, c := range totals {
		pct := c.Amount.Div(total).Mul(hundred).InexactFloat64()
		if pct <= shareLimit {
			continue
		}
		msg := fmt.Sprintf("Consider reducing spending in %s as it accounts for %.1f%% of your total expenses.", c.Name, pct)
		out = append(out, Recommendation{
			Category:            c.Name,
			CurrentPercentage:   pct,
			Recommendation:      msg,
			SuggestedPercentage: suggestedShare,
		})
	}
	return out
}

func trendAnswer(expenses []core.Expense) Answer {
	tr := timeseries.LinearTrend(timeseries.Daily(expenses).Values())
	return Answer{
		Intent: IntentTrend,
		Message: fmt.Sprintf("Your spending is %s by %s per day on average.",
			direction(tr.Slope), core.FormatEuros(decimal.NewFromFloat(math.Abs(tr.Slope)))),
		Amount:     decimal.NewNullDecimal(decimal.NewFromFloat(tr.Slope)),
		Confidence: &tr.RSquared,
	}
}

func direction(slope float64) string {
	if slope > 0 {
		return "increasing"
	}
	return "decreasing"
}

// Narrative summarises an analysis in a few sentences. The warning about
// unusual spending is only added when something was flagged.
func Narrative(res analysis.Result) string {
	slope := res.Trends.Monthly.Slope
	sentences := []string{
		fmt.Sprintf("Your total spending is %s.", core.FormatEuros(res.TotalSpent)),
		fmt.Sprintf("Your spending is %s by %s per month.",
			direction(slope), core.FormatEuros(decimal.NewFromFloat(math.Abs(slope)))),
	}
	if top, ok := res.TopCategory(); ok {
		sentences = append(sentences, fmt.Sprintf("Your highest spending category is %s at %.1f%% of total expenses.",
			top.Category, top.Percentage))
	}
	if len(res.UnusualSpending) > 0 {
		sentences = append(sentences, "You have some unusual spending patterns that might need attention.")
	}
	return strings.Join(sentences, " ")
}
