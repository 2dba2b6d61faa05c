package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"spese-insights/internal/core"
)

func record(date, category, desc, amount string) core.Expense {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Expense{
		Date:        d,
		Description: desc,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		Currency:    core.DefaultCurrency,
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	if _, err := New(DefaultConfig()).Analyze(context.Background(), nil); !errors.Is(err, core.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestAnalyzeMalformed(t *testing.T) {
	bad := []core.Expense{{Category: "Food", Amount: decimal.NewFromInt(3)}}
	if _, err := New(DefaultConfig()).Analyze(context.Background(), bad); !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	records := []core.Expense{record("2024-01-01", "Food", "x", "1")}
	if _, err := New(DefaultConfig()).Analyze(ctx, records); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDistribution(t *testing.T) {
	records := []core.Expense{
		record("2024-01-01", "Transport", "bus", "1"),
		record("2024-01-02", "Food", "lunch", "1"),
		record("2024-01-03", "Health", "gym", "1"),
	}
	dist := Distribution(records)
	if len(dist) != 3 || dist[0].Category != "Transport" {
		t.Fatalf("expected first-seen order, got %+v", dist)
	}
	var sum float64
	for _, c := range dist {
		if c.Percentage != 33.33 {
			t.Errorf("%s: expected 33.33, got %v", c.Category, c.Percentage)
		}
		sum += c.Percentage
	}
	if math.Abs(sum-100) > 0.01*float64(len(dist)) {
		t.Fatalf("percentages sum to %v", sum)
	}
}

func TestDistributionSumsToHundred(t *testing.T) {
	sets := [][]core.Expense{
		{record("2024-01-01", "A", "", "7.10"), record("2024-01-01", "B", "", "2.45"), record("2024-01-05", "C", "", "0.99")},
		{record("2024-01-01", "A", "", "100")},
		{record("2024-01-01", "A", "", "1"), record("2024-01-02", "B", "", "2"), record("2024-01-03", "C", "", "3"),
			record("2024-01-04", "D", "", "4"), record("2024-01-05", "E", "", "5"), record("2024-01-06", "F", "", "6")},
	}
	for i, records := range sets {
		var sum float64
		for _, c := range Distribution(records) {
			sum += c.Percentage
		}
		if math.Abs(sum-100) > 0.005*float64(len(records))+1e-9 {
			t.Errorf("set %d: percentages sum to %v", i, sum)
		}
	}
}

func TestUnusual(t *testing.T) {
	var records []core.Expense
	for i := 0; i < 9; i++ {
		records = append(records, record("2024-01-01", "Food", "lunch", "10"))
	}
	records = append(records, record("2024-01-20", "Food", "banquet", "100"))
	records = append(records, record("2024-01-20", "Health", "doctor", "500"))

	got := New(DefaultConfig()).Unusual(records)
	if len(got) != 1 {
		t.Fatalf("expected one anomaly, got %+v", got)
	}
	a := got[0]
	if a.Description != "banquet" || a.Category != "Food" || a.Date != "2024-01-20" {
		t.Fatalf("unexpected anomaly %+v", a)
	}
	if math.Abs(a.ZScore-3) > 1e-9 {
		t.Fatalf("expected z=3, got %v", a.ZScore)
	}
	if !a.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected amount %s", a.Amount)
	}
}

func TestUnusualEqualAmounts(t *testing.T) {
	var records []core.Expense
	for i := 0; i < 12; i++ {
		records = append(records, record("2024-02-01", "Utilities", "rent", "850"))
	}
	if got := New(DefaultConfig()).Unusual(records); len(got) != 0 {
		t.Fatalf("equal amounts must not be flagged, got %+v", got)
	}
}

func TestAnalyzeLinearDaily(t *testing.T) {
	var records []core.Expense
	start := core.NewDate(2024, 1, 1)
	for i := 0; i < 10; i++ {
		records = append(records, core.Expense{
			Date:     start.AddDays(i),
			Category: "Food",
			Amount:   decimal.NewFromInt(int64(10 + 2*i)),
		})
	}
	res, err := New(DefaultConfig()).Analyze(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Trends.Daily.Slope-2) > 1e-9 || math.Abs(res.Trends.Daily.RSquared-1) > 1e-9 {
		t.Fatalf("expected slope 2, R² 1, got %+v", res.Trends.Daily)
	}
	if !res.TotalSpent.Equal(decimal.NewFromInt(190)) {
		t.Fatalf("total: got %s", res.TotalSpent)
	}
	if res.AverageDaily != 19 {
		t.Fatalf("average daily: got %v", res.AverageDaily)
	}
	// 2024-01-01..07 and 08..10
	if res.AverageWeekly != 95 {
		t.Fatalf("average weekly: got %v", res.AverageWeekly)
	}
	if res.Trends.Monthly.Slope != 0 || res.Trends.Monthly.RSquared != 0 {
		t.Fatalf("single month: expected zero trend, got %+v", res.Trends.Monthly)
	}
	if res.Volatility.Monthly != 0 {
		t.Fatalf("single month: expected zero volatility, got %v", res.Volatility.Monthly)
	}
	if !res.Patterns.Monthly.Seasonality.Insufficient() || !res.Patterns.Monthly.Seasonality.Status.Degraded() {
		t.Fatalf("expected insufficient data marker, got %+v", res.Patterns.Monthly.Seasonality)
	}
}

func TestAnalyzeSingleRecord(t *testing.T) {
	res, err := New(DefaultConfig()).Analyze(context.Background(), []core.Expense{record("2024-05-05", "Food", "x", "12.50")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Trends.Daily.Slope != 0 || res.Trends.Daily.RSquared != 0 {
		t.Fatalf("expected zero trend, got %+v", res.Trends.Daily)
	}
	if len(res.UnusualSpending) != 0 {
		t.Fatal("single record cannot be unusual")
	}
	if len(res.CategoryDistribution) != 1 || res.CategoryDistribution[0].Percentage != 100 {
		t.Fatalf("unexpected distribution %+v", res.CategoryDistribution)
	}
	// 2024-05-05 is a Sunday
	if res.Patterns.Daily.HighestDay != 6 || res.Patterns.Daily.LowestDay != 6 {
		t.Fatalf("unexpected daily pattern %+v", res.Patterns.Daily)
	}
}

func TestDailyPattern(t *testing.T) {
	records := []core.Expense{
		record("2024-01-01", "Food", "", "10"), // Monday
		record("2024-01-08", "Food", "", "30"), // Monday
		record("2024-01-02", "Food", "", "50"), // Tuesday
		record("2024-01-03", "Food", "", "5"),  // Wednesday
		record("2024-01-04", "Food", "", "5"),  // Thursday
	}
	res, err := New(DefaultConfig()).Analyze(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	dp := res.Patterns.Daily
	if dp.HighestDay != 1 {
		t.Fatalf("expected Tuesday highest, got %d", dp.HighestDay)
	}
	if dp.LowestDay != 2 {
		t.Fatalf("expected Wednesday lowest (first on ties), got %d", dp.LowestDay)
	}
	if dp.Averages[0] != 20 || len(dp.Averages) != 4 {
		t.Fatalf("unexpected averages %+v", dp.Averages)
	}
}

func TestSeasonality(t *testing.T) {
	var records []core.Expense
	for m := 0; m < 24; m++ {
		amount := "100"
		if m%12 == 11 {
			amount = "400"
		}
		d := core.NewDate(2022, 1+m, 15)
		records = append(records, core.Expense{Date: d, Category: "Shopping", Amount: decimal.RequireFromString(amount)})
	}
	res, err := New(DefaultConfig()).Analyze(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	s := res.Patterns.Monthly.Seasonality
	if s.Insufficient() || s.Status != core.StatusOK {
		t.Fatalf("expected seasonality, got %+v", s)
	}
	if s.SeasonalStrength <= 0 || s.TrendStrength <= 0 {
		t.Fatalf("expected positive strengths, got %+v", s)
	}
	if res.Patterns.Monthly.Regression.Slope != res.Patterns.Monthly.Trend {
		t.Fatal("monthly trend should surface the regression slope")
	}
}

func TestTopCategory(t *testing.T) {
	r := Result{CategoryDistribution: []CategoryShare{
		{Category: "B", Percentage: 40},
		{Category: "A", Percentage: 40},
		{Category: "C", Percentage: 20},
	}}
	top, ok := r.TopCategory()
	if !ok || top.Category != "B" {
		t.Fatalf("expected first-seen B, got %+v", top)
	}
	if _, ok := (Result{}).TopCategory(); ok {
		t.Fatal("expected no top category")
	}
}
