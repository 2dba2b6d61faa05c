package forecast

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"spese-insights/internal/core"
)

func expense(day int, category string, amount float64) core.Expense {
	return core.Expense{
		Date:        core.NewDate(2024, 3, 1).AddDays(day),
		Description: category + " purchase",
		Amount:      decimal.NewFromFloat(amount),
		Category:    category,
		Currency:    core.DefaultCurrency,
	}
}

func history() []core.Expense {
	var out []core.Expense
	for d := 0; d < 40; d++ {
		out = append(out, expense(d, "Food", 10+float64(d%7)))
		if d%3 == 0 {
			out = append(out, expense(d, "Transport", 25))
		}
	}
	return out
}

func TestForecastEmpty(t *testing.T) {
	f := New(DefaultConfig())
	if _, err := f.Forecast(context.Background(), nil, 30); !errors.Is(err, core.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestForecastHorizon(t *testing.T) {
	f := New(DefaultConfig())
	res, err := f.Forecast(context.Background(), history(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Predictions) != 7 || len(res.Intervals) != 7 {
		t.Fatalf("expected 7 predictions and intervals, got %d/%d", len(res.Predictions), len(res.Intervals))
	}
	if res.Status != core.StatusOK || res.Diagnostics.Method != MethodARIMA {
		t.Fatalf("expected model forecast, got %s/%s (%s)", res.Status, res.Diagnostics.Method, res.Reason)
	}
	if len(res.CategoryPredictions) != 2 {
		t.Fatalf("expected 2 category forecasts, got %d", len(res.CategoryPredictions))
	}
	for name, cf := range res.CategoryPredictions {
		if len(cf.Predictions) != 7 || len(cf.Intervals) != 7 {
			t.Fatalf("%s: unexpected lengths", name)
		}
		if _, ok := res.Diagnostics.AIC[name]; !ok {
			t.Fatalf("%s: missing AIC", name)
		}
		for i, iv := range cf.Intervals {
			if iv.Lower > cf.Predictions[i] || iv.Upper < cf.Predictions[i] {
				t.Fatalf("%s day %d: prediction %v outside %+v", name, i, cf.Predictions[i], iv)
			}
		}
	}
	for i := range res.Predictions {
		sum := res.CategoryPredictions["Food"].Predictions[i] + res.CategoryPredictions["Transport"].Predictions[i]
		if math.Abs(sum-res.Predictions[i]) > 1e-9 {
			t.Fatalf("day %d: total %v != category sum %v", i, res.Predictions[i], sum)
		}
	}

	res, err = f.Forecast(context.Background(), history(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Predictions) != 30 || res.Horizon != 30 {
		t.Fatalf("expected default horizon 30, got %d", len(res.Predictions))
	}
}

func TestForecastInvalidHorizon(t *testing.T) {
	f := New(Config{MaxHorizon: 90})
	for _, h := range []int{-1, 91} {
		if _, err := f.Forecast(context.Background(), history(), h); !errors.Is(err, ErrInvalidHorizon) {
			t.Errorf("horizon %d: expected ErrInvalidHorizon, got %v", h, err)
		}
	}
}

func TestForecastSkipsShortCategories(t *testing.T) {
	records := append(history(), expense(5, "Health", 80), expense(6, "Health", 20))
	res, err := New(DefaultConfig()).Forecast(context.Background(), records, 5)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != core.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", res.Status, res.Reason)
	}
	if _, ok := res.CategoryPredictions["Health"]; ok {
		t.Fatal("category with two daily observations should be skipped")
	}
}

func TestForecastSimpleAverage(t *testing.T) {
	records := []core.Expense{
		expense(0, "Food", 10),
		expense(1, "Food", 20),
		expense(0, "Health", 60),
	}
	res, err := New(DefaultConfig()).Forecast(context.Background(), records, 7)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Status.Degraded() || res.Diagnostics.Method != MethodSimpleAverage {
		t.Fatalf("expected simple average fallback, got %s/%s", res.Status, res.Diagnostics.Method)
	}
	if len(res.Predictions) != 7 || len(res.Intervals) != 7 {
		t.Fatalf("expected 7 predictions and intervals, got %d/%d", len(res.Predictions), len(res.Intervals))
	}
	for i, p := range res.Predictions {
		if math.Abs(p-30) > 1e-9 {
			t.Fatalf("day %d: expected 30, got %v", i, p)
		}
		if math.Abs(res.Intervals[i].Lower-27) > 1e-9 || math.Abs(res.Intervals[i].Upper-33) > 1e-9 {
			t.Fatalf("day %d: unexpected interval %+v", i, res.Intervals[i])
		}
	}
	if res.Diagnostics.AIC != nil || len(res.CategoryPredictions) != 0 {
		t.Fatal("fallback must not report model diagnostics")
	}
}

func TestSimpleAverageNegativeMean(t *testing.T) {
	f := New(DefaultConfig())
	res := f.simpleAverage(context.Background(), []core.Expense{expense(0, "Refund", -50)}, 2, "test")
	if res.Intervals[0].Lower != -55 || res.Intervals[0].Upper != -45 {
		t.Fatalf("unexpected interval %+v", res.Intervals[0])
	}
}

func TestForecastModelFailureFallsBack(t *testing.T) {
	// five differences leave nothing to fit for a four-day category
	f := New(Config{Order: Order{P: 2, D: 5, Q: 2}})
	records := append(history(),
		expense(0, "Health", 5), expense(1, "Health", 5), expense(2, "Health", 5), expense(3, "Health", 5))
	res, err := f.Forecast(context.Background(), records, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Status.Degraded() || res.Diagnostics.Method != MethodSimpleAverage {
		t.Fatalf("expected whole-call fallback, got %s/%s", res.Status, res.Diagnostics.Method)
	}
	if len(res.CategoryPredictions) != 0 {
		t.Fatal("partial category forecasts must be discarded")
	}
	if res.Reason == "" {
		t.Fatal("expected a fallback reason")
	}
}

func TestForecastCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(DefaultConfig()).Forecast(ctx, history(), 7); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestForecastMalformedRecord(t *testing.T) {
	records := append(history(), core.Expense{Category: "Food", Amount: decimal.NewFromInt(1)})
	if _, err := New(DefaultConfig()).Forecast(context.Background(), records, 7); !errors.Is(err, core.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestForecastDeterministic(t *testing.T) {
	f := New(DefaultConfig())
	a, err := f.Forecast(context.Background(), history(), 5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.Forecast(context.Background(), history(), 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Predictions {
		if a.Predictions[i] != b.Predictions[i] {
			t.Fatalf("day %d: %v != %v", i, a.Predictions[i], b.Predictions[i])
		}
	}
}
