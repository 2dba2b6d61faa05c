// Package forecast predicts future daily spending per category with ARIMA
// models and combines the category forecasts into a total. When modeling is
// not possible the whole forecast degrades to a simple average.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"spese-insights/internal/core"
	"spese-insights/internal/timeseries"
)

var (
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
	ErrModelFailure   = errors.New("model failure")
)

const (
	MethodARIMA         = "arima"
	MethodSimpleAverage = "simple_average"

	// minObservations is the smallest daily series length that is modeled.
	minObservations = 3
	averageBand     = 0.10
)

// Config holds forecaster settings
type Config struct {
	// Order of the per-category model (default: ARIMA(2,1,2))
	Order Order

	// DefaultHorizon is used when the caller passes 0 (default: 30)
	DefaultHorizon int

	// MaxHorizon bounds the requested horizon (default: 365)
	MaxHorizon int

	// Confidence level of the prediction intervals (default: 0.95)
	Confidence float64

	// Concurrency limits parallel category fits (default: 4)
	Concurrency int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Order:          Order{P: 2, D: 1, Q: 2},
		DefaultHorizon: 30,
		MaxHorizon:     365,
		Confidence:     0.95,
		Concurrency:    4,
	}
}

type (
	Interval struct {
		Lower float64 `json:"lower"`
		Upper float64 `json:"upper"`
	}

	CategoryForecast struct {
		Predictions  []float64  `json:"predictions"`
		Intervals    []Interval `json:"confidence_intervals"`
		AIC          float64    `json:"aic"`
		BIC          float64    `json:"bic"`
		Observations int        `json:"observations"`
	}

	// Diagnostics describe how the forecast was produced. AIC and BIC are
	// only set for model-based forecasts.
	Diagnostics struct {
		Method string             `json:"method"`
		Model  string             `json:"model,omitempty"`
		AIC    map[string]float64 `json:"aic,omitempty"`
		BIC    map[string]float64 `json:"bic,omitempty"`
	}

	Result struct {
		Horizon             int                         `json:"horizon_days"`
		Predictions         []float64                   `json:"predictions"`
		Intervals           []Interval                  `json:"confidence_intervals"`
		CategoryPredictions map[string]CategoryForecast `json:"category_predictions"`
		Diagnostics         Diagnostics                 `json:"model_metrics"`
		Status              core.Status                 `json:"status"`
		Reason              string                      `json:"reason,omitempty"`
	}
)

// Forecaster is stateless between calls and safe for concurrent use.
type Forecaster struct {
	config Config
	z      float64
}

// New creates a forecaster, filling unset config fields with defaults.
func New(config Config) *Forecaster {
	def := DefaultConfig()
	if config.Order == (Order{}) {
		config.Order = def.Order
	}
	if config.DefaultHorizon <= 0 {
		config.DefaultHorizon = def.DefaultHorizon
	}
	if config.MaxHorizon <= 0 {
		config.MaxHorizon = def.MaxHorizon
	}
	if config.Confidence <= 0 || config.Confidence >= 1 {
		config.Confidence = def.Confidence
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	return &Forecaster{
		config: config,
		z:      distuv.UnitNormal.Quantile(1 - (1-config.Confidence)/2),
	}
}

// Config returns the effective configuration.
func (f *Forecaster) Config() Config {
	return f.config
}

type categoryFit struct {
	name     string
	series   timeseries.Series
	forecast CategoryForecast
}

// Forecast predicts horizon days of spending after each category's last
// record. A horizon of 0 selects the configured default.
func (f *Forecaster) Forecast(ctx context.Context, expenses []core.Expense, horizon int) (Result, error) {
	if len(expenses) == 0 {
		return Result{}, core.ErrNoData
	}
	if horizon == 0 {
		horizon = f.config.DefaultHorizon
	}
	if horizon < 1 || horizon > f.config.MaxHorizon {
		return Result{}, fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidHorizon, horizon, f.config.MaxHorizon)
	}
	if err := core.ValidateExpenses(expenses); err != nil {
		return Result{}, err
	}

	start := time.Now()
	order, groups := core.GroupByCategory(expenses)
	var fits []*categoryFit
	for _, name := range order {
		s := timeseries.DailyFilled(groups[name])
		if s.Len() < minObservations {
			slog.DebugContext(ctx, "Skipping category with too few observations",
				"category", name, "observations", s.Len())
			continue
		}
		fits = append(fits, &categoryFit{name: name, series: s})
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("forecast: %w", err)
	}
	if len(fits) == 0 {
		return f.simpleAverage(ctx, expenses, horizon, "no category has enough observations"), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Concurrency)
	for _, fit := range fits {
		fit := fit
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cf, err := f.fitCategory(fit.series, horizon)
			if err != nil {
				return fmt.Errorf("category %q: %w", fit.name, err)
			}
			fit.forecast = cf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("forecast: %w", ctxErr)
		}
		return f.simpleAverage(ctx, expenses, horizon, err.Error()), nil
	}

	// sum in category name order so totals do not depend on input order
	sort.Slice(fits, func(i, j int) bool { return fits[i].name < fits[j].name })

	res := Result{
		Horizon:             horizon,
		Predictions:         make([]float64, horizon),
		Intervals:           make([]Interval, horizon),
		CategoryPredictions: make(map[string]CategoryForecast, len(fits)),
		Diagnostics: Diagnostics{
			Method: MethodARIMA,
			Model:  f.config.Order.String(),
			AIC:    make(map[string]float64, len(fits)),
			BIC:    make(map[string]float64, len(fits)),
		},
		Status: core.StatusOK,
	}
	for _, fit := range fits {
		cf := fit.forecast
		for i := 0; i < horizon; i++ {
			res.Predictions[i] += cf.Predictions[i]
			res.Intervals[i].Lower += cf.Intervals[i].Lower
			res.Intervals[i].Upper += cf.Intervals[i].Upper
		}
		res.CategoryPredictions[fit.name] = cf
		res.Diagnostics.AIC[fit.name] = cf.AIC
		res.Diagnostics.BIC[fit.name] = cf.BIC
	}

	slog.DebugContext(ctx, "Forecast completed",
		"categories", len(fits),
		"horizon", horizon,
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (f *Forecaster) fitCategory(series timeseries.Series, horizon int) (CategoryForecast, error) {
	m, err := fitARIMA(series.Values(), f.config.Order)
	if err != nil {
		return CategoryForecast{}, err
	}
	point, half := m.forecast(horizon, f.z)
	cf := CategoryForecast{
		Predictions:  point,
		Intervals:    make([]Interval, horizon),
		AIC:          m.aic(),
		BIC:          m.bic(),
		Observations: series.Len(),
	}
	for i := range point {
		if math.IsNaN(point[i]) || math.IsInf(point[i], 0) || math.IsNaN(half[i]) {
			return CategoryForecast{}, fmt.Errorf("%w: non-finite forecast at step %d", ErrModelFailure, i+1)
		}
		cf.Intervals[i] = Interval{Lower: point[i] - half[i], Upper: point[i] + half[i]}
	}
	return cf, nil
}

// simpleAverage repeats the mean amount of all records for every day, with a
// band of ±10% of its magnitude.
func (f *Forecaster) simpleAverage(ctx context.Context, expenses []core.Expense, horizon int, reason string) Result {
	slog.WarnContext(ctx, "Falling back to simple average forecast", "reason", reason)

	mean := core.Sum(expenses).InexactFloat64() / float64(len(expenses))
	band := math.Abs(mean) * averageBand
	res := Result{
		Horizon:             horizon,
		Predictions:         make([]float64, horizon),
		Intervals:           make([]Interval, horizon),
		CategoryPredictions: map[string]CategoryForecast{},
		Diagnostics:         Diagnostics{Method: MethodSimpleAverage},
		Status:              core.StatusDegraded,
		Reason:              reason,
	}
	for i := range res.Predictions {
		res.Predictions[i] = mean
		res.Intervals[i] = Interval{Lower: mean - band, Upper: mean + band}
	}
	return res
}
