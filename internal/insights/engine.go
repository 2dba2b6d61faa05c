// Package insights ties the classifier, forecaster, analyzer and query
// dispatcher together behind a single entry point used by the CLI and the
// queue worker.
package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spese-insights/internal/analysis"
	"spese-insights/internal/cache"
	"spese-insights/internal/classifier"
	"spese-insights/internal/config"
	"spese-insights/internal/core"
	"spese-insights/internal/forecast"
	applog "spese-insights/internal/log"
	"spese-insights/internal/query"
)

const classifyKeyPrefix = "classify:"

// Config groups the settings of the underlying components.
type Config struct {
	Forecast forecast.Config
	Analysis analysis.Config
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Forecast: forecast.DefaultConfig(),
		Analysis: analysis.DefaultConfig(),
	}
}

// FromAppConfig applies the application settings to the defaults.
func FromAppConfig(appConfig *config.Config) Config {
	cfg := DefaultConfig()
	if appConfig.ForecastHorizonDays > 0 {
		cfg.Forecast.DefaultHorizon = appConfig.ForecastHorizonDays
	}
	if appConfig.ForecastMaxHorizonDays > 0 {
		cfg.Forecast.MaxHorizon = appConfig.ForecastMaxHorizonDays
	}
	return cfg
}

// Report bundles an analysis with a default-horizon forecast.
type Report struct {
	Analysis    analysis.Result `json:"analysis"`
	Forecast    forecast.Result `json:"forecast"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Engine is safe for concurrent use.
type Engine struct {
	classifier *classifier.Classifier
	forecaster *forecast.Forecaster
	analyzer   *analysis.Analyzer
	dispatcher *query.Dispatcher
	cache      cache.Cache[classifier.Result]
	now        func() time.Time
}

type Option func(*Engine)

// WithClassificationCache memoises Classify results by description.
func WithClassificationCache(c cache.Cache[classifier.Result]) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithClassifier replaces the classifier trained on the built-in corpus.
func WithClassifier(c *classifier.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

func New(cfg Config, opts ...Option) *Engine {
	analyzer := analysis.New(cfg.Analysis)
	e := &Engine{
		forecaster: forecast.New(cfg.Forecast),
		analyzer:   analyzer,
		dispatcher: query.New(analyzer),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.classifier == nil {
		e.classifier = classifier.Default()
	}
	return e
}

func (e *Engine) logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentEngine)
}

// Classify suggests a category for description. It never fails: model
// problems degrade to the keyword table.
func (e *Engine) Classify(ctx context.Context, description string) classifier.Result {
	key := classifyKeyPrefix + strings.ToLower(strings.TrimSpace(description))
	if e.cache != nil {
		if res, ok := e.cache.Get(key); ok {
			e.logger(ctx).DebugContext(ctx, "Classification served from cache",
				applog.FieldCategory, res.Category, applog.FieldCacheHit, true)
			return res
		}
	}

	res := e.classifier.Classify(description)
	e.logger(ctx).DebugContext(ctx, "Classified description",
		applog.FieldCategory, res.Category,
		applog.FieldConfidence, res.Confidence,
		applog.FieldMethod, res.Method,
		applog.FieldStatus, res.Status)

	if e.cache != nil {
		e.cache.Set(key, res)
	}
	return res
}

// Forecast predicts horizon days of spending; 0 selects the configured
// default horizon.
func (e *Engine) Forecast(ctx context.Context, expenses []core.Expense, horizon int) (forecast.Result, error) {
	start := e.now()
	res, err := e.forecaster.Forecast(ctx, expenses, horizon)
	if err != nil {
		e.logFailure(ctx, applog.OpForecast, err)
		return forecast.Result{}, err
	}
	e.logger(ctx).InfoContext(ctx, "Forecast completed",
		applog.FieldHorizon, res.Horizon,
		applog.FieldExpenses, len(expenses),
		applog.FieldMethod, res.Diagnostics.Method,
		applog.FieldStatus, res.Status,
		applog.FieldDuration, e.now().Sub(start).Milliseconds())
	return res, nil
}

func (e *Engine) Analyze(ctx context.Context, expenses []core.Expense) (analysis.Result, error) {
	start := e.now()
	res, err := e.analyzer.Analyze(ctx, expenses)
	if err != nil {
		e.logFailure(ctx, applog.OpAnalyze, err)
		return analysis.Result{}, err
	}
	e.logger(ctx).InfoContext(ctx, "Analysis completed",
		applog.FieldExpenses, len(expenses),
		"unusual", len(res.UnusualSpending),
		applog.FieldDuration, e.now().Sub(start).Milliseconds())
	return res, nil
}

// Answer routes a free-text question to the matching summary.
func (e *Engine) Answer(ctx context.Context, q string, expenses []core.Expense) (query.Answer, error) {
	ans, err := e.dispatcher.Answer(ctx, q, expenses)
	if err != nil {
		e.logFailure(ctx, applog.OpAnswer, err)
		return query.Answer{}, err
	}
	e.logger(ctx).InfoContext(ctx, "Query answered", applog.FieldIntent, ans.Intent)
	return ans, nil
}

// Insights runs the analysis and a default-horizon forecast concurrently.
func (e *Engine) Insights(ctx context.Context, expenses []core.Expense) (Report, error) {
	var report Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := e.Analyze(gctx, expenses)
		if err != nil {
			return fmt.Errorf("analysis: %w", err)
		}
		report.Analysis = res
		return nil
	})
	g.Go(func() error {
		res, err := e.Forecast(gctx, expenses, 0)
		if err != nil {
			return fmt.Errorf("forecast: %w", err)
		}
		report.Forecast = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	report.GeneratedAt = e.now().UTC()
	return report, nil
}

func (e *Engine) logFailure(ctx context.Context, op string, err error) {
	errType := applog.ErrorTypeInternal
	switch {
	case errors.Is(err, core.ErrNoData):
		errType = applog.ErrorTypeNoData
	case errors.Is(err, core.ErrMalformedRecord), errors.Is(err, forecast.ErrInvalidHorizon):
		errType = applog.ErrorTypeValidation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		errType = applog.ErrorTypeTimeout
	}
	fields := applog.NewFields().WithOperation(op).WithError(err, errType)
	e.logger(ctx).WarnContext(ctx, "Insight computation failed", fields.ToSlice()...)
}

// NoDataMessage is shown to users when a history is empty.
const NoDataMessage = "No expenses data available"

// ErrorMessage renders err for a user-facing reply.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrNoData):
		return NoDataMessage
	default:
		return err.Error()
	}
}
