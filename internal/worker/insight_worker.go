package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spese-insights/internal/amqp"
	"spese-insights/internal/insights"
	applog "spese-insights/internal/log"
	"spese-insights/internal/sheets"
)

// Publisher sends replies back to requesters.
type Publisher interface {
	PublishReply(ctx context.Context, reply *amqp.InsightReply, routingKey string) error
}

// InsightWorker serves insight requests read from the queue.
type InsightWorker struct {
	engine    *insights.Engine
	source    sheets.ExpenseLister
	publisher Publisher
	timeout   time.Duration
}

// NewInsightWorker creates a worker. A positive timeout bounds each request.
func NewInsightWorker(engine *insights.Engine, source sheets.ExpenseLister, publisher Publisher, timeout time.Duration) *InsightWorker {
	return &InsightWorker{
		engine:    engine,
		source:    source,
		publisher: publisher,
		timeout:   timeout,
	}
}

// Handle computes the reply for req and publishes it. Domain failures are
// reported in the reply; only cancellation and publish failures are
// returned so that the delivery is retried.
func (w *InsightWorker) Handle(ctx context.Context, req *amqp.InsightRequest) error {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentWorker).With(
		applog.FieldRequestID, req.RequestID,
		applog.FieldUserID, req.UserID,
		applog.FieldKind, req.Kind)
	ctx = applog.WithContext(ctx, logger)

	procCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		procCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := w.Process(procCtx, req)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}

	var reply *amqp.InsightReply
	if err != nil {
		logger.WarnContext(ctx, "Insight request failed", applog.FieldError, err)
		reply = amqp.NewErrorReply(req, insights.ErrorMessage(err))
	} else if reply, err = amqp.NewReply(req, result); err != nil {
		reply = amqp.NewErrorReply(req, err.Error())
	}

	if err := w.publisher.PublishReply(ctx, reply, req.ReplyTo); err != nil {
		return fmt.Errorf("publish reply: %w", err)
	}

	logger.InfoContext(ctx, "Insight request served",
		applog.FieldStatus, reply.Status,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Process runs the computation req asks for and returns its result.
func (w *InsightWorker) Process(ctx context.Context, req *amqp.InsightRequest) (any, error) {
	if req.Kind == amqp.KindClassify {
		return w.engine.Classify(ctx, req.Description), nil
	}

	expenses, err := w.source.ListExpenses(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	switch req.Kind {
	case amqp.KindForecast:
		return w.engine.Forecast(ctx, expenses, req.HorizonDays)
	case amqp.KindAnalyze:
		return w.engine.Analyze(ctx, expenses)
	case amqp.KindAsk:
		return w.engine.Answer(ctx, req.Query, expenses)
	case amqp.KindInsights:
		return w.engine.Insights(ctx, expenses)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", amqp.ErrInvalidRequest, req.Kind)
	}
}
