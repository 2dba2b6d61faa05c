package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spese-insights/internal/amqp"
	"spese-insights/internal/core"
	"spese-insights/internal/insights"
)

type fakeLister struct {
	expenses []core.Expense
	err      error
	users    []string
}

func (f *fakeLister) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	f.users = append(f.users, userID)
	if f.err != nil {
		return nil, f.err
	}
	return f.expenses, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	replies []*amqp.InsightReply
	keys    []string
	err     error
}

func (f *fakePublisher) PublishReply(_ context.Context, reply *amqp.InsightReply, routingKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replies = append(f.replies, reply)
	f.keys = append(f.keys, routingKey)
	return nil
}

func sampleExpenses() []core.Expense {
	var out []core.Expense
	start := core.NewDate(2024, 3, 1)
	for i := 0; i < 14; i++ {
		out = append(out, core.Expense{
			Date:        start.AddDays(i),
			Description: "Groceries",
			Amount:      decimal.NewFromInt(int64(15 + i%4*3)),
			Category:    "Food",
			Currency:    core.DefaultCurrency,
			UserID:      "alice",
		})
	}
	return out
}

func newRequest(kind amqp.RequestKind) *amqp.InsightRequest {
	return amqp.NewInsightRequest(kind, "alice")
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		req        func() *amqp.InsightRequest
		lister     *fakeLister
		wantStatus string
		wantError  string
		wantLoads  int
	}{
		{
			name: "classify does not load expenses",
			req: func() *amqp.InsightRequest {
				r := newRequest(amqp.KindClassify)
				r.Description = "Uber ride"
				return r
			},
			lister:     &fakeLister{},
			wantStatus: amqp.ReplyOK,
		},
		{
			name: "ask answers from history",
			req: func() *amqp.InsightRequest {
				r := newRequest(amqp.KindAsk)
				r.Query = "what is my total?"
				return r
			},
			lister:     &fakeLister{expenses: sampleExpenses()},
			wantStatus: amqp.ReplyOK,
			wantLoads:  1,
		},
		{
			name: "forecast with horizon",
			req: func() *amqp.InsightRequest {
				r := newRequest(amqp.KindForecast)
				r.HorizonDays = 5
				return r
			},
			lister:     &fakeLister{expenses: sampleExpenses()},
			wantStatus: amqp.ReplyOK,
			wantLoads:  1,
		},
		{
			name:       "analyze without data",
			req:        func() *amqp.InsightRequest { return newRequest(amqp.KindAnalyze) },
			lister:     &fakeLister{},
			wantStatus: amqp.ReplyError,
			wantError:  insights.NoDataMessage,
			wantLoads:  1,
		},
		{
			name:       "insights with source failure",
			req:        func() *amqp.InsightRequest { return newRequest(amqp.KindInsights) },
			lister:     &fakeLister{err: errors.New("sheet unavailable")},
			wantStatus: amqp.ReplyError,
			wantError:  "load expenses: sheet unavailable",
			wantLoads:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			w := NewInsightWorker(insights.New(insights.DefaultConfig()), tt.lister, pub, time.Minute)
			req := tt.req()

			if err := w.Handle(context.Background(), req); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(pub.replies) != 1 {
				t.Fatalf("expected one reply, got %d", len(pub.replies))
			}
			reply := pub.replies[0]
			if reply.RequestID != req.RequestID || reply.Kind != req.Kind {
				t.Errorf("reply does not match request: %+v", reply)
			}
			if reply.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q (error %q)", reply.Status, tt.wantStatus, reply.Error)
			}
			if reply.Error != tt.wantError {
				t.Errorf("error = %q, want %q", reply.Error, tt.wantError)
			}
			if len(tt.lister.users) != tt.wantLoads {
				t.Errorf("expected %d loads, got %d", tt.wantLoads, len(tt.lister.users))
			}
			for _, u := range tt.lister.users {
				if u != "alice" {
					t.Errorf("loaded expenses for %q", u)
				}
			}
		})
	}
}

func TestHandleReplyPayload(t *testing.T) {
	pub := &fakePublisher{}
	w := NewInsightWorker(insights.New(insights.DefaultConfig()), &fakeLister{expenses: sampleExpenses()}, pub, 0)
	req := newRequest(amqp.KindForecast)
	req.HorizonDays = 3
	req.ReplyTo = "custom_replies"

	if err := w.Handle(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.keys[0] != "custom_replies" {
		t.Errorf("expected custom routing key, got %q", pub.keys[0])
	}

	var payload struct {
		Horizon     int       `json:"horizon_days"`
		Predictions []float64 `json:"predictions"`
	}
	if err := json.Unmarshal(pub.replies[0].Result, &payload); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if payload.Horizon != 3 || len(payload.Predictions) != 3 {
		t.Errorf("unexpected forecast payload %+v", payload)
	}
}

func TestHandlePublishFailure(t *testing.T) {
	pub := &fakePublisher{err: amqp.ErrCircuitOpen}
	w := NewInsightWorker(insights.New(insights.DefaultConfig()), &fakeLister{}, pub, 0)

	err := w.Handle(context.Background(), newRequest(amqp.KindClassify))
	if !errors.Is(err, amqp.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestHandleCancelled(t *testing.T) {
	pub := &fakePublisher{}
	lister := &fakeLister{err: context.Canceled}
	w := NewInsightWorker(insights.New(insights.DefaultConfig()), lister, pub, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Handle(ctx, newRequest(amqp.KindAnalyze)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(pub.replies) != 0 {
		t.Fatalf("expected no reply, got %d", len(pub.replies))
	}
}

func TestProcessUnknownKind(t *testing.T) {
	w := NewInsightWorker(insights.New(insights.DefaultConfig()), &fakeLister{}, &fakePublisher{}, 0)
	req := newRequest("summarize")
	if _, err := w.Process(context.Background(), req); !errors.Is(err, amqp.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
