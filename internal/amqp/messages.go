package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestKind selects the insight computation a request asks for.
type RequestKind string

const (
	KindClassify RequestKind = "classify"
	KindForecast RequestKind = "forecast"
	KindAnalyze  RequestKind = "analyze"
	KindAsk      RequestKind = "ask"
	KindInsights RequestKind = "insights"
)

// Reply statuses
const (
	ReplyOK    = "ok"
	ReplyError = "error"
)

var ErrInvalidRequest = errors.New("invalid insight request")

// InsightRequest asks the worker to compute something for one user. Only
// the fields relevant to Kind are read.
type InsightRequest struct {
	RequestID   string      `json:"request_id"`
	Kind        RequestKind `json:"kind"`
	UserID      string      `json:"user_id,omitempty"`
	Description string      `json:"description,omitempty"`
	Query       string      `json:"query,omitempty"`
	HorizonDays int         `json:"horizon_days,omitempty"`
	// ReplyTo overrides the default reply routing key.
	ReplyTo   string    `json:"reply_to,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewInsightRequest creates a request with a fresh ID.
func NewInsightRequest(kind RequestKind, userID string) *InsightRequest {
	return &InsightRequest{
		RequestID: uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// Validate checks that the fields needed by Kind are present.
func (r *InsightRequest) Validate() error {
	if r.RequestID == "" {
		return fmt.Errorf("%w: missing request_id", ErrInvalidRequest)
	}
	if _, err := uuid.Parse(r.RequestID); err != nil {
		return fmt.Errorf("%w: request_id: %v", ErrInvalidRequest, err)
	}
	switch r.Kind {
	case KindClassify:
		// an empty description is valid and classifies as Other
	case KindAsk:
		if r.Query == "" {
			return fmt.Errorf("%w: ask requires a query", ErrInvalidRequest)
		}
	case KindForecast:
		if r.HorizonDays < 0 {
			return fmt.Errorf("%w: negative horizon %d", ErrInvalidRequest, r.HorizonDays)
		}
	case KindAnalyze, KindInsights:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, r.Kind)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (r *InsightRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// InsightRequestFromJSON decodes and validates a request.
func InsightRequestFromJSON(data []byte) (*InsightRequest, error) {
	var req InsightRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// InsightReply carries either a JSON result or an error message.
type InsightReply struct {
	RequestID string          `json:"request_id"`
	Kind      RequestKind     `json:"kind"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewReply wraps result for req.
func NewReply(req *InsightRequest, result any) (*InsightReply, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &InsightReply{
		RequestID: req.RequestID,
		Kind:      req.Kind,
		Status:    ReplyOK,
		Result:    raw,
		Timestamp: time.Now(),
	}, nil
}

// NewErrorReply reports that req could not be served.
func NewErrorReply(req *InsightRequest, message string) *InsightReply {
	return &InsightReply{
		RequestID: req.RequestID,
		Kind:      req.Kind,
		Status:    ReplyError,
		Error:     message,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (r *InsightReply) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// InsightReplyFromJSON creates a reply from JSON bytes
func InsightReplyFromJSON(data []byte) (*InsightReply, error) {
	var reply InsightReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
