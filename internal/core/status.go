package core

// Status tags a computed result with how it was produced.
type Status string

const (
	// StatusOK means the primary model produced the result.
	StatusOK Status = "ok"
	// StatusDegraded means a deterministic fallback produced the result.
	StatusDegraded Status = "degraded"
	// StatusError means no result could be produced.
	StatusError Status = "error"
)

// Degraded reports whether the result came from a fallback path.
func (s Status) Degraded() bool {
	return s == StatusDegraded
}
