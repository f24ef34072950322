package master

import (
	"context"
	"fmt"

	"regionmaster/internal/region"
)

// Result is the outcome of one Operation attempt.
type Result int

const (
	// Succeeded drops the operation.
	Succeeded Result = iota
	// Delayed requeues the operation after a backoff.
	Delayed
	// Failed drops the operation and logs it.
	Failed
)

func (r Result) String() string {
	switch r {
	case Succeeded:
		return "succeeded"
	case Delayed:
		return "delayed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Operation is a pending, retryable status change. Lower priorities run first.
// When Process returns a non-nil error its Result is ignored and the
// coordinator decides between retrying and failing.
type Operation interface {
	Priority() int
	Region() region.Info
	Kind() string
	Process(ctx context.Context) (Result, error)
	String() string
}
