package queue

import "context"

// Job defines a queue job handler. Jobs are registered with the consumer at
// construction and dispatched by message type.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the type of message that the job handles.
	Type() string

	// Handle processes the job with the given payload.
	Handle(ctx context.Context, payload interface{}) error
}
