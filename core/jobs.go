package core

import (
	"context"
	"time"
)

// JobExecutionMessage is the queue-neutral shape of a background job. The
// reconciler enqueues these; the gojob adapter maps them onto the concrete
// queue implementation. Attempt is the zero-based delivery attempt: the queue
// raises it each time a nacked message is redelivered, so consumers can bound
// their retries.
type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	Attempt        int
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

// JobAttemptNacker is an optional JobDelivery extension for queues that apply
// a retry policy keyed on the delivery attempt.
type JobAttemptNacker interface {
	NackForAttempt(ctx context.Context, opts JobNackOptions, attempt int) error
}
