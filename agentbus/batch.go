package agentbus

import (
	"context"
	"errors"

	cbus "github.com/next-trace/scg-agent-bus/contract/bus"
)

// BatchOptions controls Batch execution behavior.
// OnProgress is called after each message is sent with done and total.
// OnError is called when a send returns an error with its index, the message, and the error.
type BatchOptions struct {
	OnProgress func(done, total int)
	OnError    func(index int, msg cbus.Message, err error)
}

// BatchOpt configures BatchOptions.
type BatchOpt func(*BatchOptions)

// WithBatchProgress sets the progress callback.
func WithBatchProgress(fn func(done, total int)) BatchOpt {
	return func(o *BatchOptions) { o.OnProgress = fn }
}

// WithBatchOnError sets the error callback.
func WithBatchOnError(fn func(index int, msg cbus.Message, err error)) BatchOpt {
	return func(o *BatchOptions) { o.OnError = fn }
}

// Batch sends the messages in order.
// Cancellation is checked between sends, never inside one. Errors are aggregated.
func (b *Bus) Batch(ctx context.Context, msgs []cbus.Message, opts ...BatchOpt) error {
	var o BatchOptions
	for _, f := range opts {
		f(&o)
	}

	total := len(msgs)

	var errs []error

	for i, m := range msgs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		if err := b.Send(ctx, m.Topic, m.Payload); err != nil {
			if o.OnError != nil {
				o.OnError(i, m, err)
			}

			errs = append(errs, err)
		}

		if o.OnProgress != nil {
			o.OnProgress(i+1, total)
		}
	}

	return errors.Join(errs...)
}
