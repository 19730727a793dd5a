package crudkit

import (
	"context"
	"errors"
	"iter"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go.llib.dev/rxcrud/port/rx"
)

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

func outcomeOf(err error, unsubscribed bool) string {
	switch {
	case err == nil && unsubscribed:
		return OutcomeCancelled
	case err == nil:
		return OutcomeCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

// begin marks the activation of a pipeline, the returned func marks its termination.
func (r *Repository[ENT, ID]) begin(ctx context.Context, op string) (context.Context, func(err error, unsubscribed bool)) {
	var (
		start  = time.Now()
		entity = r.entityName()
		logger = r.logger().With(zap.String("entity", entity), zap.String("operation", op))
		span   trace.Span
	)
	if r.Tracer != nil {
		ctx, span = r.Tracer.Start(ctx, "crudkit."+op,
			trace.WithAttributes(attribute.String("entity", entity)))
	}
	logger.Debug("pipeline started")
	return ctx, func(err error, unsubscribed bool) {
		var (
			outcome = outcomeOf(err, unsubscribed)
			elapsed = time.Since(start)
		)
		if outcome == OutcomeFailed {
			logger.Warn("pipeline failed", zap.Duration("duration", elapsed), zap.Error(err))
		} else {
			logger.Debug("pipeline finished", zap.String("outcome", outcome), zap.Duration("duration", elapsed))
		}
		if r.Metrics != nil {
			r.Metrics.observe(entity, op, outcome, elapsed)
		}
		if span != nil {
			span.SetAttributes(attribute.String("outcome", outcome))
			if outcome == OutcomeFailed {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}
	}
}

func single[ENT, ID, T any](r *Repository[ENT, ID], op string, fn func(ctx context.Context) (T, bool, error)) rx.Single[T] {
	return func(ctx context.Context) (_ T, _ bool, rErr error) {
		ctx, end := r.begin(ctx, op)
		defer func() { end(rErr, false) }()
		return fn(ctx)
	}
}

func many[ENT, ID, T any](r *Repository[ENT, ID], op string, fn func(ctx context.Context) iter.Seq2[T, error]) rx.Many[T] {
	return func(ctx context.Context) iter.Seq2[T, error] {
		return func(yield func(T, error) bool) {
			ctx, end := r.begin(ctx, op)
			var (
				rErr         error
				unsubscribed bool
			)
			defer func() { end(rErr, unsubscribed) }()
			for v, err := range fn(ctx) {
				if err != nil {
					rErr = err
					yield(v, err)
					return
				}
				if !yield(v, nil) {
					unsubscribed = true
					return
				}
			}
		}
	}
}

func completion[ENT, ID any](r *Repository[ENT, ID], op string, fn func(ctx context.Context) error) rx.Completion {
	return func(ctx context.Context) (rErr error) {
		ctx, end := r.begin(ctx, op)
		defer func() { end(rErr, false) }()
		return fn(ctx)
	}
}
