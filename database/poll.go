package database

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SingleRecord polls query until it returns exactly one record, using the
// handle's policy. See SingleRecordWithin.
func SingleRecord[T any, P Record[T]](ctx context.Context, h *Handle, query string, params ...Param) (T, error) {
	policy := h.Policy()
	return SingleRecordWithin[T, P](ctx, h, policy.Timeout, policy.Interval, query, params...)
}

// SingleRecordWithin polls query every interval until it returns exactly one
// record and returns it.
//
// More than one record fails with ErrMultipleMatch. If no record has appeared
// once timeout has elapsed the zero T is returned with a nil error, so callers
// must check for the zero value themselves; TrySingleRecord reports it
// explicitly. Cancelling ctx stops the wait early with ctx's error.
func SingleRecordWithin[T any, P Record[T]](ctx context.Context, h *Handle, timeout, interval time.Duration, query string, params ...Param) (T, error) {
	record, _, err := TrySingleRecord[T, P](ctx, h, timeout, interval, query, params...)
	return record, err
}

// TrySingleRecord is SingleRecordWithin that also reports whether a record
// was found before the timeout.
func TrySingleRecord[T any, P Record[T]](ctx context.Context, h *Handle, timeout, interval time.Duration, query string, params ...Param) (T, bool, error) {
	return poll(ctx, h, timeout, interval, query, func(ctx context.Context) ([]T, error) {
		return Records[T, P](ctx, h, query, params...)
	})
}

// SingleRow polls like TrySingleRecord without mapping the row.
func SingleRow(ctx context.Context, h *Handle, timeout, interval time.Duration, query string, params ...Param) (Row, bool, error) {
	return poll(ctx, h, timeout, interval, query, func(ctx context.Context) ([]Row, error) {
		result, err := h.Rows(ctx, query, params...)
		if err != nil {
			return nil, err
		}
		return result.Rows, nil
	})
}

func poll[T any](ctx context.Context, h *Handle, timeout, interval time.Duration, query string, fetch func(context.Context) ([]T, error)) (T, bool, error) {
	var zero T

	ctx, span := h.tracer.Start(ctx, "dbprobe.poll")
	defer span.End()

	// time.Now carries a monotonic reading, so Since ignores wall clock changes
	start := time.Now()
	finish := func(outcome string, attempts int) {
		h.metrics.pollFinished(outcome, time.Since(start))
		span.SetAttributes(attribute.String("dbprobe.poll.outcome", outcome), attribute.Int("dbprobe.poll.attempts", attempts))
	}

	for attempt := 1; ; attempt++ {
		h.metrics.pollAttempt()

		results, err := fetch(ctx)
		if err != nil {
			finish("error", attempt)
			span.SetStatus(codes.Error, err.Error())
			return zero, false, err
		}

		switch n := len(results); {
		case n == 1:
			finish("found", attempt)
			h.logger.Debug("single record found", "attempts", attempt, "elapsed", time.Since(start))
			return results[0], true, nil
		case n > 1:
			finish("multiple", attempt)
			err := &Error{Kind: KindMultipleMatch, Database: h.name, Query: query, Count: n}
			span.SetStatus(codes.Error, err.Error())
			return zero, false, err
		}

		elapsed := time.Since(start)
		if elapsed >= timeout {
			finish("timeout", attempt)
			h.logger.Debug("no record found before timeout, returning default",
				"attempts", attempt, "elapsed", elapsed, "timeout", timeout)
			return zero, false, nil
		}

		h.logger.Debug("no record yet", "attempt", attempt, "elapsed", elapsed, "interval", interval)
		if err := wait(ctx, interval); err != nil {
			finish("canceled", attempt)
			return zero, false, queryError(h.name, query, err)
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
