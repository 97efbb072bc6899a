package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/smithy-go"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/geocoder89/userhub/store"

// ObserveStore runs fn inside a client span and records its latency.
// Not-found and condition-failed outcomes are counted but do not mark
// the span as errored.
func (p *Prom) ObserveStore(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("store.op", op)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := "ok"

	if err != nil {
		class := classifyStoreErr(err)
		p.StoreErrorsTotal.WithLabelValues(op, class).Inc()

		if isExpected(class) {
			status = class
		} else {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, class)
		}
	}

	p.StoreOpDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func isExpected(class string) bool {
	return class == "not_found" || class == "condition_failed"
}

func classifyStoreErr(err error) string {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return "not_found"
	case errors.Is(err, user.ErrConditionFailed):
		return "condition_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, redis.Nil):
		return "not_found"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ConditionalCheckFailedException":
			return "condition_failed"
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return "throttled"
		case "ResourceNotFoundException":
			return "missing_table"
		default:
			return "aws_" + apiErr.ErrorCode()
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
