package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	"github.com/simonbru/s3stream"
)

// retrier applies bounded exponential backoff to transient object-store failures.
// Classification is by error category, not by count: authorization and not-found failures
// are surfaced immediately, timeouts and server-side errors are retried until the attempt
// budget is exhausted, at which point the last error is surfaced under ErrUnavailable.
type retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func (r retrier) do(ctx context.Context, op func(context.Context) error) error {
	var err error
	delay := r.baseDelay
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		err = classify(err)
		if !isTransient(err) {
			return err
		}
		if attempt >= r.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", s3stream.ErrUnavailable, r.maxAttempts, err)
}

// transient error codes per the S3 API; everything else API-level is fatal.
var transientCodes = map[string]bool{
	"RequestTimeout":          true,
	"RequestTimeoutException": true,
	"SlowDown":                true,
	"Throttling":              true,
	"ThrottlingException":     true,
	"RequestLimitExceeded":    true,
	"InternalError":           true,
	"ServiceUnavailable":      true,
}

func isTransient(err error) bool {
	// the session was cancelled, not the service failing
	if errors.Is(err, context.Canceled) {
		return false
	}
	// a per-request timeout is a transient condition
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.Is(err, s3stream.ErrNotExist) || errors.Is(err, s3stream.ErrAccessDenied) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if transientCodes[apiErr.ErrorCode()] {
			return true
		}
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return respErr.HTTPStatusCode() >= 500
		}
		return false
	}

	// non-API errors are transport-level (connection reset, DNS, ...)
	return true
}
