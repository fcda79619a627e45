// Copyright 2025 The Bastion Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adamsih300u/bastion/core"
)

// RetryPolicy wraps embedding calls with classification-driven backoff.
// Rate-limited calls wait at least the configured floor before
// retrying, regardless of any shorter provider hint, because
// rate-limit windows are coarse and retrying faster reliably
// re-triggers the limit. Validation and external errors are never
// retried.
type RetryPolicy struct {
	maxAttempts    int
	rateLimitFloor time.Duration
	rateLimitCap   time.Duration
	transientCap   time.Duration
	logger         *slog.Logger

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a retry policy from pipeline config values.
func NewRetryPolicy(maxAttempts int, rateLimitFloor, rateLimitCap, transientCap time.Duration, logger *slog.Logger) (*RetryPolicy, error) {
	if maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryPolicy{
		maxAttempts:    maxAttempts,
		rateLimitFloor: rateLimitFloor,
		rateLimitCap:   rateLimitCap,
		transientCap:   transientCap,
		logger:         logger,
		sleep:          sleepContext,
	}, nil
}

// Do runs the operation, retrying rate-limited and transient failures
// with backoff. Returns the last error once attempts are exhausted or
// immediately for non-retryable failures.
func (rp *RetryPolicy) Do(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 1; attempt <= rp.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				rp.logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		kind := Classify(lastErr)
		var delay time.Duration
		switch kind {
		case core.KindRateLimit:
			delay = rp.rateLimitDelay(lastErr, attempt)
		case core.KindTransient:
			delay = rp.transientDelay(attempt)
		default:
			// Bad input or a hard provider failure; retrying cannot succeed.
			return lastErr
		}

		if attempt == rp.maxAttempts {
			break
		}

		rp.logger.Debug("operation failed, will retry",
			"attempt", attempt, "maxAttempts", rp.maxAttempts,
			"kind", kind.String(), "delay", delay, "error", lastErr)

		if err := rp.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

// rateLimitDelay computes the wait for a rate-limited call: the
// provider hint when present, exponential backoff otherwise, never
// below the floor.
func (rp *RetryPolicy) rateLimitDelay(err error, attempt int) time.Duration {
	delay, ok := parseRetryHint(err.Error())
	if !ok {
		delay = expBackoff(attempt, rp.rateLimitCap)
	}
	if delay > rp.rateLimitCap {
		delay = rp.rateLimitCap
	}
	if delay < rp.rateLimitFloor {
		delay = rp.rateLimitFloor
	}
	return delay
}

func (rp *RetryPolicy) transientDelay(attempt int) time.Duration {
	return expBackoff(attempt, rp.transientCap)
}

// expBackoff returns min(ceiling, 2^attempt seconds).
func expBackoff(attempt int, ceiling time.Duration) time.Duration {
	if attempt > 30 {
		return ceiling
	}
	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > ceiling {
		return ceiling
	}
	return delay
}

// Classify maps an error to its handling kind. Structured
// core.PipelineError kinds win; otherwise the error text is sniffed
// best-effort, defaulting to external (no retry).
func Classify(err error) core.ErrorKind {
	var perr *core.PipelineError
	if errors.As(err, &perr) {
		return perr.Kind
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429"):
		return core.KindRateLimit
	case strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "504") ||
		strings.Contains(msg, "eof"):
		return core.KindTransient
	default:
		return core.KindExternal
	}
}

// retryHintPattern matches provider phrasing like "try again in 2s",
// "retry after 30 seconds", "wait 1.5 minutes".
var retryHintPattern = regexp.MustCompile(`(?i)(?:try again|retry|wait)[^0-9]*?(\d+(?:\.\d+)?)\s*(ms|milliseconds?|s|secs?|seconds?|m|mins?|minutes?)\b`)

// parseRetryHint extracts a provider-suggested wait time from error
// text. Best-effort only; classification never depends on it.
func parseRetryHint(msg string) (time.Duration, bool) {
	match := retryHintPattern.FindStringSubmatch(msg)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	var unit time.Duration
	switch {
	case strings.HasPrefix(strings.ToLower(match[2]), "ms"), strings.HasPrefix(strings.ToLower(match[2]), "mill"):
		unit = time.Millisecond
	case strings.HasPrefix(strings.ToLower(match[2]), "m"):
		unit = time.Minute
	default:
		unit = time.Second
	}
	return time.Duration(value * float64(unit)), true
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
