package enhance

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Caller invokes an enhancement backend. Implementations own the
// transport; the dispatcher only sees bytes or an error.
type Caller interface {
	Call(ctx context.Context, backend, capability, query string) ([]byte, error)
}

// ResponseCache is the slice of the response cache the dispatcher needs.
type ResponseCache interface {
	Get(backend, query string) ([]byte, bool)
	Set(backend, query string, value []byte) bool
}

// Recorder receives latency/success observations for live backend calls.
type Recorder interface {
	Record(backend string, latency time.Duration, success bool)
}

// Dispatcher orchestrates one enhancement request: cache check, primary
// call bounded by a timeout, at most one fallback call, cache write and
// stat recording. It never panics across its API boundary; callers
// always receive a Response.
type Dispatcher struct {
	selector *Selector
	cache    ResponseCache
	caller   Caller
	perf     Recorder
	logger   *slog.Logger
}

// NewDispatcher wires a dispatcher. cache and perf may be nil, which
// disables caching and stat recording respectively.
func NewDispatcher(sel *Selector, cache ResponseCache, caller Caller, perf Recorder, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		selector: sel,
		cache:    cache,
		caller:   caller,
		perf:     perf,
		logger:   logger,
	}
}

// Dispatch services one request for the given category. Every attempt is
// appended to the caller-owned ledger. Each backend attempt gets its own
// full timeout window; the windows are not cumulative. Fallback results
// are never cached since they represent degraded answers.
func (d *Dispatcher) Dispatch(ctx context.Context, cat Category, query string, timeout time.Duration, ledger *Ledger) Response {
	capability := cat.String()

	primary, err := d.selector.Primary(cat)
	if err != nil {
		// Unreachable after startup validation; degrade rather than panic.
		d.logger.Error("no primary backend", "category", cat.String(), "error", err)
		return Response{Success: false, Error: err.Error()}
	}

	if d.cache != nil {
		if cached, ok := d.cache.Get(primary, query); ok {
			ledger.Append(CallRecord{
				Backend:    primary,
				Capability: capability,
				Success:    true,
				Cached:     true,
				Timestamp:  time.Now().UTC(),
			})
			return Response{
				Content:       cached,
				SourceBackend: primary,
				Success:       true,
				Cached:        true,
			}
		}
	}

	content, elapsed, callErr := d.attempt(ctx, primary, capability, query, timeout)
	if callErr == nil {
		ledger.Append(CallRecord{
			Backend:        primary,
			Capability:     capability,
			ProcessingTime: elapsed,
			Success:        true,
			Timestamp:      time.Now().UTC(),
		})
		if d.cache != nil && !d.cache.Set(primary, query, content) {
			d.logger.Warn("cache write failed", "backend", primary)
		}
		return Response{
			Content:          content,
			SourceBackend:    primary,
			ProcessingTimeMs: elapsed.Milliseconds(),
			Success:          true,
		}
	}

	ledger.Append(CallRecord{
		Backend:        primary,
		Capability:     capability,
		ProcessingTime: elapsed,
		Success:        false,
		Error:          classifyError(callErr),
		Timestamp:      time.Now().UTC(),
	})
	d.logger.Warn("primary backend failed",
		"backend", primary, "category", capability, "error", callErr)

	fallback, err := d.selector.Fallback(primary)
	if err != nil {
		// Missing fallback is terminal, not a guessable default.
		return Response{
			SourceBackend: primary,
			Success:       false,
			Error:         "all backends failed: " + classifyError(callErr),
		}
	}

	content, elapsed, fbErr := d.attempt(ctx, fallback, capability, query, timeout)
	if fbErr == nil {
		ledger.Append(CallRecord{
			Backend:        fallback,
			Capability:     capability,
			ProcessingTime: elapsed,
			Success:        true,
			Timestamp:      time.Now().UTC(),
		})
		return Response{
			Content:          content,
			SourceBackend:    fallback,
			ProcessingTimeMs: elapsed.Milliseconds(),
			Success:          true,
		}
	}

	ledger.Append(CallRecord{
		Backend:        fallback,
		Capability:     capability,
		ProcessingTime: elapsed,
		Success:        false,
		Error:          classifyError(fbErr),
		Timestamp:      time.Now().UTC(),
	})
	d.logger.Warn("fallback backend failed",
		"backend", fallback, "category", capability, "error", fbErr)

	return Response{
		SourceBackend: fallback,
		Success:       false,
		Error:         "all backends failed: " + classifyError(fbErr),
	}
}

// attempt runs one bounded backend call and records its outcome with the
// performance tracker.
func (d *Dispatcher) attempt(ctx context.Context, backend, capability, query string, timeout time.Duration) ([]byte, time.Duration, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	content, err := d.caller.Call(callCtx, backend, capability, query)
	elapsed := time.Since(start)

	if err == nil && len(content) == 0 {
		err = errors.New("backend returned empty response")
	}
	if d.perf != nil {
		d.perf.Record(backend, elapsed, err == nil)
	}
	return content, elapsed, err
}

// classifyError collapses transport errors into the two failure kinds
// the ledger distinguishes: timeouts and backend errors.
func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "backend timeout"
	}
	return err.Error()
}
