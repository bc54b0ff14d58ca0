package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/crestline/mentor/internal/config"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Manager owns the configured backend registry and the lifecycle of the
// instances behind it. Instances start lazily on first call and stop on
// idle timeout; the manager restarts them transparently. Manager
// implements the dispatcher's Caller interface.
type Manager struct {
	configs  map[string]config.BackendConfig
	limiters map[string]*rate.Limiter
	creds    CredentialSource
	logger   *slog.Logger

	mu        sync.Mutex
	instances map[string]instance
}

// NewManager builds a manager from the validated backend registry.
// creds may be nil when no backend declares a credential_key.
func NewManager(backends []config.BackendConfig, creds CredentialSource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		configs:   make(map[string]config.BackendConfig, len(backends)),
		limiters:  make(map[string]*rate.Limiter),
		creds:     creds,
		logger:    logger,
		instances: make(map[string]instance),
	}
	for _, b := range backends {
		m.configs[b.ID] = b
		if b.RatePerSec > 0 {
			m.limiters[b.ID] = rate.NewLimiter(rate.Limit(b.RatePerSec), b.Burst)
		}
	}
	return m
}

// Call dispatches an enhancement request to the named backend,
// lazy-starting its instance if needed. The per-backend rate limiter is
// honored inside the caller's deadline: waiting for a token spends the
// same budget as the call itself.
func (m *Manager) Call(ctx context.Context, backendID, capability, query string) ([]byte, error) {
	if limiter, ok := m.limiters[backendID]; ok {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	inst, err := m.getOrStart(ctx, backendID)
	if err != nil {
		return nil, fmt.Errorf("get or start instance: %w", err)
	}

	return inst.enhance(ctx, capability, query)
}

func (m *Manager) getOrStart(ctx context.Context, backendID string) (instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if inst, ok := m.instances[backendID]; ok {
		// A stopping instance has already closed its queue; handing it
		// out would fail the call for no reason. Replace it like a
		// stopped one and let the old stop finish in the background.
		if st := inst.getState(); st != StateStopped && st != StateStopping {
			return inst, nil
		}
		// Stopped by idle timeout or crash; replace and restart.
		delete(m.instances, backendID)
	}

	inst, err := m.createInstance(ctx, backendID)
	if err != nil {
		return nil, err
	}

	if err := inst.start(ctx); err != nil {
		return nil, fmt.Errorf("start instance: %w", err)
	}

	m.instances[backendID] = inst
	return inst, nil
}

func (m *Manager) createInstance(ctx context.Context, backendID string) (instance, error) {
	cfg, ok := m.configs[backendID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backendID)
	}

	switch cfg.Transport {
	case "http":
		headers, err := m.authHeaders(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return newHTTPInstance(cfg.ID, cfg.URL, headers), nil
	case "script":
		return newScriptInstance(cfg.ID, cfg.ScriptPath), nil
	default:
		return newStdioInstance(cfg.ID, cfg.Command, cfg.Args, cfg.IdleTimeout()), nil
	}
}

// authHeaders resolves the backend's stored credential into a bearer
// header. Backends without a credential_key get no auth headers.
func (m *Manager) authHeaders(ctx context.Context, cfg config.BackendConfig) (http.Header, error) {
	if cfg.CredentialKey == "" {
		return nil, nil
	}
	if m.creds == nil {
		return nil, fmt.Errorf("backend %s needs credential %q but no credential store is configured",
			cfg.ID, cfg.CredentialKey)
	}
	secret, err := m.creds.Get(ctx, cfg.CredentialKey)
	if err != nil {
		return nil, fmt.Errorf("resolve credential %q: %w", cfg.CredentialKey, err)
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+string(secret))
	return h, nil
}

// WarmUp starts the named backends concurrently. Used by serve and check
// so the first real request does not pay process-spawn latency.
func (m *Manager) WarmUp(ctx context.Context, backendIDs []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range backendIDs {
		g.Go(func() error {
			if _, err := m.getOrStart(gctx, id); err != nil {
				return fmt.Errorf("warm up %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// States reports the current instance state per configured backend.
func (m *Manager) States() map[string]InstanceState {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]InstanceState, len(m.configs))
	for id := range m.configs {
		out[id] = StateStopped
		if inst, ok := m.instances[id]; ok {
			out[id] = inst.getState()
		}
	}
	return out
}

// Shutdown stops all running instances.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	instances := make([]instance, 0, len(m.instances))
	for _, inst := range m.instances {
		instances = append(instances, inst)
	}
	m.instances = make(map[string]instance)
	m.mu.Unlock()

	for _, inst := range instances {
		inst.stop()
	}
	m.logger.Info("backend manager shut down", "instances", len(instances))
}
