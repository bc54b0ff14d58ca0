// Package config loads and validates the mentor.yaml backend registry.
// The file is read once at startup; the resulting Config is treated as
// read-only for the life of the process.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File represents the top-level mentor.yaml structure.
type File struct {
	Cache    CacheConfig     `yaml:"cache"`
	Backends []BackendConfig `yaml:"backends"`
}

// CacheConfig bounds the shared response cache.
type CacheConfig struct {
	MaxBytes      int64 `yaml:"max_bytes"`
	DefaultTTLSec int   `yaml:"default_ttl_sec"`
}

// BackendConfig describes one enhancement backend: how to reach it, which
// query categories it serves, where to fall back on failure, and its
// cache/SLA parameters.
type BackendConfig struct {
	ID            string   `yaml:"id"`
	Transport     string   `yaml:"transport"` // "stdio", "http" or "script"
	Command       string   `yaml:"command,omitempty"`
	Args          []string `yaml:"args,omitempty"`
	URL           string   `yaml:"url,omitempty"`
	ScriptPath    string   `yaml:"script_path,omitempty"`
	Capability    string   `yaml:"capability,omitempty"`
	Categories    []string `yaml:"categories"`
	Fallback      string   `yaml:"fallback,omitempty"`
	TTLSec        int      `yaml:"ttl_sec"`
	SLATargetMs   int      `yaml:"sla_target_ms"`
	RatePerSec    float64  `yaml:"rate_per_sec,omitempty"`
	Burst         int      `yaml:"burst,omitempty"`
	IdleSec       int      `yaml:"idle_timeout_sec,omitempty"`
	CredentialKey string   `yaml:"credential_key,omitempty"`
}

// LoadFile reads, parses, and validates a YAML config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML config data.
func Parse(data []byte) (*File, error) {
	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *File) {
	if cfg.Cache.MaxBytes <= 0 {
		cfg.Cache.MaxBytes = 64 << 20
	}
	if cfg.Cache.DefaultTTLSec <= 0 {
		cfg.Cache.DefaultTTLSec = 1800
	}
	for i := range cfg.Backends {
		b := &cfg.Backends[i]
		if b.Transport == "" {
			b.Transport = "stdio"
		}
		if b.TTLSec <= 0 {
			b.TTLSec = cfg.Cache.DefaultTTLSec
		}
		if b.IdleSec <= 0 {
			b.IdleSec = 300
		}
		if b.RatePerSec > 0 && b.Burst <= 0 {
			b.Burst = 1
		}
	}
}

// TTL returns the backend's cache time-to-live.
func (b BackendConfig) TTL() time.Duration {
	return time.Duration(b.TTLSec) * time.Second
}

// SLATarget returns the backend's average-latency target.
func (b BackendConfig) SLATarget() time.Duration {
	return time.Duration(b.SLATargetMs) * time.Millisecond
}

// IdleTimeout returns how long an idle backend process lingers before
// being stopped.
func (b BackendConfig) IdleTimeout() time.Duration {
	return time.Duration(b.IdleSec) * time.Second
}

// TTLs collects the per-backend TTL map consumed by the response cache.
func (f *File) TTLs() map[string]time.Duration {
	out := make(map[string]time.Duration, len(f.Backends))
	for _, b := range f.Backends {
		out[b.ID] = b.TTL()
	}
	return out
}

// SLATargets collects the per-backend latency targets, skipping backends
// without one configured.
func (f *File) SLATargets() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, b := range f.Backends {
		if b.SLATargetMs > 0 {
			out[b.ID] = b.SLATarget()
		}
	}
	return out
}

// Backend returns a backend config by ID.
func (f *File) Backend(id string) (BackendConfig, bool) {
	for _, b := range f.Backends {
		if b.ID == id {
			return b, true
		}
	}
	return BackendConfig{}, false
}

// DefaultTTL returns the cache-wide default TTL.
func (f *File) DefaultTTL() time.Duration {
	return time.Duration(f.Cache.DefaultTTLSec) * time.Second
}
