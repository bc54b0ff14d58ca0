package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const validYAML = `
cache:
  max_bytes: 1048576
  default_ttl_sec: 600

backends:
  - id: sequential
    transport: stdio
    command: enhance-sequential
    categories: [strategic_analysis, general]
    fallback: context7
    ttl_sec: 300
    sla_target_ms: 200

  - id: context7
    transport: http
    url: https://context7.internal/rpc
    credential_key: context7_token
    categories: [technical_lookup]
    fallback: sequential
    sla_target_ms: 100

  - id: magic
    transport: script
    script_path: /opt/mentor/magic.js
    categories: [ui_component]
    fallback: context7

  - id: playwright
    transport: stdio
    command: enhance-playwright
    args: [--headless]
    categories: [test_automation]
    fallback: sequential
    ttl_sec: 120
    rate_per_sec: 2
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Cache.MaxBytes != 1<<20 {
		t.Errorf("MaxBytes = %d; want 1 MiB", cfg.Cache.MaxBytes)
	}
	if len(cfg.Backends) != 4 {
		t.Fatalf("backends = %d; want 4", len(cfg.Backends))
	}

	seq, ok := cfg.Backend("sequential")
	if !ok {
		t.Fatal("Backend(sequential) not found")
	}
	if seq.TTL() != 5*time.Minute {
		t.Errorf("sequential TTL = %v; want 5m", seq.TTL())
	}
	if seq.SLATarget() != 200*time.Millisecond {
		t.Errorf("sequential SLA target = %v; want 200ms", seq.SLATarget())
	}

	c7, _ := cfg.Backend("context7")
	if c7.Transport != "http" || c7.CredentialKey != "context7_token" {
		t.Errorf("context7 = %+v; want http transport with credential key", c7)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
backends:
  - id: solo
    command: enhance-solo
    categories: [general, strategic_analysis, technical_lookup, ui_component, test_automation]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Cache.MaxBytes != 64<<20 {
		t.Errorf("MaxBytes = %d; want 64 MiB default", cfg.Cache.MaxBytes)
	}
	if cfg.DefaultTTL() != 30*time.Minute {
		t.Errorf("DefaultTTL = %v; want 30m", cfg.DefaultTTL())
	}

	b := cfg.Backends[0]
	if b.Transport != "stdio" {
		t.Errorf("Transport = %q; want stdio default", b.Transport)
	}
	if b.TTL() != 30*time.Minute {
		t.Errorf("TTL = %v; want cache default", b.TTL())
	}
	if b.IdleTimeout() != 5*time.Minute {
		t.Errorf("IdleTimeout = %v; want 5m default", b.IdleTimeout())
	}
}

func TestParse_RateLimitBurstDefault(t *testing.T) {
	cfg, err := Parse([]byte(`
backends:
  - id: solo
    command: x
    categories: [general]
    rate_per_sec: 1.5
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Backends[0].Burst != 1 {
		t.Errorf("Burst = %d; want 1 when rate set without burst", cfg.Backends[0].Burst)
	}
}

func TestParse_AggregatesValidationErrors(t *testing.T) {
	// One pass reports all problems: missing command, bad transport,
	// unknown category, duplicate id, dangling fallback.
	_, err := Parse([]byte(`
backends:
  - id: a
    transport: stdio
    categories: [general]
  - id: b
    transport: carrier-pigeon
    categories: [nonsense]
  - id: a
    command: x
    categories: [ui_component]
  - id: c
    command: x
    categories: [test_automation]
    fallback: ghost
`))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T; want *ValidationError", err)
	}
	for _, sub := range []string{
		"stdio transport requires command",
		`invalid transport "carrier-pigeon"`,
		`unknown category "nonsense"`,
		`duplicate id "a"`,
		`fallback "ghost" is not a configured backend`,
	} {
		if !strings.Contains(err.Error(), sub) {
			t.Errorf("error %q does not mention %q", err, sub)
		}
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("backends: [\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTTLsAndSLATargets(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	ttls := cfg.TTLs()
	if ttls["playwright"] != 2*time.Minute {
		t.Errorf("playwright TTL = %v; want 2m", ttls["playwright"])
	}
	if ttls["context7"] != 10*time.Minute {
		t.Errorf("context7 TTL = %v; want cache default 10m", ttls["context7"])
	}

	targets := cfg.SLATargets()
	if len(targets) != 2 {
		t.Fatalf("SLA targets = %v; want entries for sequential and context7 only", targets)
	}
	if targets["context7"] != 100*time.Millisecond {
		t.Errorf("context7 target = %v; want 100ms", targets["context7"])
	}
}

func TestSelectorConfigs(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	scs, err := cfg.SelectorConfigs()
	if err != nil {
		t.Fatalf("SelectorConfigs: %v", err)
	}
	if len(scs) != 4 {
		t.Fatalf("got %d selector configs; want 4", len(scs))
	}
	if scs[0].Backend != "sequential" || len(scs[0].Categories) != 2 {
		t.Errorf("scs[0] = %+v; want sequential with 2 categories", scs[0])
	}
	if scs[2].Fallback != "context7" {
		t.Errorf("scs[2].Fallback = %q; want context7", scs[2].Fallback)
	}
}
