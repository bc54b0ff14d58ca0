package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/crestline/mentor/internal/secrets"
)

// defaultConfigYAML seeds a working four-backend registry. The script
// transport keeps a fresh install functional without real enhancement
// servers installed; swap in stdio/http entries as they become available.
const defaultConfigYAML = `# mentor.yaml — enhancement backend registry.
# Loaded once at startup; edit and restart to apply changes.

cache:
  max_bytes: 67108864 # 64 MiB
  default_ttl_sec: 1800

backends:
  - id: sequential
    transport: stdio
    command: enhance-sequential
    categories: [strategic_analysis, general]
    fallback: context7
    ttl_sec: 600
    sla_target_ms: 200

  - id: context7
    transport: stdio
    command: enhance-context7
    categories: [technical_lookup]
    fallback: sequential
    ttl_sec: 1800
    sla_target_ms: 100

  - id: magic
    transport: stdio
    command: enhance-magic
    categories: [ui_component]
    fallback: context7
    ttl_sec: 900
    sla_target_ms: 200

  - id: playwright
    transport: stdio
    command: enhance-playwright
    categories: [test_automation]
    fallback: sequential
    ttl_sec: 300
    sla_target_ms: 200
    rate_per_sec: 2
    burst: 2
`

func cmdInit() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.ConfigFile), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		fmt.Printf("config already exists: %s\n", cfg.ConfigFile)
	} else {
		if err := os.WriteFile(cfg.ConfigFile, []byte(defaultConfigYAML), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("wrote %s\n", cfg.ConfigFile)
	}

	if _, err := os.Stat(cfg.AgeKeyPath); err == nil {
		fmt.Printf("age key already exists: %s\n", cfg.AgeKeyPath)
	} else {
		if err := secrets.GenerateKeyFile(cfg.AgeKeyPath); err != nil {
			return fmt.Errorf("generate age key: %w", err)
		}
		fmt.Printf("wrote %s\n", cfg.AgeKeyPath)
	}

	return nil
}
