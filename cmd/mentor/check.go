package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/crestline/mentor/internal/config"
	"github.com/crestline/mentor/internal/enhance"
)

// cmdCheck validates the config and, given a query, shows how it would
// be routed without contacting any backend.
func cmdCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file, err := config.LoadFile(cfg.ConfigFile)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.ConfigFile, err)
	}

	selectorCfgs, err := file.SelectorConfigs()
	if err != nil {
		return err
	}
	selector, err := enhance.NewSelector(selectorCfgs)
	if err != nil {
		return err
	}

	fmt.Printf("config ok: %s (%d backends)\n", cfg.ConfigFile, len(file.Backends))

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		for _, cat := range enhance.Categories() {
			printRoute(selector, file, cat)
		}
		return nil
	}

	cat := enhance.Classify(query)
	fmt.Printf("\nquery:    %q\ncategory: %s\n", query, cat)
	printRoute(selector, file, cat)
	return nil
}

func printRoute(selector *enhance.Selector, file *config.File, cat enhance.Category) {
	primary, err := selector.Primary(cat)
	if err != nil {
		fmt.Printf("%-18s -> no backend\n", cat)
		return
	}

	line := fmt.Sprintf("%-18s -> %s", cat, primary)
	if fb, err := selector.Fallback(primary); err == nil {
		line += " (fallback " + fb + ")"
	}
	if b, ok := file.Backend(primary); ok {
		line += fmt.Sprintf(", ttl %s, sla %s", b.TTL(), b.SLATarget())
	}
	fmt.Println(line)
}
