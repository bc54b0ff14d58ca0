package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/crestline/mentor/internal/secrets"
	"github.com/crestline/mentor/internal/store/sqlite"
)

// cmdSecret manages encrypted backend credentials: set, list, delete.
func cmdSecret(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mentor secret <set|list|delete> [key]")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	enc, err := secrets.NewEncryptor(cfg.AgeKeyPath)
	if err != nil {
		return fmt.Errorf("load age key: %w (run `mentor init` first?)", err)
	}
	mgr := secrets.NewManager(db, enc)

	switch args[0] {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: mentor secret set <key>")
		}
		return secretSet(ctx, mgr, args[1])
	case "list":
		keys, err := mgr.Keys(ctx)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: mentor secret delete <key>")
		}
		return mgr.Delete(ctx, args[1])
	default:
		return fmt.Errorf("unknown secret command: %s", args[0])
	}
}

// secretSet reads the secret value from stdin so it never appears in
// shell history or process listings.
func secretSet(ctx context.Context, mgr *secrets.Manager, key string) error {
	fmt.Fprintf(os.Stderr, "value for %s: ", key)
	reader := bufio.NewReader(os.Stdin)
	value, err := reader.ReadString('\n')
	if err != nil && value == "" {
		return fmt.Errorf("read value: %w", err)
	}
	value = strings.TrimRight(value, "\r\n")
	if value == "" {
		return fmt.Errorf("empty value")
	}

	if err := mgr.Put(ctx, key, []byte(value)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "stored %s\n", key)
	return nil
}
