package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/crestline/mentor/internal/store"
	"github.com/crestline/mentor/internal/store/sqlite"
)

// cmdStakeholder manages the stakeholder registry: add, list, delete.
func cmdStakeholder(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mentor stakeholder <add|list|delete> ...")
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

	switch args[0] {
	case "add":
		return stakeholderAdd(ctx, db, args[1:])
	case "list":
		return stakeholderList(ctx, db)
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: mentor stakeholder delete <id>")
		}
		return db.DeleteStakeholder(ctx, args[1])
	default:
		return fmt.Errorf("unknown stakeholder command: %s", args[0])
	}
}

func stakeholderAdd(ctx context.Context, db *sqlite.DB, args []string) error {
	fs := flag.NewFlagSet("stakeholder add", flag.ContinueOnError)
	role := fs.String("role", "", "stakeholder's role, e.g. \"VP Engineering\"")
	influence := fs.String("influence", "medium", "low, medium or high")
	interest := fs.String("interest", "medium", "low, medium or high")
	notes := fs.String("notes", "", "free-form notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: mentor stakeholder add [flags] <name>")
	}

	if !validLevel(*influence) || !validLevel(*interest) {
		return fmt.Errorf("influence and interest must be low, medium or high")
	}

	now := time.Now().UTC()
	s := &store.Stakeholder{
		ID:        uuid.NewString(),
		Name:      fs.Arg(0),
		Role:      *role,
		Influence: *influence,
		Interest:  *interest,
		Notes:     *notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.UpsertStakeholder(ctx, s); err != nil {
		return err
	}
	fmt.Println(s.ID)
	return nil
}

func stakeholderList(ctx context.Context, db *sqlite.DB) error {
	list, err := db.ListStakeholders(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tINFLUENCE\tINTEREST")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Role, s.Influence, s.Interest)
	}
	return w.Flush()
}

func validLevel(s string) bool {
	return s == "low" || s == "medium" || s == "high"
}
