package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/crestline/mentor/internal/coach"
)

func cmdAsk(args []string) error {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	personaID := fs.String("persona", "", "persona to answer as (mentor, strategist, architect, director)")
	sessionID := fs.String("session", "", "existing session to append to; empty starts a new one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("usage: mentor ask [--persona=ID] [--session=ID] <question>")
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	sid := *sessionID
	if sid == "" {
		session, err := rt.engine.StartSession(ctx, *personaID)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		sid = session.ID
	}

	reply, err := rt.engine.Ask(ctx, coach.Request{
		SessionID: sid,
		Query:     query,
		Persona:   *personaID,
	})
	if err != nil {
		return err
	}

	fmt.Println(reply.Content)
	fmt.Fprintf(os.Stderr, "\nsession: %s\n", sid)
	return nil
}
