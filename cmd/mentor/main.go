package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mentor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	subcmd := "ask"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "ask":
		return cmdAsk(args)
	case "serve":
		return cmdServe(args)
	case "init":
		return cmdInit()
	case "check":
		return cmdCheck(args)
	case "secret":
		return cmdSecret(args)
	case "stakeholder":
		return cmdStakeholder(args)
	default:
		return fmt.Errorf("unknown command: %s\nUsage: mentor [ask|serve|init|check|secret|stakeholder]", subcmd)
	}
}
