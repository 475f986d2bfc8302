// Command larderctl is the developer CLI for the larder agent. Most commands
// talk to a running agent over its HTTP API; the db-* commands connect to
// Postgres directly.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/larderhq/larder-go/config"
	"github.com/larderhq/larder-go/internal/bootstrap"
)

type commandFn func(cmdCtx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"context": {
			name:        "context",
			description: "Show the agent's current session context",
			run:         runContext,
		},
		"signin": {
			name:        "signin",
			description: "Sign in through the agent",
			run:         runSignIn,
		},
		"signout": {
			name:        "signout",
			description: "Sign out the current session",
			run:         runSignOut,
		},
		"refresh": {
			name:        "refresh",
			description: "Re-hydrate profile and household metadata",
			run:         runRefresh,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the signed-in profile",
			run:         runWhoami,
		},
		"profile-set": {
			name:        "profile-set",
			description: "Update the signed-in profile's display name or avatar",
			run:         runProfileSet,
		},
		"shopping": {
			name:        "shopping",
			description: "List the household's shopping items",
			run:         runShoppingList,
		},
		"shopping-add": {
			name:        "shopping-add",
			description: "Add an item to the household's shopping list",
			run:         runShoppingAdd,
		},
		"shopping-toggle": {
			name:        "shopping-toggle",
			description: "Toggle an item's checked state",
			run:         runShoppingToggle,
		},
		"shopping-remove": {
			name:        "shopping-remove",
			description: "Remove an item from the shopping list",
			run:         runShoppingRemove,
		},
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrate,
		},
		"db-seed": {
			name:        "db-seed",
			description: "Run migrations and seed development data",
			run:         runDBSeed,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: larderctl <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}

	all := commands()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := writef(os.Stdout, "  %-18s %s\n", name, all[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, line string) error {
	_, err := fmt.Fprintln(w, line)
	return err
}
