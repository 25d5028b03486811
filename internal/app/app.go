// Package app provides the top-level application lifecycle for predictctl.
// It wires the token store, session manager, API client, and workflow
// services together and dispatches CLI subcommands.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paisapredict/predictctl/internal/config"
)

// App is the root application object.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies and dispatches the subcommand in args. The first
// element of args is the command name; the rest are its arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("app: no command given (try: markets, market, bet, login, signup, logout, whoami, profile, leaderboard, watch, admin)")
	}

	deps, err := Wire(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, deps, rest)
	case "signup":
		return a.cmdSignup(ctx, deps, rest)
	case "logout":
		return a.cmdLogout(ctx, deps)
	case "whoami":
		return a.cmdWhoami(ctx, deps)
	case "markets":
		return a.cmdMarkets(ctx, deps, rest)
	case "market":
		return a.cmdMarket(ctx, deps, rest)
	case "bet":
		return a.cmdBet(ctx, deps, rest)
	case "profile":
		return a.cmdProfile(ctx, deps)
	case "leaderboard":
		return a.cmdLeaderboard(ctx, deps)
	case "watch":
		return a.cmdWatch(ctx, deps, rest)
	case "admin":
		return a.cmdAdmin(ctx, deps, rest)
	default:
		return fmt.Errorf("app: unknown command %q", cmd)
	}
}
