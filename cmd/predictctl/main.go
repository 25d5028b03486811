// Command predictctl is a terminal front-end for the PaisaPredict
// prediction-market service. It loads configuration, sets up logging and
// signal handling, and dispatches the requested subcommand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/paisapredict/predictctl/internal/app"
	"github.com/paisapredict/predictctl/internal/config"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	flag.Usage = usage
	flag.Parse()

	// Structured logs go to stderr so command output stays clean on stdout.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, logger)
	if err := application.Run(ctx, flag.Args()); err != nil {
		if err == context.Canceled {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `predictctl - terminal client for PaisaPredict

usage: predictctl [-config config.toml] <command> [args]

commands:
  login <email>                     sign in and store the session token
  signup <email>                    register a new account
  logout                            clear the stored session token
  whoami                            show the current profile
  markets [-open] [-category C] [-search q]
                                    list markets
  market <id>                       market detail with its bets
  bet <id> <YES|NO> <stake-paise>   place a wager
  profile                           balance, bets, transactions, winnings
  leaderboard                       top winners
  watch <id>                        stream live odds updates
  admin create|lock|resolve         market administration

flags:
`)
	flag.PrintDefaults()
}
