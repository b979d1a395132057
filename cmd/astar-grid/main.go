// Command astar-grid visualises a stepwise A* search on random obstacle
// fields.
//
// Modes:
//  1. "tui" (default) runs the terminal viewer; click a start and a goal.
//  2. "web" serves the HTTP API, websocket stream and browser viewer.
//  3. "mcp" runs an MCP stdio server exposing the find_path tool.
//  4. "solve" reads an ASCII grid from a file or stdin and prints the path.
//
// Settings come from defaults, then an optional TOML file, then ASTAR_*
// environment variables (a .env file is loaded first) and flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/pdrpinto/astar-grid/config"
	"github.com/pdrpinto/astar-grid/internal/mcptool"
	"github.com/pdrpinto/astar-grid/internal/tui"
	"github.com/pdrpinto/astar-grid/internal/web"
)

const (
	appName = "astar-grid"
	version = "0.3.0"

	defaultConfigFile = "astar-grid.toml"
	defaultAddr       = "localhost:8080"
)

const (
	flagConfig  = "config"
	flagLogFile = "log-file"
	flagAddr    = "addr"
)

// overrides maps flags onto config keys. Values stay strings here; the
// config package coerces them with fallbacks.
var overrides = map[string]string{
	"columns":   config.KeyColumns,
	"rows":      config.KeyRows,
	"density":   config.KeyDensity,
	"diagonal":  config.KeyDiagonal,
	"steps":     config.KeyStepsPerTick,
	"seed":      config.KeySeed,
	"tick":      config.KeyTick,
	"log-level": config.KeyLogLevel,
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "%s: warning: loading .env: %v\n", appName, err)
	}

	if err := newCommand(os.Stdin, os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func newCommand(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      appName,
		Usage:     "step through A* searches on obstacle grids",
		Version:   version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags(),
		Action:    runTUI,
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "run the terminal viewer",
				Action: runTUI,
			},
			{
				Name:  "web",
				Usage: "serve the HTTP API and browser viewer",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagAddr,
						Usage:   "listen address",
						Value:   defaultAddr,
						Sources: cli.EnvVars("ASTAR_ADDR"),
					},
				},
				Action: runWeb,
			},
			{
				Name:   "mcp",
				Usage:  "serve the find_path tool over MCP stdio",
				Action: runMCP,
			},
			{
				Name:      "solve",
				Usage:     "solve an ASCII grid ('#' blocked, '.' open, 'S' start, 'G' goal)",
				ArgsUsage: "[FILE]",
				Action:    runSolve,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: flagConfig, Usage: "TOML config file (default " + defaultConfigFile + " if present)", Sources: cli.EnvVars("ASTAR_CONFIG")},
		&cli.StringFlag{Name: flagLogFile, Usage: "append logs to this file", Sources: cli.EnvVars("ASTAR_LOG_FILE")},
		&cli.StringFlag{Name: "columns", Usage: "grid columns", Sources: cli.EnvVars("ASTAR_COLUMNS")},
		&cli.StringFlag{Name: "rows", Usage: "grid rows", Sources: cli.EnvVars("ASTAR_ROWS")},
		&cli.StringFlag{Name: "density", Usage: "probability that a cell is walkable", Sources: cli.EnvVars("ASTAR_DENSITY")},
		&cli.StringFlag{Name: "diagonal", Usage: "allow diagonal moves", Sources: cli.EnvVars("ASTAR_DIAGONAL")},
		&cli.StringFlag{Name: "steps", Usage: "engine steps per frame", Sources: cli.EnvVars("ASTAR_STEPS_PER_TICK")},
		&cli.StringFlag{Name: "seed", Usage: "obstacle seed, 0 for the clock", Sources: cli.EnvVars("ASTAR_SEED")},
		&cli.StringFlag{Name: "tick", Usage: "frame interval", Sources: cli.EnvVars("ASTAR_TICK")},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Sources: cli.EnvVars("ASTAR_LOG_LEVEL")},
	}
}

// loadConfig layers defaults, the TOML file and flag or environment values.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	path := cmd.String(flagConfig)
	optional := path == ""
	if optional {
		path = defaultConfigFile
	}
	cfg, err := config.LoadFile(config.Default(), path, optional)
	if err != nil {
		return cfg, err
	}

	values := make(map[string]any)
	for name, key := range overrides {
		if cmd.IsSet(name) {
			values[key] = cmd.String(name)
		}
	}
	return config.FromValues(cfg, values), nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
	for _, warning := range cfg.Warnings {
		logger.Warn("config fallback", slog.String("detail", warning))
	}
	return logger
}

// setup loads the config and builds a logger writing to the log file, or to
// fallback when none is set.
func setup(cmd *cli.Command, fallback io.Writer) (config.Config, *slog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, err
	}

	out, closeLog := fallback, func() {}
	if path := cmd.String(flagLogFile); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return cfg, nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closeLog = f, func() { f.Close() }
	}
	return cfg, newLogger(cfg, out), closeLog, nil
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	// tcell owns the terminal, so logs only go to a file.
	cfg, logger, closeLog, err := setup(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	logger.Info("tui started", slog.Int("columns", cfg.Columns), slog.Int("rows", cfg.Rows))
	return tui.New(screen, cfg, logger).Run(ctx)
}

func runWeb(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, closeLog, err := setup(cmd, cmd.Root().ErrWriter)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := web.NewHub(logger)
	go hub.Run(ctx)

	httpServer := &http.Server{
		Addr:         cmd.String(flagAddr),
		Handler:      web.NewServer(cfg, hub, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the protocol.
	cfg, logger, closeLog, err := setup(cmd, cmd.Root().ErrWriter)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("mcp stdio server starting", slog.Bool("diagonal", cfg.Diagonal))
	return mcptool.NewServer(version, cfg.Diagonal, logger).ServeStdio()
}

func runSolve(ctx context.Context, cmd *cli.Command) error {
	cfg, _, closeLog, err := setup(cmd, cmd.Root().ErrWriter)
	if err != nil {
		return err
	}
	defer closeLog()

	var data []byte
	if path := cmd.Args().First(); path != "" && path != "-" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(cmd.Root().Reader)
	}
	if err != nil {
		return fmt.Errorf("read grid: %w", err)
	}

	report, err := mcptool.Solve(ctx, string(data), cfg.Diagonal)
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.Root().Writer, report)
	return err
}
