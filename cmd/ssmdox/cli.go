package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/cgast/ssmdox/internal/cli"
	"github.com/cgast/ssmdox/internal/config"
	"github.com/cgast/ssmdox/internal/finder"
	"github.com/cgast/ssmdox/internal/state"
	"github.com/cgast/ssmdox/pkg/dox"
)

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"${config_path}"`
	EnvFile string           `name:"env-file" help:"Dotenv file loaded before the config" default:".env"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build documents from their source directories"`
	Check    CheckCmd    `cmd:"" help:"Check built documents against their sources"`
	Diff     DiffCmd     `cmd:"" help:"Show line differences between built documents and sources"`
	Validate ValidateCmd `cmd:"" help:"Validate sources without writing anything"`
	List     ListCmd     `cmd:"" help:"List discovered source directories"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild documents whenever sources change"`
	History  HistoryCmd  `cmd:"" help:"Show recorded build and check outcomes"`
}

// Global is shared by every command.
type Global struct {
	Ctx    context.Context
	Config config.Config
	Logger *slog.Logger
	Stdout io.Writer
	RunID  string

	ledger state.Store
}

// setup loads configuration and builds the logger.
func (c *CLI) setup(ctx context.Context, stdout, stderr io.Writer) (*Global, error) {
	g := &Global{
		Ctx:    ctx,
		Logger: newLogger(stderr, "info", "text", c.Verbose),
		Stdout: stdout,
		RunID:  state.NewRunID(),
	}
	if err := config.LoadEnvFile(c.EnvFile); err != nil {
		return g, &cli.ConfigError{Err: err}
	}
	cfg, err := config.LoadConfig(c.Config)
	if err != nil {
		return g, &cli.ConfigError{Err: err}
	}
	g.Config = cfg
	g.Logger = newLogger(stderr, cfg.LogLevel, cfg.LogFormat, c.Verbose)
	slog.SetDefault(g.Logger)
	g.Logger.Debug("configuration loaded", "path", c.Config, "source", cfg.Source, "output", cfg.Output)
	return g, nil
}

func newLogger(w io.Writer, level, format string, verbose bool) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	if verbose {
		l = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: l}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Close releases the ledger if one was opened.
func (g *Global) Close() {
	if g.ledger != nil {
		if err := g.ledger.Close(); err != nil {
			g.Logger.Warn("closing state", "error", err)
		}
	}
}

// Ledger opens the build ledger on first use. It returns nil when state is
// disabled.
func (g *Global) Ledger() (state.Store, error) {
	if !g.Config.State.Enabled {
		return nil, nil
	}
	if g.ledger == nil {
		l, err := state.Open(g.Config.State.Path)
		if err != nil {
			return nil, &cli.ConfigError{Err: err}
		}
		g.ledger = l
	}
	return g.ledger, nil
}

// record writes rec to the ledger when one is enabled. Ledger failures are
// logged, never fatal.
func (g *Global) record(rec state.Record) {
	ledger, err := g.Ledger()
	if err != nil {
		g.Logger.Warn("state unavailable", "error", err)
		return
	}
	if ledger == nil {
		return
	}
	rec.Run = g.RunID
	if err := ledger.Put(rec); err != nil {
		g.Logger.Warn("recording outcome", "document", rec.Document, "error", err)
	}
}

// SourceArgs are shared by commands that work on a source root.
type SourceArgs struct {
	Source string `arg:"" optional:"" help:"Source root directory (default: config source)"`
}

// OutputFlag selects where built documents live.
type OutputFlag struct {
	Output string `short:"o" help:"Output root directory (default: config output)"`
}

func (o OutputFlag) dir(g *Global) string {
	if o.Output != "" {
		return o.Output
	}
	return g.Config.Output
}

func (s SourceArgs) root(g *Global) string {
	if s.Source != "" {
		return s.Source
	}
	return g.Config.Source
}

// units discovers every source directory under the resolved source root.
func (s SourceArgs) units(g *Global) (string, []*dox.Dox, error) {
	root := s.root(g)
	info, err := os.Stat(root)
	if err != nil {
		return root, nil, fmt.Errorf("source root: %w", err)
	}
	if !info.IsDir() {
		return root, nil, fmt.Errorf("source %s must be a directory", root)
	}
	f, err := finder.New(root, g.Config.Exclude, g.Logger)
	if err != nil {
		return root, nil, &cli.ConfigError{Err: err}
	}
	units, err := f.Find()
	if err != nil {
		return root, nil, err
	}
	if len(units) == 0 {
		g.Logger.Warn("no source directories found", "root", root)
	}
	return root, units, nil
}

// unitName identifies a unit by its directory relative to the source root.
func unitName(u *dox.Dox) string {
	return filepath.ToSlash(filepath.Join(u.RelativePath(), u.Name))
}
