package main

import (
	"context"
	"time"

	"github.com/cgast/ssmdox/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SourceArgs
	OutputFlag
	Debounce time.Duration `help:"Quiet period before rebuilding (default: config watch.debounce)"`
}

func (w *WatchCmd) Run(g *Global) error {
	root, _, err := w.units(g)
	if err != nil {
		return err
	}
	out := w.OutputFlag.dir(g)
	debounce := g.Config.Watch.Debounce
	if w.Debounce > 0 {
		debounce = w.Debounce
	}

	// Every pass rediscovers units so edited templates are reloaded.
	rebuild := func(context.Context) error {
		_, units, err := w.units(g)
		if err != nil {
			return err
		}
		built, err := buildAll(g, units, out)
		g.Logger.Info("rebuild finished", "built", built, "total", len(units))
		return err
	}
	if err := rebuild(g.Ctx); err != nil {
		g.Logger.Error("initial build failed", "error", err)
	}

	watcher, err := watch.New(root, debounce, rebuild, g.Logger, out)
	if err != nil {
		return err
	}
	return watcher.Run(g.Ctx)
}
