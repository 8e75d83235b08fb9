package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-cad/internal/logger"
	"github.com/Faultbox/midgard-cad/internal/scene"
)

func cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	settle := fs.Duration("settle", 200*time.Millisecond, "Wait this long after the last write before re-laying out")
	e, name, err := parse(fs, args)
	if err != nil {
		return err
	}
	defer e.Close()
	log := logger.Named("watch")

	path, err := e.assets.Resolve(name)
	if err != nil {
		return err
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	reload := make(chan struct{}, 1)
	debounced := debounce.New(*settle)
	trigger := func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	}

	relayout := func() {
		e.assets.Invalidate(path)
		as, err := e.open(path)
		if err != nil {
			log.Warn("reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		if err := layoutOnce(ctx, as); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("layout failed", zap.String("path", path), zap.Error(err))
		}
	}

	fmt.Fprintf(stdout, "Watching %s (Ctrl+C to stop)\n", path)
	relayout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			log.Debug("file changed", zap.String("op", ev.Op.String()))
			debounced(trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-reload:
			relayout()
		}
	}
}

func layoutOnce(ctx context.Context, as *scene.Asset) error {
	res, err := as.Relayout(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\n[%s] %s\n", time.Now().Format(time.TimeOnly), as.Name)
	printLayout(stdout, res)
	return nil
}
