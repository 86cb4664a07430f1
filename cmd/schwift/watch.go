package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchFile runs path once and then again after every change to it. Each run
// gets a fresh evaluator. The directory is watched rather than the file so
// editors that save by rename keep triggering reruns.
func watchFile(ctx context.Context, e *env, path string) int {
	abs, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintln(e.stderr, "[Error]", err)
		return exitUsage
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintln(e.stderr, "[Error]", err)
		return exitRuntime
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		fmt.Fprintln(e.stderr, "[Error]", err)
		return exitRuntime
	}

	rerun := func() {
		code := runFile(e, path)
		e.log.Info("program finished", "file", path, "exit", code)
	}
	rerun()

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	for {
		select {
		case <-ctx.Done():
			return exitOK
		case ev, ok := <-w.Events:
			if !ok {
				return exitOK
			}
			if !isChange(ev, abs) {
				continue
			}
			e.log.Debug("file event", "op", ev.Op.String(), "file", ev.Name)
			debounce.Reset(e.cfg.Watch.Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return exitOK
			}
			e.log.Error("watch error", "err", err)
		case <-debounce.C:
			rerun()
		}
	}
}

// isChange reports whether ev rewrote the file at abs.
func isChange(ev fsnotify.Event, abs string) bool {
	if filepath.Clean(ev.Name) != abs {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
