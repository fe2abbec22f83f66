// Package inbox converts archives dropped into a watched directory.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/enexmd/internal/converter"
	"github.com/starford/enexmd/internal/storage"
)

// Sub-directories archives are moved into once handled.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Converter converts one archive file to disk.
type Converter interface {
	ConvertFile(ctx context.Context, inputPath string) (converter.Stats, error)
}

// Publisher receives the outcome of every handled archive.
type Publisher interface {
	PublishArchive(input string, result any, err error)
}

// Watcher converts .enex files created or rewritten in its directory.
type Watcher struct {
	dir      string
	store    storage.Provider
	debounce time.Duration
	conv     Converter
	pub      Publisher
	logger   *slog.Logger
}

// New creates a watcher for the directory store is rooted at. Handled
// archives are moved through store. pub may be nil.
func New(store storage.Provider, debounce time.Duration, conv Converter, pub Publisher, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{dir: store.Root(), store: store, debounce: debounce, conv: conv, pub: pub, logger: logger}
}

// Run watches the inbox until ctx is cancelled. Archives already present
// when it starts are converted first. Events for one path are debounced so
// a file still being copied is converted once, after writes settle.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", w.dir, err)
	}
	w.logger.Info("inbox: started", slog.String("dir", w.dir))

	w.scanExisting(ctx)

	ready := make(chan string, 16)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	schedule := func(p string) {
		if t, ok := pending[p]; ok {
			t.Reset(w.debounce)
			return
		}
		pending[p] = time.AfterFunc(w.debounce, func() {
			select {
			case ready <- p:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("inbox: stopped")
			return nil

		case p := <-ready:
			delete(pending, p)
			w.handle(ctx, p)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isArchive(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule(ev.Name)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("inbox: scan failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if !e.IsDir() && isArchive(e.Name()) {
			w.handle(ctx, filepath.Join(w.dir, e.Name()))
		}
	}
}

// handle converts one archive and moves it out of the inbox.
func (w *Watcher) handle(ctx context.Context, p string) {
	if ok, err := w.store.Exists(filepath.Base(p)); err != nil || !ok {
		return
	}

	stats, err := w.conv.ConvertFile(ctx, p)
	target := ProcessedDir
	if err != nil {
		target = FailedDir
		w.logger.Error("inbox: conversion failed", slog.String("input", p), slog.String("error", err.Error()))
	} else {
		w.logger.Info("inbox: converted",
			slog.String("input", p),
			slog.Int("notes", stats.Notes),
			slog.String("output_dir", stats.OutputDir))
	}

	if moveErr := w.move(p, target); moveErr != nil {
		w.logger.Warn("inbox: move failed", slog.String("input", p), slog.String("error", moveErr.Error()))
	}
	if w.pub != nil {
		w.pub.PublishArchive(filepath.Base(p), stats, err)
	}
}

// move files p under <dir>/<sub>/, suffixing the name when it is taken.
func (w *Watcher) move(p, sub string) error {
	name := filepath.Base(p)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	dest := path.Join(sub, name)
	for n := 1; ; n++ {
		taken, err := w.store.Exists(dest)
		if err != nil {
			return err
		}
		if !taken {
			break
		}
		dest = path.Join(sub, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
	return w.store.Move(name, dest)
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".enex")
}
