package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change kinds passed to an EventCallback.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// EventCallback is called after a watcher-driven index change with one of
// Created, Updated or Deleted and the absolute document path.
type EventCallback func(kind string, path string)

const reconcileDelay = 200 * time.Millisecond

// Watch runs an fsnotify watcher on the library root until ctx is
// cancelled, re-indexing Markdown files as they change and calling cb (if
// non-nil) after each successful index mutation.
//
// Directories created at runtime are added to the watch list. Rename events
// schedule a reconciliation pass that drops entries whose files are gone.
func (ix *Indexer) Watch(ctx context.Context, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := ix.store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	ix.logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			ix.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			ix.reconcile(cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			ix.handle(w, ev, cb, scheduleReconcile)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ix.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (ix *Indexer) handle(w *fsnotify.Watcher, ev fsnotify.Event, cb EventCallback, scheduleReconcile func()) {
	p := ev.Name

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(p); statErr == nil && info.IsDir() {
			if isHidden(filepath.Base(p)) {
				return
			}
			if addErr := addDirsRecursive(w, p); addErr != nil {
				ix.logger.Warn("watcher: add new dir failed",
					slog.String("path", p),
					slog.String("error", addErr.Error()))
			} else {
				ix.logger.Debug("watcher: watching new dir", slog.String("path", p))
			}
			ix.indexNewDir(p, cb)
			return
		}
	}

	if !ix.store.IsMarkdown(p) || isHidden(filepath.Base(p)) {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		data, readErr := ix.store.Read(p)
		if readErr != nil {
			ix.logger.Warn("watcher: read failed", slog.String("path", p), slog.String("error", readErr.Error()))
			return
		}
		if idxErr := ix.IndexFile(p, data); idxErr != nil {
			ix.logger.Warn("watcher: index failed", slog.String("path", p), slog.String("error", idxErr.Error()))
			return
		}
		kind := Updated
		if ev.Op&fsnotify.Create != 0 {
			kind = Created
		}
		ix.logger.Debug("watcher: indexed", slog.String("path", p), slog.String("op", kind))
		notify(cb, kind, p)

	case ev.Op&fsnotify.Remove != 0:
		if delErr := ix.db.DeleteDocument(p); delErr != nil {
			ix.logger.Warn("watcher: delete failed", slog.String("path", p), slog.String("error", delErr.Error()))
			return
		}
		ix.logger.Debug("watcher: deleted", slog.String("path", p))
		notify(cb, Deleted, p)

	case ev.Op&fsnotify.Rename != 0:
		// Rename arrives for the old path only; the new path shows up as a
		// Create if it stays under a watched directory.
		if delErr := ix.db.DeleteDocument(p); delErr != nil {
			ix.logger.Warn("watcher: rename delete failed", slog.String("path", p), slog.String("error", delErr.Error()))
		} else {
			ix.logger.Debug("watcher: rename old deleted", slog.String("path", p))
			notify(cb, Deleted, p)
		}
		scheduleReconcile()
	}
}

// reconcile drops index entries without a file on disk and indexes files
// that are missing or changed.
func (ix *Indexer) reconcile(cb EventCallback) {
	checksums, err := ix.db.AllChecksums()
	if err != nil {
		ix.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := ix.store.ListDocuments()
	if err != nil {
		ix.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := ix.db.DeleteDocument(p); delErr == nil {
				ix.logger.Debug("reconcile: removed stale", slog.String("path", p))
				notify(cb, Deleted, p)
			}
		}
	}

	for p, cs := range disk {
		old, known := checksums[p]
		if known && old == cs {
			continue
		}
		data, readErr := ix.store.Read(p)
		if readErr != nil {
			continue
		}
		if idxErr := ix.IndexFile(p, data); idxErr == nil {
			ix.logger.Debug("reconcile: indexed", slog.String("path", p))
			kind := Created
			if known {
				kind = Updated
			}
			notify(cb, kind, p)
		}
	}
}

// indexNewDir indexes Markdown files already present in a new directory.
func (ix *Indexer) indexNewDir(dir string, cb EventCallback) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !ix.store.IsMarkdown(p) {
			return nil
		}
		data, readErr := ix.store.Read(p)
		if readErr != nil {
			return nil
		}
		if idxErr := ix.IndexFile(p, data); idxErr == nil {
			ix.logger.Debug("watcher: indexed from new dir", slog.String("path", p))
			notify(cb, Created, p)
		}
		return nil
	})
}

func notify(cb EventCallback, kind, path string) {
	if cb != nil {
		cb(kind, path)
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// addDirsRecursive adds root and its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
