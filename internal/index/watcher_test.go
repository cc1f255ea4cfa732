package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type callbackLog struct {
	mu     sync.Mutex
	events []string
}

func (c *callbackLog) record(kind, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, kind+":"+path)
}

func (c *callbackLog) has(e string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, got := range c.events {
		if got == e {
			return true
		}
	}
	return false
}

func startWatch(t *testing.T, ix *Indexer, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ix.Watch(ctx, cb)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	root, ix := testIndexer(t)
	cb := &callbackLog{}
	startWatch(t, ix, cb.record)

	p := filepath.Join(root, "new.md")
	_ = os.WriteFile(p, []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := ix.DB().GetChecksum(p)
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return cb.has(Created + ":" + p)
	}, "expected created callback")
}

func TestWatcher_MarkdownExtensionAndNonMarkdown(t *testing.T) {
	root, ix := testIndexer(t)
	cb := &callbackLog{}
	startWatch(t, ix, cb.record)

	long := filepath.Join(root, "long.markdown")
	txt := filepath.Join(root, "notes.txt")
	_ = os.WriteFile(txt, []byte("plain"), 0o644)
	_ = os.WriteFile(long, []byte("# Long"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := ix.DB().GetChecksum(long)
		return cs != ""
	}, ".markdown file not indexed")
	if cs, _ := ix.DB().GetChecksum(txt); cs != "" {
		t.Error("non-Markdown file was indexed")
	}
}

func TestWatcher_UpdateReindexes(t *testing.T) {
	root, ix := testIndexer(t)
	p := write(t, root, "doc.md", "# Before\n")
	if err := ix.Sync(); err != nil {
		t.Fatal(err)
	}
	cb := &callbackLog{}
	startWatch(t, ix, cb.record)

	_ = os.WriteFile(p, []byte("# After\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		hs, _ := ix.DB().Headings(p)
		return len(hs) == 1 && hs[0].AnchorID == "after"
	}, "update not re-indexed")
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return cb.has(Updated + ":" + p)
	}, "expected updated callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root, ix := testIndexer(t)
	startWatch(t, ix, nil)

	subDir := filepath.Join(root, "subdir")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(100 * time.Millisecond)

	deep := filepath.Join(subDir, "deep.md")
	_ = os.WriteFile(deep, []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := ix.DB().GetChecksum(deep)
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	root, ix := testIndexer(t)
	p := write(t, root, "del.md", "# Delete Me")
	if err := ix.Sync(); err != nil {
		t.Fatal(err)
	}
	if cs, _ := ix.DB().GetChecksum(p); cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	cb := &callbackLog{}
	startWatch(t, ix, cb.record)
	_ = os.Remove(p)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := ix.DB().GetChecksum(p)
		return cs == ""
	}, "deleted file still in index")
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return cb.has(Deleted + ":" + p)
	}, "expected deleted callback")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	root, ix := testIndexer(t)
	oldPath := write(t, root, "old.md", "# Rename")
	if err := ix.Sync(); err != nil {
		t.Fatal(err)
	}
	startWatch(t, ix, nil)

	newPath := filepath.Join(root, "renamed.md")
	_ = os.Rename(oldPath, newPath)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := ix.DB().GetChecksum(oldPath)
		newCS, _ := ix.DB().GetChecksum(newPath)
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}
