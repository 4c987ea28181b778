package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/mouse-blink/weave/internal/model"
)

const watchTimeout = 5 * time.Second

// startWatch runs w.Watch in the background and returns the change batches
// plus a stop function that waits for Watch to return.
func startWatch(t *testing.T, w *FSWatcher, roots ...m.Path) (<-chan []m.Path, func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []m.Path, 16)
	done := make(chan error, 1)

	go func() {
		done <- w.Watch(ctx, roots, func(changed []m.Path) {
			batches <- changed
		})
	}()

	// Give fsnotify time to register the directories.
	time.Sleep(200 * time.Millisecond)

	stop := func() {
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(watchTimeout):
			t.Fatalf("Watch did not return after cancel")
		}
	}

	return batches, stop
}

func nextBatch(t *testing.T, batches <-chan []m.Path) []m.Path {
	t.Helper()

	select {
	case b := <-batches:
		return b
	case <-time.After(watchTimeout):
		t.Fatalf("no change reported")
	}

	return nil
}

func TestFSWatcher_ReportsDebouncedChanges(t *testing.T) {
	root := t.TempDir()
	w := NewFSWatcher(50*time.Millisecond, nil)

	batches, stop := startWatch(t, w, m.Path(root))
	defer stop()

	writeTestFile(t, filepath.Join(root, "a.php"), "<?php\n")
	writeTestFile(t, filepath.Join(root, "b.php"), "<?php\n")

	seen := map[m.Path]bool{}
	for !seen[m.Path(filepath.Join(root, "a.php"))] || !seen[m.Path(filepath.Join(root, "b.php"))] {
		for _, p := range nextBatch(t, batches) {
			seen[p] = true
		}
	}
}

func TestFSWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	w := NewFSWatcher(50*time.Millisecond, nil)

	batches, stop := startWatch(t, w, m.Path(root))
	defer stop()

	nested := filepath.Join(root, "nested")
	mustMkdir(t, nested)
	nextBatch(t, batches)

	target := m.Path(filepath.Join(nested, "view.php"))
	writeTestFile(t, string(target), "<?php\n")

	for {
		if containsPath(pathsToStrings(nextBatch(t, batches)), string(target)) {
			return
		}
	}
}

func TestFSWatcher_IgnoresExcludedPaths(t *testing.T) {
	root := t.TempDir()
	cache := filepath.Join(root, "cache")
	mustMkdir(t, cache)

	w := NewFSWatcher(50*time.Millisecond, nil, m.Path(cache))

	batches, stop := startWatch(t, w, m.Path(root))
	defer stop()

	writeTestFile(t, filepath.Join(cache, "out.php"), "<?php\n")
	writeTestFile(t, filepath.Join(root, "src.php"), "<?php\n")

	for _, p := range nextBatch(t, batches) {
		assert.NotContains(t, string(p), "cache")
	}
}

func TestFSWatcher_MissingRoot(t *testing.T) {
	w := NewFSWatcher(0, nil)

	err := w.Watch(context.Background(), []m.Path{m.Path(filepath.Join(t.TempDir(), "missing"))}, func([]m.Path) {})
	require.Error(t, err)
}

func TestFSWatcher_Defaults(t *testing.T) {
	w := NewFSWatcher(0, nil, "", "/tmp/cache/")

	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.NotNil(t, w.log)
	assert.Equal(t, []string{filepath.Clean("/tmp/cache/")}, w.exclude)
	assert.True(t, w.excluded("/tmp/cache/x.php"))
	assert.False(t, w.excluded("/tmp/cachex/x.php"))
}

func pathsToStrings(paths []m.Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = string(p)
	}

	return out
}

func TestFSWatcher_SkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".git")
	mustMkdir(t, hidden)

	w := NewFSWatcher(50*time.Millisecond, nil)

	batches, stop := startWatch(t, w, m.Path(root))
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(hidden, "HEAD"), []byte("ref"), 0o600))
	writeTestFile(t, filepath.Join(root, "a.php"), "<?php\n")

	for _, p := range nextBatch(t, batches) {
		assert.NotContains(t, string(p), ".git")
	}
}
