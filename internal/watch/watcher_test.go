package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/event"
)

const testDebounce = 20 * time.Millisecond

func newTestWatcher(t *testing.T, paths []string, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(paths, append([]Option{WithDebounce(testDebounce)}, opts...)...)
	require.NoError(t, err)
	w.Start()
	t.Cleanup(func() { w.Stop() })
	return w
}

func waitChange(t *testing.T, w *Watcher) []string {
	t.Helper()
	select {
	case paths := <-w.Changes():
		return paths
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return nil
	}
}

func assertQuiet(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case paths := <-w.Changes():
		t.Fatalf("unexpected change: %v", paths)
	case <-time.After(10 * testDebounce):
	}
}

func TestWatcher_ReportsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mloq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("globals: {}\n"), 0644))

	w := newTestWatcher(t, []string{path})
	assert.Equal(t, []string{path}, w.Paths())

	require.NoError(t, os.WriteFile(path, []byte("globals:\n  owner: acme\n"), 0644))
	assert.Equal(t, []string{path}, waitChange(t, w))
}

func TestWatcher_ReportsCreateAndRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mloq.yaml")

	w := newTestWatcher(t, []string{path})

	require.NoError(t, os.WriteFile(path, []byte("globals: {}\n"), 0644))
	assert.Equal(t, []string{path}, waitChange(t, w))

	require.NoError(t, os.Remove(path))
	assert.Equal(t, []string{path}, waitChange(t, w))
}

func TestWatcher_IgnoresUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mloq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("globals: {}\n"), 0644))

	w := newTestWatcher(t, []string{path})

	// same bytes
	require.NoError(t, os.WriteFile(path, []byte("globals: {}\n"), 0644))
	assertQuiet(t, w)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mloq.yaml")

	w := newTestWatcher(t, []string{path})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# rocket\n"), 0644))
	assertQuiet(t, w)
}

func TestWatcher_Refresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mloq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0644))

	w := newTestWatcher(t, []string{path})

	// a write followed by a refresh before the watcher settles is our own
	require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0644))
	w.Refresh()
	assertQuiet(t, w)

	require.NoError(t, os.WriteFile(path, []byte("a: 3\n"), 0644))
	assert.Equal(t, []string{path}, waitChange(t, w))
}

func TestWatcher_Debounce(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.yaml")
	second := filepath.Join(dir, "second.yaml")

	w, err := New([]string{first, second}, WithDebounce(200*time.Millisecond))
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(first, []byte("a: 1\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("b: 1\n"), 0644))
	require.NoError(t, os.WriteFile(first, []byte("a: 2\n"), 0644))

	assert.Equal(t, []string{first, second}, waitChange(t, w))
}

func TestWatcher_MissingDirectory(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "mloq.yaml")
	absent := filepath.Join(dir, "nope", "config.yaml")

	w, err := New([]string{present, absent})
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, []string{present}, w.Paths())
}

func TestWatcher_RelativePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	w, err := New([]string{"mloq.yaml"})
	require.NoError(t, err)
	defer w.Stop()

	abs, err := filepath.Abs("mloq.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{abs}, w.Paths())
}

func TestWatcher_PublishesEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mloq.yaml")

	bus := event.NewBus()
	defer bus.Close()

	var (
		mu       sync.Mutex
		received []string
	)
	bus.Subscribe(event.ConfigChanged, func(e event.Event) {
		var data event.ConfigChangedData
		assert.NoError(t, e.Decode(&data))
		mu.Lock()
		received = append(received, data.Paths...)
		mu.Unlock()
	})

	w := newTestWatcher(t, []string{path}, WithBus(bus))

	require.NoError(t, os.WriteFile(path, []byte("globals: {}\n"), 0644))
	waitChange(t, w)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{path}, received)
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "mloq.yaml")})
	require.NoError(t, err)

	w.Start()
	w.Start()

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	assert.NoError(t, w.Stop())
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "mloq.yaml")})
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}
