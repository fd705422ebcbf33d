package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

const testRuleContent = `- if:
    - ["type", "output"]
    - ["block", 4]
  ops: [["multiply", 1.1]]
`

func TestNewFileWatcher(t *testing.T) {
	config := DefaultFileWatcherConfig()
	config.Paths = []string{t.TempDir()}

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v, want nil", err)
	}
	if watcher == nil {
		t.Fatal("NewFileWatcher() returned nil")
	}
	if watcher.watcher == nil {
		t.Error("watcher.watcher is nil")
	}
	if watcher.debounce == nil {
		t.Error("watcher.debounce is nil")
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() error = %v, want nil", err)
	}
}

func TestNewFileWatcher_NilConfig(t *testing.T) {
	watcher, err := NewFileWatcher(nil, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher(nil) error = %v, want nil", err)
	}
	defer func() { _ = watcher.Stop() }()

	if watcher.config.DebounceInterval != DefaultDebounceInterval {
		t.Errorf("DebounceInterval = %v, want %v",
			watcher.config.DebounceInterval, DefaultDebounceInterval)
	}
}

func TestDefaultFileWatcherConfig(t *testing.T) {
	config := DefaultFileWatcherConfig()

	if config.DebounceInterval != 500*time.Millisecond {
		t.Errorf("config.DebounceInterval = %v, want 500ms", config.DebounceInterval)
	}

	if len(config.Extensions) != 3 {
		t.Errorf("config.Extensions count = %d, want 3", len(config.Extensions))
	}

	if !config.SkipHidden {
		t.Error("config.SkipHidden = false, want true")
	}
}

func TestFileWatcher_WatchSingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "rules.yaml")
	if err := os.WriteFile(tmpFile, []byte(testRuleContent), 0o644); err != nil {
		t.Fatal(err)
	}

	config := DefaultFileWatcherConfig()
	config.Paths = []string{tmpFile}
	config.DebounceInterval = 50 * time.Millisecond

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	var reloadCount atomic.Int32
	reloadCalled := make(chan struct{}, 10)
	onReload := func() error {
		reloadCount.Add(1)
		select {
		case reloadCalled <- struct{}{}:
		default:
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, onReload)
	}()

	// Wait for watcher to register paths.
	time.Sleep(100 * time.Millisecond)

	modified := testRuleContent + "- ops: [[\"noise\", 0.05]]\n"
	if err := os.WriteFile(tmpFile, []byte(modified), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloadCalled:
	case <-time.After(2 * time.Second):
		t.Error("Reload not called after file modification")
	}

	if reloadCount.Load() == 0 {
		t.Error("Reload was never called")
	}
}

func TestFileWatcher_WatchDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "rules.yaml"), []byte(testRuleContent), 0o644); err != nil {
		t.Fatal(err)
	}

	config := DefaultFileWatcherConfig()
	config.Paths = []string{tmpDir}
	config.DebounceInterval = 50 * time.Millisecond

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	reloadCalled := make(chan struct{}, 10)
	onReload := func() error {
		select {
		case reloadCalled <- struct{}{}:
		default:
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, onReload)
	}()

	time.Sleep(100 * time.Millisecond)

	// New rule file in the watched directory.
	newFile := filepath.Join(tmpDir, "extra.lrl")
	if err := os.WriteFile(newFile, []byte(testRuleContent), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloadCalled:
	case <-time.After(2 * time.Second):
		t.Error("Reload not called after creating new rule file")
	}
}

func TestFileWatcher_Debouncing(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "rules.yaml")
	if err := os.WriteFile(tmpFile, []byte(testRuleContent), 0o644); err != nil {
		t.Fatal(err)
	}

	config := DefaultFileWatcherConfig()
	config.Paths = []string{tmpFile}
	config.DebounceInterval = 200 * time.Millisecond

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	var reloadCount atomic.Int32
	onReload := func() error {
		reloadCount.Add(1)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, onReload)
	}()

	time.Sleep(100 * time.Millisecond)

	// Rapid writes inside the debounce window.
	for i := 0; i < 5; i++ {
		content := testRuleContent + "# revision " + string(rune('0'+i)) + "\n"
		if err := os.WriteFile(tmpFile, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(30 * time.Millisecond)
	}

	time.Sleep(400 * time.Millisecond)

	count := reloadCount.Load()
	if count == 0 {
		t.Error("Reload was never called")
	}
	if count > 2 {
		t.Errorf("Reload called %d times, want <= 2 (debouncing failed)", count)
	}
}

func TestFileWatcher_Stop(t *testing.T) {
	config := DefaultFileWatcherConfig()
	config.Paths = []string{t.TempDir()}

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, func() error { return nil })
	}()

	time.Sleep(50 * time.Millisecond)

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() error = %v, want nil", err)
	}

	watcher.mu.RLock()
	running := watcher.running
	watcher.mu.RUnlock()

	if running {
		t.Error("Watcher still running after Stop()")
	}

	// Second Stop is a no-op.
	if err := watcher.Stop(); err != nil {
		t.Errorf("Second Stop() error = %v, want nil", err)
	}
}

func TestFileWatcher_StopWithoutWatch(t *testing.T) {
	watcher, err := NewFileWatcher(DefaultFileWatcherConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() without Watch error = %v, want nil", err)
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("Second Stop() error = %v, want nil", err)
	}
}

func TestFileWatcher_DoubleWatch(t *testing.T) {
	config := DefaultFileWatcherConfig()
	config.Paths = []string{t.TempDir()}

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, func() error { return nil })
	}()

	time.Sleep(50 * time.Millisecond)

	if err := watcher.Watch(ctx, func() error { return nil }); err == nil {
		t.Error("Second Watch() call error = nil, want error")
	}
}

func TestFileWatcher_WatchMissingPath(t *testing.T) {
	config := DefaultFileWatcherConfig()
	config.Paths = []string{filepath.Join(t.TempDir(), "does-not-exist")}

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatal(err)
	}

	err = watcher.Watch(context.Background(), func() error { return nil })
	if err == nil {
		t.Error("Watch() with missing path error = nil, want error")
	}
}

func TestFileWatcher_SkipHiddenFiles(t *testing.T) {
	tmpDir := t.TempDir()
	hiddenFile := filepath.Join(tmpDir, ".hidden.yaml")
	if err := os.WriteFile(hiddenFile, []byte(testRuleContent), 0o644); err != nil {
		t.Fatal(err)
	}

	config := DefaultFileWatcherConfig()
	config.Paths = []string{tmpDir}
	config.DebounceInterval = 50 * time.Millisecond

	watcher, err := NewFileWatcher(config, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	var reloadCount atomic.Int32
	onReload := func() error {
		reloadCount.Add(1)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, onReload)
	}()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(hiddenFile, []byte("modified"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)

	if count := reloadCount.Load(); count != 0 {
		t.Errorf("Reload called %d times for hidden file, want 0", count)
	}
}

func TestFileWatcher_FilterExtensions(t *testing.T) {
	watcher, err := NewFileWatcher(DefaultFileWatcherConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	tests := []struct {
		ext   string
		valid bool
	}{
		{".yaml", true},
		{".yml", true},
		{".lrl", true},
		{".txt", false},
		{".json", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got := watcher.hasValidExtension(tt.ext)
			if got != tt.valid {
				t.Errorf("hasValidExtension(%q) = %v, want %v", tt.ext, got, tt.valid)
			}
		})
	}
}

func TestFileWatcher_ShouldProcessEvent(t *testing.T) {
	watcher, err := NewFileWatcher(DefaultFileWatcherConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	tests := []struct {
		name        string
		eventName   string
		op          fsnotify.Op
		shouldAllow bool
	}{
		{"write to yaml", "/rules/base.yaml", fsnotify.Write, true},
		{"write to lrl", "/rules/extra.lrl", fsnotify.Write, true},
		{"create yml", "/rules/new.yml", fsnotify.Create, true},
		{"uppercase extension", "/rules/base.YAML", fsnotify.Write, true},
		{"remove rule file", "/rules/base.yaml", fsnotify.Remove, true},
		{"chmod ignored", "/rules/base.yaml", fsnotify.Chmod, false},
		{"wrong extension", "/rules/notes.txt", fsnotify.Write, false},
		{"hidden file", "/rules/.swap.yaml", fsnotify.Write, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := fsnotify.Event{Name: tt.eventName, Op: tt.op}
			got := watcher.shouldProcessEvent(event)
			if got != tt.shouldAllow {
				t.Errorf("shouldProcessEvent(%q, %v) = %v, want %v",
					tt.eventName, tt.op, got, tt.shouldAllow)
			}
		})
	}
}

func TestDebouncer_Trigger(t *testing.T) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	defer debouncer.Stop()

	var callCount atomic.Int32
	callback := func() {
		callCount.Add(1)
	}

	for i := 0; i < 5; i++ {
		debouncer.Trigger(callback)
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("Callback called %d times, want 1", count)
	}
}

func TestDebouncer_LatestCallbackWins(t *testing.T) {
	debouncer := NewDebouncer(50 * time.Millisecond)
	defer debouncer.Stop()

	var first, second atomic.Int32
	debouncer.Trigger(func() { first.Add(1) })
	debouncer.Trigger(func() { second.Add(1) })

	time.Sleep(150 * time.Millisecond)

	if first.Load() != 0 {
		t.Errorf("First callback called %d times, want 0", first.Load())
	}
	if second.Load() != 1 {
		t.Errorf("Second callback called %d times, want 1", second.Load())
	}
}

func TestDebouncer_Stop(t *testing.T) {
	debouncer := NewDebouncer(100 * time.Millisecond)

	var callCount atomic.Int32
	debouncer.Trigger(func() { callCount.Add(1) })

	debouncer.Stop()

	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 0 {
		t.Errorf("Callback called %d times after Stop(), want 0", count)
	}

	// Stop twice and trigger after stop, both no-ops.
	debouncer.Stop()
	debouncer.Trigger(func() { callCount.Add(1) })

	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 0 {
		t.Errorf("Callback called %d times after stopped Trigger, want 0", count)
	}
}
