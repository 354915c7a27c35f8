package windowstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"overlayshell/internal/testutils"
)

// memoryStore is a Store backed by a map, with optional failures
type memoryStore struct {
	mu      sync.Mutex
	data    map[string]Geometry
	saves   int
	loadErr error
	saveErr error
	closed  bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Geometry)}
}

func (m *memoryStore) Load(_ context.Context, id string) (Geometry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return Geometry{}, m.loadErr
	}
	g, ok := m.data[id]
	if !ok {
		return Geometry{}, ErrNoState
	}
	return g, nil
}

func (m *memoryStore) Save(_ context.Context, id string, g Geometry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data[id] = g
	return nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memoryStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memoryStore) get(id string) (Geometry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.data[id]
	return g, ok
}

func TestPlugin_RoundTripThroughSQLite(t *testing.T) {
	cfg := fileConfig(t)
	ctx := context.Background()
	geometryA := Geometry{X: 64, Y: 32, Width: 480, Height: 720}

	// first run: the user moves and resizes the window, then closes it
	store := openStore(t, cfg)
	plugin := NewPlugin(store, DefaultOptions(), &testutils.RecordingLogger{})
	win := testutils.NewFakeWindow("main")
	if err := plugin.Startup(ctx, win); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	win.X, win.Y, win.Width, win.Height = geometryA.X, geometryA.Y, geometryA.Width, geometryA.Height
	if err := plugin.BeforeClose(ctx, win); err != nil {
		t.Fatalf("BeforeClose failed: %v", err)
	}
	if err := plugin.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	// second run: a fresh window comes back at geometry A
	restarted := NewPlugin(openStore(t, cfg), DefaultOptions(), &testutils.RecordingLogger{})
	fresh := testutils.NewFakeWindow("main")
	if err := restarted.Startup(ctx, fresh); err != nil {
		t.Fatalf("Startup after restart failed: %v", err)
	}
	defer restarted.Shutdown(ctx)

	got := Geometry{X: fresh.X, Y: fresh.Y, Width: fresh.Width, Height: fresh.Height, Maximised: fresh.Maximised}
	if got != geometryA {
		t.Errorf("restored geometry = %v, want %v", got, geometryA)
	}
}

func TestPlugin_MaximisedKeepsNormalFrame(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	plugin := NewPlugin(store, DefaultOptions(), &testutils.RecordingLogger{})

	win := testutils.NewFakeWindow("main")
	win.X, win.Y, win.Width, win.Height = 10, 20, 400, 500
	if err := plugin.Startup(ctx, win); err != nil {
		t.Fatal(err)
	}

	// maximising reports the screen-sized frame
	win.Maximised = true
	win.X, win.Y, win.Width, win.Height = 0, 0, 1920, 1080
	if err := plugin.BeforeClose(ctx, win); err != nil {
		t.Fatal(err)
	}

	saved, _ := store.get("main")
	want := Geometry{X: 10, Y: 20, Width: 400, Height: 500, Maximised: true}
	if saved != want {
		t.Errorf("saved %v, want %v", saved, want)
	}

	// restoring applies the normal frame, then maximises
	next := NewPlugin(store, DefaultOptions(), nil)
	fresh := testutils.NewFakeWindow("main")
	if err := next.Startup(ctx, fresh); err != nil {
		t.Fatal(err)
	}
	if fresh.Width != 400 || fresh.Height != 500 || !fresh.Maximised {
		t.Errorf("restored %dx%d maximised=%v", fresh.Width, fresh.Height, fresh.Maximised)
	}
}

func TestPlugin_FlagsLimitRestore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.data["main"] = Geometry{X: 300, Y: 300, Width: 640, Height: 480, Maximised: true}

	plugin := NewPlugin(store, Options{Flags: FlagSize}, nil)
	win := testutils.NewFakeWindow("main")
	if err := plugin.Startup(ctx, win); err != nil {
		t.Fatal(err)
	}

	if win.Width != 640 || win.Height != 480 {
		t.Errorf("size not restored: %dx%d", win.Width, win.Height)
	}
	if win.Called("SetPosition") || win.Called("Maximise") {
		t.Errorf("only size should be restored, calls: %v", win.Calls)
	}

	// saving keeps the untracked position from the previous row
	win.X, win.Y, win.Width, win.Height = 1, 1, 700, 500
	if err := plugin.BeforeClose(ctx, win); err != nil {
		t.Fatal(err)
	}
	saved, _ := store.get("main")
	want := Geometry{X: 300, Y: 300, Width: 700, Height: 500, Maximised: true}
	if saved != want {
		t.Errorf("saved %v, want %v", saved, want)
	}
}

func TestPlugin_NilStoreDegrades(t *testing.T) {
	ctx := context.Background()
	logger := &testutils.RecordingLogger{}
	plugin := NewPlugin(nil, DefaultOptions(), logger)
	win := testutils.NewFakeWindow("main")

	if err := plugin.Startup(ctx, win); err != nil {
		t.Errorf("Startup with no store returned %v", err)
	}
	if err := plugin.BeforeClose(ctx, win); err != nil {
		t.Errorf("BeforeClose with no store returned %v", err)
	}
	if err := plugin.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown with no store returned %v", err)
	}
	if _, ok := logger.Find("WARN", "Window state store unavailable, geometry will not persist"); !ok {
		t.Error("missing store should be reported once at startup")
	}
	if len(win.Calls) != 0 {
		t.Errorf("window should be untouched, calls: %v", win.Calls)
	}
}

func TestPlugin_StoreFailuresAreReturned(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.loadErr = errors.New("disk gone")
	store.saveErr = errors.New("disk gone")
	plugin := NewPlugin(store, DefaultOptions(), nil)
	win := testutils.NewFakeWindow("main")

	if err := plugin.Startup(ctx, win); !errors.Is(err, store.loadErr) {
		t.Errorf("Startup returned %v, want wrapped load error", err)
	}
	if len(win.Calls) != 0 {
		t.Error("a failed load must not move the window")
	}
	if err := plugin.BeforeClose(ctx, win); !errors.Is(err, store.saveErr) {
		t.Errorf("BeforeClose returned %v, want wrapped save error", err)
	}
}

func TestPlugin_InvalidSavedStateIgnored(t *testing.T) {
	store := newMemoryStore()
	store.data["main"] = Geometry{X: 5, Y: 5}
	plugin := NewPlugin(store, DefaultOptions(), nil)
	win := testutils.NewFakeWindow("main")

	if err := plugin.Startup(context.Background(), win); err != nil {
		t.Fatal(err)
	}
	if len(win.Calls) != 0 {
		t.Errorf("invalid geometry should not be applied, calls: %v", win.Calls)
	}
}

func TestPlugin_RestoreFailureIsReported(t *testing.T) {
	store := newMemoryStore()
	store.data["main"] = Geometry{Width: 300, Height: 300}
	plugin := NewPlugin(store, DefaultOptions(), nil)
	win := testutils.NewFakeWindow("main")
	win.GeometryErr = errors.New("window gone")

	if err := plugin.Startup(context.Background(), win); !errors.Is(err, win.GeometryErr) {
		t.Errorf("Startup returned %v, want restore error", err)
	}
}

func TestPlugin_SnapshotIsDebounced(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	plugin := NewPlugin(store, Options{SnapshotDelay: 20 * time.Millisecond}, nil)
	win := testutils.NewFakeWindow("main")
	if err := plugin.Startup(ctx, win); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		plugin.Snapshot()
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.saveCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)

	if got := store.saveCount(); got != 1 {
		t.Errorf("saves = %d, want 1 after a burst", got)
	}
}

func TestPlugin_SnapshotAfterShutdownIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	plugin := NewPlugin(store, Options{SnapshotDelay: 5 * time.Millisecond}, nil)
	win := testutils.NewFakeWindow("main")
	if err := plugin.Startup(ctx, win); err != nil {
		t.Fatal(err)
	}
	if err := plugin.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	plugin.Snapshot()
	time.Sleep(40 * time.Millisecond)

	if store.saveCount() != 0 {
		t.Error("no save should happen after shutdown")
	}
	if !store.closed {
		t.Error("Shutdown should close the store")
	}
}

func TestMergeFlags(t *testing.T) {
	prev := Geometry{X: 1, Y: 2, Width: 3, Height: 4, Maximised: false}
	next := Geometry{X: 10, Y: 20, Width: 30, Height: 40, Maximised: true}

	tests := []struct {
		name  string
		flags StateFlags
		want  Geometry
	}{
		{"all", FlagsAll, next},
		{"position", FlagPosition, Geometry{X: 10, Y: 20, Width: 3, Height: 4}},
		{"size and maximised", FlagSize | FlagMaximised, Geometry{X: 1, Y: 2, Width: 30, Height: 40, Maximised: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeFlags(prev, next, tt.flags); got != tt.want {
				t.Errorf("mergeFlags = %v, want %v", got, tt.want)
			}
		})
	}
}
