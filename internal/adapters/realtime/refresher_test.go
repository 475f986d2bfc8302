package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	"github.com/larderhq/larder-go/internal/domain/model"
	"github.com/larderhq/larder-go/internal/service"
)

// memoryBus is an in-process MetadataBus for tests.
type memoryBus struct {
	mu         sync.Mutex
	profiles   map[string]func()
	households map[string]func()
}

func newMemoryBus() *memoryBus {
	return &memoryBus{
		profiles:   make(map[string]func()),
		households: make(map[string]func()),
	}
}

func (b *memoryBus) SubscribeProfile(userID string, fn func()) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profiles[userID] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.profiles, userID)
	}, nil
}

func (b *memoryBus) SubscribeHousehold(householdID string, fn func()) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.households[householdID] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.households, householdID)
	}, nil
}

func (b *memoryBus) publishProfile(userID string) {
	b.mu.Lock()
	fn := b.profiles[userID]
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (b *memoryBus) profileSubjects() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.profiles))
	for k := range b.profiles {
		out = append(out, k)
	}
	return out
}

func (b *memoryBus) householdIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.households))
	for k := range b.households {
		out = append(out, k)
	}
	return out
}

// fakeEngine implements the Engine slice used by the refresher.
type fakeEngine struct {
	mu       sync.Mutex
	snap     service.Snapshot
	watcher  chan struct{}
	refreshs int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{watcher: make(chan struct{}, 1)}
}

func (e *fakeEngine) Snapshot() service.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

func (e *fakeEngine) Watch() (<-chan struct{}, func()) {
	return e.watcher, func() {}
}

func (e *fakeEngine) RefreshMetadata(context.Context) {
	e.mu.Lock()
	e.refreshs++
	e.mu.Unlock()
}

func (e *fakeEngine) refreshCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshs
}

func (e *fakeEngine) setSnapshot(snap service.Snapshot) {
	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
	select {
	case e.watcher <- struct{}{}:
	default:
	}
}

func snapshotFor(userID, householdID string) service.Snapshot {
	snap := service.Snapshot{}
	if userID != "" {
		snap.Session = &domainauth.Session{ID: "s-" + userID, UserID: userID}
	}
	if householdID != "" {
		snap.Household = &model.Household{ID: householdID, Name: "Kitchen"}
	}
	return snap
}

func TestRefresherFollowsSnapshot(t *testing.T) {
	bus := newMemoryBus()
	engine := newFakeEngine()
	engine.setSnapshot(snapshotFor("u1", "h1"))

	r := NewRefresher(bus, engine, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(bus.profileSubjects()) == 1 && len(bus.householdIDs()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"u1"}, bus.profileSubjects())
	assert.Equal(t, []string{"h1"}, bus.householdIDs())

	// Session change re-subscribes for the new subject and household.
	engine.setSnapshot(snapshotFor("u2", "h2"))
	require.Eventually(t, func() bool {
		subjects := bus.profileSubjects()
		return len(subjects) == 1 && subjects[0] == "u2"
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		ids := bus.householdIDs()
		return len(ids) == 1 && ids[0] == "h2"
	}, time.Second, 5*time.Millisecond)

	// Sign-out drops all subscriptions.
	engine.setSnapshot(service.Snapshot{})
	require.Eventually(t, func() bool {
		return len(bus.profileSubjects()) == 0 && len(bus.householdIDs()) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop on context cancel")
	}
}

func TestRefresherTriggersRefreshOnBusEvent(t *testing.T) {
	bus := newMemoryBus()
	engine := newFakeEngine()
	engine.setSnapshot(snapshotFor("u1", ""))

	r := NewRefresher(bus, engine, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(bus.profileSubjects()) == 1
	}, time.Second, 5*time.Millisecond)

	bus.publishProfile("u1")
	require.Eventually(t, func() bool {
		return engine.refreshCount() == 1
	}, time.Second, 5*time.Millisecond)
}
