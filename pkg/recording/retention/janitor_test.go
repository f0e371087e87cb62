package retention

import (
	"context"
	"testing"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/storage"
)

func TestJanitor_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{
			name:        "valid schedule",
			schedule:    "*/10 * * * *",
			wantRunning: true,
		},
		{
			name:     "empty schedule - no error, not running",
			schedule: "",
		},
		{
			name:      "invalid schedule",
			schedule:  "invalid cron",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			m, _ := New(10, store)
			janitor := NewJanitor(m, store, tt.schedule, nil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := janitor.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if janitor.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", janitor.IsRunning(), tt.wantRunning)
			}

			if tt.wantRunning {
				next := janitor.NextRun()
				if next == nil {
					t.Fatal("NextRun() returned nil for running janitor")
				}
				if !next.After(time.Now()) {
					t.Errorf("NextRun() = %v, want a future time", next)
				}
			}

			janitor.Stop()
			if janitor.IsRunning() {
				t.Error("IsRunning() = true after Stop()")
			}
		})
	}
}

func TestJanitor_StopsOnContextCancel(t *testing.T) {
	store := storage.NewMemoryStore()
	m, _ := New(10, store)
	janitor := NewJanitor(m, store, "* * * * *", nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := janitor.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for janitor.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("janitor still running after context cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestJanitor_Sweep(t *testing.T) {
	store := storage.NewMemoryStore()
	m, _ := New(10, store)
	ctx := context.Background()

	put := func(key string) {
		store.Put(ctx, &recording.Artifact{Key: key, Data: []byte("x")})
	}

	// Orphans left behind before the retained window
	put("1")
	put("2.5")
	// Retained window
	for _, ts := range []float64{10, 11, 12} {
		r := rec(ts)
		put(r.ArtifactKey)
		m.Append(ctx, r)
	}
	// In-flight write newer than the oldest retained frame
	put("13")
	// Foreign file
	put("thumbnail")

	removed, err := NewJanitor(m, store, "", nil).Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Sweep() = %d, want 2", removed)
	}

	for _, key := range []string{"1", "2.5"} {
		if store.Has(key) {
			t.Errorf("orphan %q not removed", key)
		}
	}
	for _, key := range []string{"10", "11", "12", "13", "thumbnail"} {
		if !store.Has(key) {
			t.Errorf("artifact %q removed, want kept", key)
		}
	}
}

func TestJanitor_SweepEmptyIndex(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Put(context.Background(), &recording.Artifact{Key: "1", Data: []byte("x")})
	m, _ := New(10, store)

	removed, err := NewJanitor(m, store, "", nil).Sweep(context.Background())
	if err != nil || removed != 0 {
		t.Errorf("Sweep() = %d, %v, want 0, nil", removed, err)
	}
	if !store.Has("1") {
		t.Error("Sweep() on empty index removed an artifact")
	}
}

func TestJanitor_SweepSparesHeldEvictions(t *testing.T) {
	store := storage.NewMemoryStore()
	m, _ := New(2, store)
	ctx := context.Background()

	add := func(ts float64) {
		r := rec(ts)
		store.Put(ctx, &recording.Artifact{Key: r.ArtifactKey, Data: []byte("x")})
		m.Append(ctx, r)
	}

	store.Put(ctx, &recording.Artifact{Key: "0.5", Data: []byte("x")})
	add(1)
	add(2)

	_, release := m.Hold()
	add(3)
	add(4)

	removed, err := NewJanitor(m, store, "", nil).Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	for _, key := range []string{"1", "2"} {
		if !store.Has(key) {
			t.Errorf("held artifact %q removed by Sweep()", key)
		}
	}

	release()
	for _, key := range []string{"1", "2"} {
		if store.Has(key) {
			t.Errorf("artifact %q still stored after release", key)
		}
	}
}

func TestJanitor_StaleContextDoesNotStopNewSession(t *testing.T) {
	store := storage.NewMemoryStore()
	m, _ := New(10, store)
	janitor := NewJanitor(m, store, "* * * * *", nil)

	first, cancelFirst := context.WithCancel(context.Background())
	if err := janitor.Start(first); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	janitor.Stop()

	second, cancelSecond := context.WithCancel(context.Background())
	defer cancelSecond()
	if err := janitor.Start(second); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	cancelFirst()
	time.Sleep(50 * time.Millisecond)
	if !janitor.IsRunning() {
		t.Error("IsRunning() = false, cancelling a stopped session's context stopped the new one")
	}

	cancelSecond()
	deadline := time.Now().Add(2 * time.Second)
	for janitor.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("janitor still running after context cancellation")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
