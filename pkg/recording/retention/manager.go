package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/recording/index"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/metrics"
)

// Deleter removes an artifact by key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics reports buffer fill and evictions to collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = collector }
}

// Capacity returns the number of frames covering maxDurationMinutes at fps.
func Capacity(maxDurationMinutes float64, fps int) int {
	return int(math.Floor(maxDurationMinutes * float64(fps) * 60))
}

// Manager owns the retention index.
//
// While a snapshot is held (see Hold), evictions still update the index
// immediately but the deletion of their artifacts is parked until the last
// holder releases, so a held snapshot can always be read back in full.
type Manager struct {
	mu      sync.RWMutex
	index   *index.Index
	deleter Deleter
	logger  *slog.Logger
	metrics *metrics.Collector

	holds  int
	parked []recording.FrameRecord
}

// New creates an empty manager holding at most capacity records.
func New(capacity int, deleter Deleter, opts ...Option) (*Manager, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("retention capacity must be at least 1, got %d", capacity)
	}
	if deleter == nil {
		return nil, fmt.Errorf("retention deleter is required")
	}

	m := &Manager{
		index:   index.New(capacity),
		deleter: deleter,
		logger:  slog.Default().With("component", "recording.retention"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.metrics.UpdateBuffer(0, capacity)

	return m, nil
}

// Append adds rec at the tail. rec must be strictly newer than the current
// newest record, otherwise recording.ErrOutOfOrder is returned and the index
// is unchanged. If the index exceeds its capacity the oldest record is
// evicted and its artifact deleted.
func (m *Manager) Append(ctx context.Context, rec recording.FrameRecord) error {
	m.mu.Lock()
	if err := m.index.Push(rec); err != nil {
		m.mu.Unlock()
		return err
	}
	var evicted []recording.FrameRecord
	for m.index.Overflow() {
		head, _ := m.index.PopFront()
		evicted = append(evicted, head)
	}
	size := m.index.Len()
	doomed := m.parkLocked(evicted)
	m.mu.Unlock()

	m.metrics.UpdateBuffer(size, m.index.Capacity())
	m.metrics.RecordEviction(len(evicted))
	m.evict(ctx, doomed)
	return nil
}

// Rehydrate loads recovered records into an empty manager. records must be
// strictly ascending. Records beyond capacity are evicted oldest first.
func (m *Manager) Rehydrate(ctx context.Context, records []recording.FrameRecord) error {
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp <= records[i-1].Timestamp {
			return fmt.Errorf("%w: rehydrate input not ascending at position %d", recording.ErrOutOfOrder, i)
		}
	}

	m.mu.Lock()
	if m.index.Len() != 0 {
		m.mu.Unlock()
		return fmt.Errorf("rehydrate requires an empty index, have %d records", m.index.Len())
	}

	var evicted []recording.FrameRecord
	if overflow := len(records) - m.index.Capacity(); overflow > 0 {
		evicted = records[:overflow]
		records = records[overflow:]
	}
	for _, rec := range records {
		// Ordering was checked above and the index is empty.
		_ = m.index.Push(rec)
	}
	size := m.index.Len()
	doomed := m.parkLocked(evicted)
	m.mu.Unlock()

	m.logger.Info("retention index rehydrated",
		"records", size,
		"evicted", len(evicted),
	)
	m.metrics.UpdateBuffer(size, m.index.Capacity())
	m.metrics.RecordEviction(len(evicted))
	m.evict(ctx, doomed)
	return nil
}

// Clear empties the index and deletes every tracked artifact, including
// evicted ones still parked for a holder. Clear does not wait for holders.
// The index is emptied even if some deletions fail; the failures are joined
// into the returned error. Clearing an empty manager is a no-op.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	removed := append(m.parked, m.index.Reset()...)
	m.parked = nil
	m.mu.Unlock()

	m.metrics.UpdateBuffer(0, m.index.Capacity())

	var errs []error
	for _, rec := range removed {
		if err := m.deleter.Delete(ctx, rec.ArtifactKey); err != nil {
			m.metrics.RecordArtifactError("delete")
			errs = append(errs, err)
		}
	}

	if len(removed) > 0 {
		m.logger.Info("retention index cleared",
			"records", len(removed),
			"delete_failures", len(errs),
		)
	}
	return errors.Join(errs...)
}

// parkLocked returns the evicted records whose artifacts can be deleted now.
// While a snapshot is held they are parked instead. m.mu must be held.
func (m *Manager) parkLocked(evicted []recording.FrameRecord) []recording.FrameRecord {
	if m.holds == 0 || len(evicted) == 0 {
		return evicted
	}
	m.parked = append(m.parked, evicted...)
	return nil
}

// evict requests deletion of evicted artifacts. Failures are logged and
// counted; the index entries stay removed.
func (m *Manager) evict(ctx context.Context, evicted []recording.FrameRecord) {
	for _, rec := range evicted {
		if err := m.deleter.Delete(ctx, rec.ArtifactKey); err != nil {
			m.metrics.RecordArtifactError("delete")
			m.logger.Warn("failed to delete evicted artifact",
				"key", rec.ArtifactKey,
				"error", err,
			)
		}
	}
}

// Snapshot returns an ordered copy of the index.
func (m *Manager) Snapshot() []recording.FrameRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.Records()
}

// Hold returns an ordered copy of the index and keeps every artifact it
// lists readable until release is called. Evictions that happen meanwhile
// are applied to the index but their deletions are deferred; the last
// release hands them to the deleter oldest first. release is idempotent.
func (m *Manager) Hold() (snapshot []recording.FrameRecord, release func()) {
	m.mu.Lock()
	m.holds++
	snapshot = m.index.Records()
	m.mu.Unlock()

	var once sync.Once
	return snapshot, func() {
		once.Do(m.release)
	}
}

func (m *Manager) release() {
	m.mu.Lock()
	m.holds--
	var doomed []recording.FrameRecord
	if m.holds == 0 {
		doomed, m.parked = m.parked, nil
	}
	m.mu.Unlock()

	if len(doomed) > 0 {
		m.logger.Debug("releasing deferred evictions", "records", len(doomed))
	}
	m.evict(context.Background(), doomed)
}

// Floor returns the oldest timestamp whose artifact is still needed: the
// oldest parked eviction while a snapshot is held, else the oldest retained
// record. Artifacts older than the floor are orphans.
func (m *Manager) Floor() (recording.Timestamp, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.parked) > 0 {
		return m.parked[0].Timestamp, true
	}
	front, ok := m.index.Front()
	return front.Timestamp, ok
}

// Len returns the number of retained records.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.Len()
}

// Capacity returns the maximum number of retained records.
func (m *Manager) Capacity() int {
	return m.index.Capacity()
}

// Oldest returns the oldest retained record.
func (m *Manager) Oldest() (recording.FrameRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.Front()
}

// Newest returns the newest retained record.
func (m *Manager) Newest() (recording.FrameRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.Back()
}

// Contains reports whether ts is retained.
func (m *Manager) Contains(ts recording.Timestamp) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.Contains(ts)
}
