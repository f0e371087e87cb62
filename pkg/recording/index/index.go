package index

import (
	"fmt"

	"github.com/pi3123/SmartDashcam/pkg/recording"
)

// Index is an ascending ring of frame records.
//
// It holds up to capacity records plus one slot of transient overflow, so
// an append to a full index can be followed by an eviction of the head
// without reallocating.
type Index struct {
	slots    []recording.FrameRecord
	head     int
	size     int
	capacity int
}

// New creates an empty index for the given capacity.
func New(capacity int) *Index {
	if capacity < 1 {
		capacity = 1
	}
	return &Index{
		slots:    make([]recording.FrameRecord, capacity+1),
		capacity: capacity,
	}
}

// Capacity returns the retention capacity (without the overflow slot).
func (x *Index) Capacity() int { return x.capacity }

// Len returns the number of records.
func (x *Index) Len() int { return x.size }

// Overflow reports whether the index holds more records than its capacity.
func (x *Index) Overflow() bool { return x.size > x.capacity }

// Push appends a record at the tail. The record must be strictly newer than
// the current tail and the overflow slot must be free.
func (x *Index) Push(rec recording.FrameRecord) error {
	if x.size > 0 {
		tail := x.At(x.size - 1)
		if rec.Timestamp <= tail.Timestamp {
			return fmt.Errorf("%w: %s after %s", recording.ErrOutOfOrder, rec.Timestamp, tail.Timestamp)
		}
	}
	if x.size == len(x.slots) {
		return fmt.Errorf("index full: %d records", x.size)
	}
	x.slots[(x.head+x.size)%len(x.slots)] = rec
	x.size++
	return nil
}

// PopFront removes and returns the oldest record.
func (x *Index) PopFront() (recording.FrameRecord, bool) {
	if x.size == 0 {
		return recording.FrameRecord{}, false
	}
	rec := x.slots[x.head]
	x.slots[x.head] = recording.FrameRecord{}
	x.head = (x.head + 1) % len(x.slots)
	x.size--
	return rec, true
}

// At returns the i-th oldest record. It panics if i is out of range.
func (x *Index) At(i int) recording.FrameRecord {
	if i < 0 || i >= x.size {
		panic(fmt.Sprintf("index: position %d out of range [0,%d)", i, x.size))
	}
	return x.slots[(x.head+i)%len(x.slots)]
}

// Front returns the oldest record.
func (x *Index) Front() (recording.FrameRecord, bool) {
	if x.size == 0 {
		return recording.FrameRecord{}, false
	}
	return x.At(0), true
}

// Back returns the newest record.
func (x *Index) Back() (recording.FrameRecord, bool) {
	if x.size == 0 {
		return recording.FrameRecord{}, false
	}
	return x.At(x.size - 1), true
}

// Records returns an ordered copy of the index contents.
func (x *Index) Records() []recording.FrameRecord {
	out := make([]recording.FrameRecord, x.size)
	for i := range out {
		out[i] = x.At(i)
	}
	return out
}

// Reset removes every record and returns them oldest first.
func (x *Index) Reset() []recording.FrameRecord {
	out := x.Records()
	for i := range x.slots {
		x.slots[i] = recording.FrameRecord{}
	}
	x.head, x.size = 0, 0
	return out
}

// Search runs CeilingSearch over the ring in place.
func (x *Index) Search(target recording.Timestamp) (int, bool) {
	return ceiling(x.size, func(i int) recording.Timestamp { return x.At(i).Timestamp }, target)
}

// Contains reports whether a record with exactly this timestamp is present.
func (x *Index) Contains(ts recording.Timestamp) bool {
	pos, ok := x.Search(ts)
	return ok && x.At(pos).Timestamp == ts
}
