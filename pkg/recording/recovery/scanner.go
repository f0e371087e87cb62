package recovery

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pi3123/SmartDashcam/pkg/recording"
)

// Lister enumerates artifact keys.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Result is the outcome of a scan.
type Result struct {
	// Records are the recovered frames, strictly ascending.
	Records []recording.FrameRecord

	// Skipped holds keys that are not capture timestamps.
	Skipped []string

	// Duplicates holds keys whose timestamp was already recovered under
	// another key (for example "10.5" and "10.50").
	Duplicates []string
}

// Scanner recovers frame records from an artifact store.
type Scanner struct {
	lister Lister
	logger *slog.Logger
}

// NewScanner creates a scanner over lister.
func NewScanner(lister Lister) *Scanner {
	return &Scanner{
		lister: lister,
		logger: slog.Default().With("component", "recording.recovery"),
	}
}

// Scan lists the store and returns the recovered records. An empty store
// yields an empty result.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	keys, err := s.lister.List(ctx)
	if err != nil {
		return nil, err
	}

	type parsed struct {
		ts  recording.Timestamp
		key string
	}

	result := &Result{}
	entries := make([]parsed, 0, len(keys))
	for _, key := range keys {
		ts, err := recording.ParseKey(key)
		if err != nil {
			s.logger.Warn("skipping unrecognized artifact", "key", key, "error", err)
			result.Skipped = append(result.Skipped, key)
			continue
		}
		entries = append(entries, parsed{ts: ts, key: key})
	}

	// Canonical keys sort first among equal timestamps so they win.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ts != entries[j].ts {
			return entries[i].ts < entries[j].ts
		}
		ci := entries[i].key == entries[i].ts.Key()
		cj := entries[j].key == entries[j].ts.Key()
		if ci != cj {
			return ci
		}
		return entries[i].key < entries[j].key
	})

	result.Records = make([]recording.FrameRecord, 0, len(entries))
	for i, e := range entries {
		if i > 0 && e.ts == entries[i-1].ts {
			result.Duplicates = append(result.Duplicates, e.key)
			continue
		}
		result.Records = append(result.Records, recording.FrameRecord{Timestamp: e.ts, ArtifactKey: e.key})
	}

	s.logger.Info("recovery scan completed",
		"recovered", len(result.Records),
		"skipped", len(result.Skipped),
		"duplicates", len(result.Duplicates),
	)

	return result, nil
}
