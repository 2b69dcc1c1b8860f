package monitor

import (
	"sort"
	"time"

	"github.com/narvanalabs/eb-deploy/internal/models"
)

// DefaultLookback is how far before monitor start the first event fetch
// reaches, so the trigger's own initial events are not missed.
const DefaultLookback = 2 * time.Minute

// Tracker de-duplicates and orders provider events across overlapping
// fetch windows. It owns the watermark: the cursor used for the next
// fetch, advanced monotonically to the newest timestamp observed.
type Tracker struct {
	watermark time.Time
	seen      map[models.EventKey]struct{}
}

// NewTracker creates a tracker whose initial watermark is start minus
// lookback. A non-positive lookback falls back to DefaultLookback.
func NewTracker(start time.Time, lookback time.Duration) *Tracker {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Tracker{
		watermark: start.Add(-lookback),
		seen:      make(map[models.EventKey]struct{}),
	}
}

// Since returns the cursor to request events from on the next fetch.
// De-duplication covers the boundary overlap.
func (t *Tracker) Since() time.Time {
	return t.watermark
}

// Ingest filters a raw fetch down to unseen events in ascending
// (timestamp, source, message) order and advances the watermark. Events
// strictly older than the watermark and duplicates of already-surfaced
// events are discarded.
func (t *Tracker) Ingest(raw []models.EventRecord) []models.EventRecord {
	cutoff := t.watermark
	maxSeen := t.watermark

	var fresh []models.EventRecord
	for _, ev := range raw {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		key := ev.Key()
		if _, dup := t.seen[key]; dup {
			continue
		}
		t.seen[key] = struct{}{}
		fresh = append(fresh, ev)
		if ev.Timestamp.After(maxSeen) {
			maxSeen = ev.Timestamp
		}
	}

	sort.Slice(fresh, func(i, j int) bool {
		a, b := fresh[i], fresh[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.Message < b.Message
	})

	t.watermark = maxSeen
	return fresh
}
