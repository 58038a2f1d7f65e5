package store

import (
	"encoding/json"
	"time"
)

// SnapshotThreshold is how many events accumulate past the last snapshot
// before a new one is written.
const SnapshotThreshold = 10

// Snapshot is a serialized aggregate state at a known event version.
// Replay resumes from Version rather than from the beginning.
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	State         json.RawMessage `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}
