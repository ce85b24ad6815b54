/*
store.go - Keyed record store port

PURPOSE:
  Defines the interface between the reconciliation engine and persistence.
  Records live under hierarchical string paths, mirroring the collections
  the engine owns:

    faculty/{empId}
    attendance/{empId}/records/{date}
    leaveApplications/{id}
    holidays/{date}
    monthlyAllocations/{month}
    settings

  Values are raw JSON documents; domain packages own (de)serialization.

ATOMIC MULTI-KEY WRITES:
  Update() applies a map of path -> value in one shot: either every entry
  lands or none do. A nil value deletes the path. This is what keeps a leave
  rejection (status flip + date-range attendance clearing) from ever being
  half-applied. A store that cannot guarantee atomicity must surface
  PartialWriteError rather than silently succeeding.

CONDITIONAL WRITES:
  ConditionalStore adds UpdateIfAbsent, a guarded variant used by the monthly
  allocation state machine: the batch applies only while the guard path is
  still empty, which makes the NotRun -> Completed transition exclusive even
  under concurrent callers.

IMPLEMENTATIONS:
  - engine/store/memory.go: In-memory with snapshot rollback (tests/dev)
  - store/sqlite/sqlite.go:  SQLite-backed, SQL transactions

SEE ALSO:
  - errors.go: PartialWriteError, DuplicateKeyError, ErrStoreRequired
*/
package engine

import (
	"context"
	"encoding/json"
	"strings"
)

// =============================================================================
// STORE - Hierarchical keyed record store
// =============================================================================

// Store is the persistence port for all engine collections.
// All calls suspend until the underlying store replies; reads used for a
// decision complete before any dependent write is issued.
type Store interface {
	// Get returns the value at path. ok is false when the path is empty.
	Get(ctx context.Context, path string) (value json.RawMessage, ok bool, err error)

	// List returns every path/value pair under the given prefix.
	List(ctx context.Context, prefix string) (map[string]json.RawMessage, error)

	// Set writes a single value, creating or overwriting the path.
	Set(ctx context.Context, path string, value json.RawMessage) error

	// Update applies all writes atomically. A nil value deletes the path;
	// deleting an absent path is a no-op. On failure nothing is applied,
	// or PartialWriteError is returned if atomicity could not be upheld.
	Update(ctx context.Context, writes map[string]json.RawMessage) error

	// Remove deletes the value at path. Removing an absent path is a no-op.
	Remove(ctx context.Context, path string) error
}

// ConditionalStore extends Store with guarded writes.
// Required by once-only state transitions (monthly allocation marker).
type ConditionalStore interface {
	Store

	// UpdateIfAbsent applies writes atomically only when guardPath holds no
	// value. When the guard is occupied, nothing is written and
	// DuplicateKeyError is returned.
	UpdateIfAbsent(ctx context.Context, guardPath string, writes map[string]json.RawMessage) error
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// JoinPath builds a hierarchical key from segments.
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// GetJSON reads path and decodes it into out. Returns (false, nil) when the
// path is empty; out is untouched in that case.
func GetJSON(ctx context.Context, s Store, path string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, path)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// MustMarshal encodes v for a write. The engine only marshals its own types,
// so an encoding failure is a programming error.
func MustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
