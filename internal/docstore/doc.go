// Package docstore implements a small document store with filtered fetch, insert, field-level update and delete.
//
// Documents are JSON-shaped maps grouped into named collections. Updates are expressed as [Update] values
// carrying push (append to an array field), pull (remove matching values from an array field) and inc
// (add a delta to a numeric field) operations, applied atomically per call.
//
// Implementations:
//   - [MemoryStore] : process-local maps guarded by a [sync.RWMutex]
//   - [SQLStore] : one documents table in SQLite or Postgres, selected by a [Dialect]
//
// Both implement [Transactor], so a caller can group several calls and have them rolled back together.
//
// Each collection may declare a key field in [Keys]; key values are unique within the collection and
// inserts that collide fail with [ErrDuplicateKey].
package docstore
