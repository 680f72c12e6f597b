// Package tasks checks and repairs the social graph when its denormalized state drifts.
//
// # Why drift happens
//
// Relationship operations write several documents in sequence. Without a transactional store a failure or
// a concurrent caller can leave one side of a friendship or like written and the other not, or a counter
// out of step with its list.
//
// # Core Operations
//
//  1. [Auditor.Check] : Scan both collections and report every [Issue]
//     - friend lists: self references, missing users, duplicates, missing reverse entries
//     - liked playlists and playlist likes: missing entities, duplicates, one-sided likes
//     - counters: numFriends and numPlaylists against the repaired list lengths
//
//  2. [Auditor.Repair] : Apply the field-level update each issue names
//     - one job per document, updates applied in order
//     - bounded worker pool, throttled by a [rate.Limiter]
//
// # Progress Reporting
//
// Both operations send [ProgressUpdate] values on an optional channel. Updates use select with default,
// so a slow reader never blocks the audit.
package tasks
