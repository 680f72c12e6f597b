// Package repositories implements persistence for the social graph over an injected [docstore.Store].
//
// Key Implementations:
//   - [UserRepository] : the users collection, keyed by userName
//   - [PlaylistRepository] : the playlists collection, keyed by playlistName
//   - [UnitOfWork] : binds both repositories to a single store transaction
//
// Repositories never call one another. Cross-collection consistency (friend symmetry, like back-references,
// derived counters) is the job of the social package, which drives both repositories through interfaces.
//
// Store sentinels are translated into the model taxonomy: a missing document becomes [models.ErrNotFound]
// and a key collision becomes [models.ErrDuplicate].
package repositories
