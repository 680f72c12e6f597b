// Package social implements the operations that keep users and playlists consistent with each other.
//
// A [Service] depends on two small interfaces, [UserStore] and [PlaylistStore], and never on a concrete
// repository. Each operation validates its preconditions by reading both entities, then issues a short,
// fixed sequence of field-level updates:
//
//	Befriend(a, b)        push a to b.friends, push b to a.friends, inc b.numFriends, inc a.numFriends
//	Unfriend(a, b)        pull a from b.friends, pull b from a.friends, dec b.numFriends, dec a.numFriends
//	LikePlaylist(u, p)    push u to p.likes, push p to u.playlists, inc u.numPlaylists
//	UnlikePlaylist(u, p)  pull u from p.likes, pull p from u.playlists, dec u.numPlaylists
//
// When a [UnitOfWork] is configured the reads and the update sequence run inside one store transaction.
// Without one the sequence is best effort: a failure or a concurrent caller can leave one side updated
// and not the other. The tasks package audits and repairs that state.
package social
