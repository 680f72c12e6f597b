// Package models defines the documents stored by the playlist social graph.
//
//   - [User] : a member with a friend list and a list of liked playlists, plus a counter for each
//   - [Playlist] : a named playlist with the list of users who like it
//
// Both types encode to [docstore.Document] values using the field names in this package
// ([FieldUserName], [FieldFriends], ...), and validate their names with go-playground/validator.
//
// The error taxonomy shared by repositories, relationship operations and the HTTP API lives here:
// [ErrNotFound], [ErrDuplicate], [ErrNotAcceptable] and [ErrInvalid].
package models
