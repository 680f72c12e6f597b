// package models defines the documents of the playlist social graph
package models

import (
	"errors"
	"slices"
	"sort"

	"github.com/desertthunder/playgraph/internal/docstore"
)

var (
	// ErrNotFound is returned when a referenced user, playlist, or relationship does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when creating an entity whose name is taken.
	ErrDuplicate = errors.New("already exists")
	// ErrNotAcceptable is returned for relationship changes that would break an invariant.
	ErrNotAcceptable = errors.New("not acceptable")
	// ErrInvalid is returned for malformed entity names.
	ErrInvalid = errors.New("invalid")
)

// Collection names
const (
	UsersCollection     = "users"
	PlaylistsCollection = "playlists"
)

// Document field names
const (
	FieldUserName     = "userName"
	FieldNumFriends   = "numFriends"
	FieldFriends      = "friends"
	FieldNumPlaylists = "numPlaylists"
	FieldPlaylists    = "playlists"
	FieldPlaylistName = "playlistName"
	FieldLikes        = "likes"
)

// Keys is the unique key configuration stores need for the social graph collections.
func Keys() docstore.Keys {
	return docstore.Keys{
		UsersCollection:     FieldUserName,
		PlaylistsCollection: FieldPlaylistName,
	}
}

// User is a member of the social graph.
//
// NumFriends and NumPlaylists are maintained by increments alongside Friends and Playlists, never recomputed.
type User struct {
	UserName     string   `json:"userName" validate:"required,max=128,entityname"`
	NumFriends   int      `json:"numFriends"`
	Friends      []string `json:"friends"`
	NumPlaylists int      `json:"numPlaylists"`
	Playlists    []string `json:"playlists"`
}

// NewUser creates a user with no friends or liked playlists.
func NewUser(name string) *User {
	return &User{UserName: name, Friends: []string{}, Playlists: []string{}}
}

// HasFriend reports whether name is in the user's friend list.
func (u *User) HasFriend(name string) bool {
	return slices.Contains(u.Friends, name)
}

// Likes reports whether the user has liked the playlist.
func (u *User) Likes(playlist string) bool {
	return slices.Contains(u.Playlists, playlist)
}

// Playlist is a named playlist that users can like.
type Playlist struct {
	PlaylistName string   `json:"playlistName" validate:"required,max=128,entityname"`
	Likes        []string `json:"likes"`
}

// NewPlaylist creates a playlist with no likes.
func NewPlaylist(name string) *Playlist {
	return &Playlist{PlaylistName: name, Likes: []string{}}
}

// LikedBy reports whether user appears in the playlist's likes.
func (p *Playlist) LikedBy(user string) bool {
	return slices.Contains(p.Likes, user)
}

// Document encodes the user for storage.
func (u *User) Document() (docstore.Document, error) {
	return docstore.Encode(u.normalized())
}

// Document encodes the playlist for storage.
func (p *Playlist) Document() (docstore.Document, error) {
	return docstore.Encode(p.normalized())
}

// UserFromDocument decodes a stored user. Missing arrays decode as empty.
func UserFromDocument(doc docstore.Document) (*User, error) {
	var u User
	if err := docstore.Decode(doc, &u); err != nil {
		return nil, err
	}
	return u.normalized(), nil
}

// PlaylistFromDocument decodes a stored playlist. Missing arrays decode as empty.
func PlaylistFromDocument(doc docstore.Document) (*Playlist, error) {
	var p Playlist
	if err := docstore.Decode(doc, &p); err != nil {
		return nil, err
	}
	return p.normalized(), nil
}

func (u *User) normalized() *User {
	cp := *u
	if cp.Friends == nil {
		cp.Friends = []string{}
	}
	if cp.Playlists == nil {
		cp.Playlists = []string{}
	}
	return &cp
}

func (p *Playlist) normalized() *Playlist {
	cp := *p
	if cp.Likes == nil {
		cp.Likes = []string{}
	}
	return &cp
}

// SortedNames returns the keys of m in ascending order.
func SortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
