// package tasks implements maintenance jobs over the social graph.
//
// The core abstraction is Auditor, which checks and repairs the cross-collection invariants.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
	"github.com/desertthunder/playgraph/internal/shared"
	"github.com/desertthunder/playgraph/internal/social"
)

// IssueKind names a broken invariant.
type IssueKind string

const (
	CountMismatch    IssueKind = "count_mismatch"    // counter differs from the repaired list length
	AsymmetricFriend IssueKind = "asymmetric_friend" // a lists b, b does not list a
	DanglingFriend   IssueKind = "dangling_friend"   // friend is not a user
	SelfFriend       IssueKind = "self_friend"       // user lists itself
	DuplicateEntry   IssueKind = "duplicate_entry"   // value appears more than once in a list
	OneSidedLike     IssueKind = "one_sided_like"    // like recorded on only one of user and playlist
	DanglingLike     IssueKind = "dangling_like"     // like references a missing user or playlist
)

// Issue is a single inconsistency and the document that needs to change to fix it.
type Issue struct {
	Kind       IssueKind `json:"kind"`
	Collection string    `json:"collection"`      // Collection holding the document to change
	Entity     string    `json:"entity"`          // Key of the document to change
	Field      string    `json:"field"`           // Field to change
	Value      string    `json:"value,omitempty"` // List value to add or remove
	Delta      int64     `json:"delta,omitempty"` // Counter adjustment for [CountMismatch]
	Message    string    `json:"message"`
}

// Report is the result of [Auditor.Check].
type Report struct {
	Users     int     `json:"users"`
	Playlists int     `json:"playlists"`
	Issues    []Issue `json:"issues"`
}

// OK reports whether no issues were found.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// Counts returns the number of issues of each kind.
func (r *Report) Counts() map[IssueKind]int {
	counts := map[IssueKind]int{}
	for _, issue := range r.Issues {
		counts[issue.Kind]++
	}
	return counts
}

// AuditOpts contains configuration for repairs.
type AuditOpts struct {
	NumWorkers int     // Concurrent repair workers (default: 4)
	RateLimit  float64 // Document updates per second (default: 20)
}

// Auditor checks and repairs the social graph invariants.
type Auditor struct {
	users     social.UserStore
	playlists social.PlaylistStore
	opts      AuditOpts
	logger    *log.Logger
}

// NewAuditor creates a new Auditor. A nil logger discards output.
func NewAuditor(users social.UserStore, playlists social.PlaylistStore, opts AuditOpts, logger *log.Logger) *Auditor {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 16 {
		opts.NumWorkers = 16
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	} else {
		logger = shared.WithLogger(logger, "component", "audit")
	}
	return &Auditor{users: users, playlists: playlists, opts: opts, logger: logger}
}

// Check scans both collections and reports every broken invariant.
//
// Each issue names one document change; applying all of them (see [Auditor.Repair]) restores the invariants.
// Counter issues carry the delta that brings the counter to the length of the list after the list repairs.
func (a *Auditor) Check(ctx context.Context, progress chan<- ProgressUpdate) (*Report, error) {
	sendProgress(progress, fetchUsersUpdate())
	users, err := a.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	sendProgress(progress, fetchPlaylistsUpdate(len(users)))
	playlists, err := a.playlists.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	report := &Report{Users: len(users), Playlists: len(playlists), Issues: []Issue{}}
	c := checker{users: users, playlists: playlists}

	names := models.SortedNames(users)
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sendProgress(progress, checkUserUpdate(i+1, len(names), name))
		report.Issues = append(report.Issues, c.checkUser(name)...)
	}

	titles := models.SortedNames(playlists)
	for i, name := range titles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sendProgress(progress, checkPlaylistUpdate(i+1, len(titles), name))
		report.Issues = append(report.Issues, c.checkPlaylist(name)...)
	}

	a.logger.Info("audit complete", "users", report.Users, "playlists", report.Playlists, "issues", len(report.Issues))
	return report, nil
}

type checker struct {
	users     map[string]*models.User
	playlists map[string]*models.Playlist
}

func (c checker) checkUser(name string) []Issue {
	u := c.users[name]
	var issues []Issue

	friends := 0
	for _, f := range distinct(u.Friends) {
		switch {
		case f == name:
			issues = append(issues, userIssue(SelfFriend, name, models.FieldFriends, f, "%s lists itself as a friend", name))
		case c.users[f] == nil:
			issues = append(issues, userIssue(DanglingFriend, name, models.FieldFriends, f, "%s lists missing user %s as a friend", name, f))
		default:
			friends++
			if n := count(u.Friends, f); n > 1 {
				issues = append(issues, userIssue(DuplicateEntry, name, models.FieldFriends, f, "%s lists friend %s %d times", name, f, n))
			}
			if !c.users[f].HasFriend(name) {
				issues = append(issues, userIssue(AsymmetricFriend, f, models.FieldFriends, name, "%s lists %s as a friend but not the reverse", name, f))
			}
		}
	}

	for _, other := range models.SortedNames(c.users) {
		if other != name && c.users[other].HasFriend(name) && !u.HasFriend(other) {
			friends++
		}
	}

	if delta := int64(friends - u.NumFriends); delta != 0 {
		issues = append(issues, Issue{
			Kind:       CountMismatch,
			Collection: models.UsersCollection,
			Entity:     name,
			Field:      models.FieldNumFriends,
			Delta:      delta,
			Message:    fmt.Sprintf("%s has numFriends %d, expected %d", name, u.NumFriends, friends),
		})
	}

	liked := 0
	for _, p := range distinct(u.Playlists) {
		if c.playlists[p] == nil {
			issues = append(issues, userIssue(DanglingLike, name, models.FieldPlaylists, p, "%s likes missing playlist %s", name, p))
			continue
		}
		liked++
		if n := count(u.Playlists, p); n > 1 {
			issues = append(issues, userIssue(DuplicateEntry, name, models.FieldPlaylists, p, "%s likes %s %d times", name, p, n))
		}
		if !c.playlists[p].LikedBy(name) {
			issues = append(issues, playlistIssue(OneSidedLike, p, name, "%s likes %s but the playlist does not list the user", name, p))
		}
	}

	for _, title := range models.SortedNames(c.playlists) {
		if c.playlists[title].LikedBy(name) && !u.Likes(title) {
			liked++
		}
	}

	if delta := int64(liked - u.NumPlaylists); delta != 0 {
		issues = append(issues, Issue{
			Kind:       CountMismatch,
			Collection: models.UsersCollection,
			Entity:     name,
			Field:      models.FieldNumPlaylists,
			Delta:      delta,
			Message:    fmt.Sprintf("%s has numPlaylists %d, expected %d", name, u.NumPlaylists, liked),
		})
	}

	return issues
}

func (c checker) checkPlaylist(name string) []Issue {
	p := c.playlists[name]
	var issues []Issue

	for _, user := range distinct(p.Likes) {
		u := c.users[user]
		if u == nil {
			issues = append(issues, playlistIssue(DanglingLike, name, user, "%s is liked by missing user %s", name, user))
			continue
		}
		if n := count(p.Likes, user); n > 1 {
			issues = append(issues, Issue{
				Kind:       DuplicateEntry,
				Collection: models.PlaylistsCollection,
				Entity:     name,
				Field:      models.FieldLikes,
				Value:      user,
				Message:    fmt.Sprintf("%s lists liker %s %d times", name, user, n),
			})
		}
		if !u.Likes(name) {
			issues = append(issues, userIssue(OneSidedLike, user, models.FieldPlaylists, name, "%s lists %s as a liker but the user does not like it", name, user))
		}
	}

	return issues
}

func userIssue(kind IssueKind, entity, field, value, format string, args ...any) Issue {
	return Issue{
		Kind:       kind,
		Collection: models.UsersCollection,
		Entity:     entity,
		Field:      field,
		Value:      value,
		Message:    fmt.Sprintf(format, args...),
	}
}

func playlistIssue(kind IssueKind, entity, value, format string, args ...any) Issue {
	return Issue{
		Kind:       kind,
		Collection: models.PlaylistsCollection,
		Entity:     entity,
		Field:      models.FieldLikes,
		Value:      value,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Update returns the document update that resolves the issue.
func (i Issue) Update() docstore.Update {
	switch i.Kind {
	case CountMismatch:
		return docstore.Inc(i.Field, i.Delta)
	case SelfFriend, DanglingFriend, DanglingLike:
		return docstore.Pull(i.Field, i.Value)
	case DuplicateEntry:
		// pull runs before push, leaving exactly one copy
		return docstore.Update{
			Pull: map[string]any{i.Field: i.Value},
			Push: map[string]any{i.Field: i.Value},
		}
	default:
		return docstore.Push(i.Field, i.Value)
	}
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func count(values []string, v string) int {
	n := 0
	for _, x := range values {
		if x == v {
			n++
		}
	}
	return n
}
