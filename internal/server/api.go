package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/playgraph/internal/models"
	"github.com/desertthunder/playgraph/internal/shared"
	"github.com/desertthunder/playgraph/internal/tasks"
)

// Users is the user directory the API serves.
type Users interface {
	List(ctx context.Context) (map[string]*models.User, error)
	Get(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, username string) error
}

// Playlists is the playlist directory the API serves.
type Playlists interface {
	List(ctx context.Context) (map[string]*models.Playlist, error)
	Get(ctx context.Context, name string) (*models.Playlist, error)
	Create(ctx context.Context, name string) error
}

// Graph is the set of relationship operations the API exposes.
type Graph interface {
	Befriend(ctx context.Context, a, b string) error
	Unfriend(ctx context.Context, a, b string) error
	LikePlaylist(ctx context.Context, user, playlist string) error
	UnlikePlaylist(ctx context.Context, user, playlist string) error
	DeleteUserCascade(ctx context.Context, username string) error
	DeletePlaylistCascade(ctx context.Context, name string) error
}

// Auditor checks the graph for broken invariants.
type Auditor interface {
	Check(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.Report, error)
}

// API holds the handlers for every endpoint.
type API struct {
	users     Users
	playlists Playlists
	graph     Graph
	auditor   Auditor
	logger    *log.Logger
	endpoints []string
}

// NewAPI creates the API handlers. A nil auditor leaves /audit unregistered.
func NewAPI(users Users, playlists Playlists, graph Graph, auditor Auditor, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &API{
		users:     users,
		playlists: playlists,
		graph:     graph,
		auditor:   auditor,
		logger:    shared.WithLogger(logger, "component", "api"),
	}
}

type route struct {
	method  string
	path    string
	handler http.HandlerFunc
}

func (a *API) routes() []route {
	routes := []route{
		{http.MethodGet, "/hello", a.hello},
		{http.MethodGet, "/endpoints", a.listEndpoints},
		{http.MethodGet, "/users", a.listUsers},
		{http.MethodGet, "/users/{name}", a.getUser},
		{http.MethodPost, "/users/{name}", a.createUser},
		{http.MethodDelete, "/users/{name}", a.deleteUser},
		{http.MethodPost, "/users/{name}/friends/{other}", a.befriend},
		{http.MethodDelete, "/users/{name}/friends/{other}", a.unfriend},
		{http.MethodPost, "/users/{name}/likes/{playlist}", a.likePlaylist},
		{http.MethodDelete, "/users/{name}/likes/{playlist}", a.unlikePlaylist},
		{http.MethodGet, "/playlists", a.listPlaylists},
		{http.MethodGet, "/playlists/{name}", a.getPlaylist},
		{http.MethodPost, "/playlists/{name}", a.createPlaylist},
		{http.MethodDelete, "/playlists/{name}", a.deletePlaylist},
	}
	if a.auditor != nil {
		routes = append(routes, route{http.MethodGet, "/audit", a.audit})
	}
	return routes
}

// Register adds every endpoint to router.
func (a *API) Register(router Router) {
	a.endpoints = a.endpoints[:0]
	for _, rt := range a.routes() {
		router.Handle(rt.method, rt.path, rt.handler)
		a.endpoints = append(a.endpoints, rt.method+" "+rt.path)
	}
}

func (a *API) hello(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, r, http.StatusOK, map[string]string{"hello": "world"})
}

func (a *API) listEndpoints(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, r, http.StatusOK, map[string][]string{"Available endpoints": a.endpoints})
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, users)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.users.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, user)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := a.users.Create(r.Context(), name); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusCreated, fmt.Sprintf("user %s created", name))
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := a.graph.DeleteUserCascade(r.Context(), name); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusOK, fmt.Sprintf("user %s deleted", name))
}

func (a *API) befriend(w http.ResponseWriter, r *http.Request) {
	name, other := r.PathValue("name"), r.PathValue("other")
	if err := a.graph.Befriend(r.Context(), name, other); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusOK, fmt.Sprintf("%s and %s are now friends", name, other))
}

func (a *API) unfriend(w http.ResponseWriter, r *http.Request) {
	name, other := r.PathValue("name"), r.PathValue("other")
	if err := a.graph.Unfriend(r.Context(), name, other); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusOK, fmt.Sprintf("%s and %s are no longer friends", name, other))
}

func (a *API) likePlaylist(w http.ResponseWriter, r *http.Request) {
	name, playlist := r.PathValue("name"), r.PathValue("playlist")
	if err := a.graph.LikePlaylist(r.Context(), name, playlist); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusOK, fmt.Sprintf("%s likes %s", name, playlist))
}

func (a *API) unlikePlaylist(w http.ResponseWriter, r *http.Request) {
	name, playlist := r.PathValue("name"), r.PathValue("playlist")
	if err := a.graph.UnlikePlaylist(r.Context(), name, playlist); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusOK, fmt.Sprintf("%s no longer likes %s", name, playlist))
}

func (a *API) listPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.playlists.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, playlists)
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := a.playlists.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, playlist)
}

func (a *API) createPlaylist(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := a.playlists.Create(r.Context(), name); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusCreated, fmt.Sprintf("playlist %s created", name))
}

func (a *API) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := a.graph.DeletePlaylistCascade(r.Context(), name); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeMessage(w, r, http.StatusOK, fmt.Sprintf("playlist %s deleted", name))
}

func (a *API) audit(w http.ResponseWriter, r *http.Request) {
	report, err := a.auditor.Check(r.Context(), nil)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, r, http.StatusOK, report)
}

// StatusFor maps an operation error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrDuplicate), errors.Is(err, models.ErrNotAcceptable):
		return http.StatusNotAcceptable
	case errors.Is(err, models.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "request_id", RequestID(r.Context()), "path", r.URL.Path, "err", err)
		message = "internal server error"
	}
	a.writeMessage(w, r, status, message)
}

func (a *API) writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	a.writeJSON(w, r, status, map[string]string{"message": message})
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := writeJSON(w, status, payload); err != nil {
		logWriteError(a.logger, r, err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, map[string]string{"message": message})
}

// writeJSON sends payload with the given status. The status is already sent when an encoding error is returned.
func writeJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

func logWriteError(logger *log.Logger, r *http.Request, err error) {
	logger.Warn("response not written", "request_id", RequestID(r.Context()), "path", r.URL.Path, "err", err)
}
