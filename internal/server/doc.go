// Package server exposes the playlist social graph over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so a path can carry
// several methods and anything else gets 405.
//
// # Middleware
//
//   - [RequestLogger] assigns an X-Request-ID and logs method, path, status and duration
//   - [Recovery] converts panics into 500 responses
//   - [RateLimit] shares one token bucket across every route and answers 429 when it is empty
//
// # Endpoints
//
// [API] registers the user, playlist, relationship and audit routes. Errors are translated by [StatusFor]:
// missing entities are 404, duplicates and refused relationship changes are 406, malformed names are 400.
// Every error body has the shape {"message": "..."}.
package server
