// Package client is the HTTP transport for the PathFinder backend.
//
// Client issues JSON and form-encoded requests and turns every response into
// either a decoded payload or a *domain.Error:
//
//   - 401 on an authenticated request calls Authorizer.Expire and returns a
//     session-expired error. Every request path is covered, so callers never
//     check for 401 themselves.
//   - 204 carries no body.
//   - Any other non-2xx response carries {"detail": ...}, which becomes the
//     error message verbatim.
//   - Network failures and undecodable bodies are fetch errors.
//
// The client never retries and never sets its own deadlines; the context and
// the configured *http.Client decide how long a request may take.
package client
