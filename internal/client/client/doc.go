// Package client talks to the remote authority and bootstraps local storage.
//
// Transport is the single capability the rest of the client needs from the
// network: send a JSON request, decode a JSON response or return a typed
// error. One implementation is picked at start-up by NewTransport. HTTPClient
// builds the remote authority's API (register, login, profile update, staff
// review, ping) on top of it.
//
// Errors: network failures and 5xx responses match ErrUnavailable; every
// non-2xx response is a *StatusError carrying the remote "detail" message.
//
// OpenRepositories opens the SQLite database, applies the embedded goose
// migrations and falls back to in-memory repositories when the database
// cannot be used.
package client
