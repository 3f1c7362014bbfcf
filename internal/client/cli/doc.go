// Package cli provides the interactive BarangayConnect command-line client.
//
// It wires configuration, the local store, the remote authority client and
// an interactive REPL that keeps working while the device is offline.
// Typical flow: restore the last session, start a background connectivity
// watcher, and execute user commands.
//
// Key features:
//   - Register / Login online, Offline login from the local cache
//   - Update profile locally; edits are pushed by the sync engine
//   - Automatic sync when connectivity returns, manual "sync" command
//   - Staff review of registrations (list, approve, reject, delete)
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
