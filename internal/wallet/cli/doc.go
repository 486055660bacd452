// Package cli provides the interactive wallet command-line client.
//
// It wires configuration, the local SQLite database, the secure storage
// backend, the key vault and the session controller, and runs a small REPL
// on top of them.
//
// Key features:
//   - signup / import: create a wallet from a fresh or existing mnemonic
//   - login / lock / logout: open, expire or wipe the session
//   - status / accounts / whoami / rename: inspect and label accounts
//   - sign: sign a message with the active account (needs a live session)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
