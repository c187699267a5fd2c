// Package storage persists bot events: suppressed handler failures,
// first-seen chats, and operator-visible actions.
//
// It is not a chat history. Events are append-only and compact; the store
// exists so long-running deployments can inspect what the dispatcher and
// scheduler swallowed.
//
// Backends:
//   - "file": dependency-free JSON Lines file
//   - "sqlite": SQLite database (build with -tags sqlite)
//   - "" / "none": disabled
package storage
