// ABOUTME: Persistence layer for chat messages and the employee directory
// ABOUTME: SQLite-backed, schema auto-created, in-memory mode for tests

// Package store provides the persisted collaborators the chat core consumes:
// the chat message log (append, list by project, pin, delete) and the
// employee directory (role and permission flags, keyed by employee id).
//
// The chat core's consistency guarantees lean on two store properties:
//
//   - List order equals append order. Messages carry a monotonic sequence
//     assigned at insert, so every snapshot a joiner receives lists a room's
//     messages in the order the server persisted them.
//   - Deletion is terminal. Ids are UUIDs and are never reused; a deleted
//     message cannot reappear in any later snapshot.
//
// Permission flags are mutated only through AssignPermissions; the chat
// layer reads them and never writes.
package store
