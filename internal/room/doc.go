// ABOUTME: Live connection membership tracking for project chat rooms
// ABOUTME: Ephemeral state only - nothing here survives a process restart

// Package room tracks which live connections are members of which project
// room. Membership is transport-scoped: it is created by join-project,
// removed by leave-project, and purged wholesale when a connection drops.
//
// The same (project, user) pair may be present once per connection, so an
// employee with three tabs open holds three memberships and broadcast
// reaches all of them.
package room
