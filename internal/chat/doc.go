// ABOUTME: Realtime project chat core - session protocol, fan-out, domain events
// ABOUTME: Transport-agnostic; the ws package adapts it onto websockets

// Package chat implements the realtime project chat core: the per-connection
// session protocol (join, send, pin, delete, typing), the room broadcaster,
// and the domain events other subsystems subscribe to.
//
// The Service is an explicitly constructed, dependency-injected instance
// owned by the composition root. It trusts nothing a client says about
// identity: the user id comes from the authenticated transport handshake and
// role/permission flags are re-fetched from the employee directory before
// any gated operation.
//
// Every rejection is connection-local. The room's other members are never
// told that an operation was attempted and failed.
package chat
