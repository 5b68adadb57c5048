// ABOUTME: Handshake authentication for websocket connections
// ABOUTME: JWT verification binds a transport session to an employee id

// Package auth verifies the JWT presented during the websocket handshake
// and resolves it to an employee id. That id - not any field a client later
// puts in an event payload - is the identity every chat operation is
// authorized against.
//
// Session issuance (login, password handling) belongs to the main
// application and is out of scope here; this package only consumes the
// resulting tokens. Generate exists for bootstrap tooling and tests.
package auth
