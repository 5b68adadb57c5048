// Package gateway wires the chat-gateway server together and runs it.
//
// # Overview
//
// The gateway owns the HTTP server and the lifecycle of every component
// behind it: the SQLite store, the room registry, the chat service, the
// websocket handler, and attachment storage.
//
// # Endpoints
//
//	GET  /health                          liveness
//	GET  /health/ready                    readiness (store reachable)
//	GET  /ws                              websocket chat sessions (JWT)
//	POST /api/uploads                     attachment uploads (JWT)
//	GET  /uploads/                        stored attachments
//	GET  /api/employees                   directory listing (JWT)
//	PUT  /api/employees/{id}/permissions  permission assignment (JWT + managePermissions)
//
// # Lifecycle
//
// New() composes the components; Run() serves until the context is
// canceled, then shuts down gracefully. A fresh database is seeded with a
// bootstrap BOSS account so the permission assignment API is reachable.
package gateway
