// ABOUTME: Websocket transport adapting the chat core onto gorilla/websocket
// ABOUTME: Handshake auth, connection pumps, envelope decode and dispatch

// Package ws is the transport edge of the chat gateway. It upgrades HTTP
// requests to websockets, authenticates the handshake, runs the read/write
// pumps for each connection, and translates wire envelopes into calls on
// the chat service.
//
// Identity is fixed at the handshake: the JWT's subject is the employee id
// used for every subsequent operation on that connection. The userId and
// role fields clients include in event payloads are part of the wire
// contract but are never trusted - they are ignored in favor of the
// authenticated identity.
package ws
