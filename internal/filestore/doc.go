// ABOUTME: Attachment storage for chat messages
// ABOUTME: Local disk implementation plus the multipart upload endpoint

// Package filestore persists chat attachments and serves them back. The
// chat wire protocol carries attachments as URLs only; this package is
// where those URLs come from. Uploads go through POST /api/uploads before
// the client issues send-message with the returned URLs.
package filestore
