// Package config handles configuration loading for chat-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from CHAT_GATEWAY_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/chat-gateway/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${CHAT_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # websocket, uploads, and admin API
//	  allowed_origins:            # browser origins for /ws; empty = same-origin
//	    - "https://app.example.com"
//
// Database:
//
//	database:
//	  path: "/var/lib/chat-gateway/chat.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${CHAT_JWT_SECRET}"   # required, at least 32 bytes
//	  token_ttl: "24h"
//
// Attachment storage:
//
//	uploads:
//	  dir: "/var/lib/chat-gateway/uploads"
//	  base_url: "https://chat.example.com"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - JWT secret presence and minimum length (32 bytes)
//   - Database path presence
//   - Logging level and format values
//   - Duration format validity
package config
