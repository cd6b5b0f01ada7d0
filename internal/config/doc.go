// Package config handles configuration loading for taskchat.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${TASKCHAT_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  access_ttl: "15m"
//	  refresh_ttl: "168h"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/taskchat/taskchat.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${TASKCHAT_JWT_SECRET}"   # Required
//	  access_ttl: "15m"
//	  refresh_ttl: "168h"
//
// Model provider (any OpenAI-compatible endpoint):
//
//	model:
//	  api_key: "${TASKCHAT_API_KEY}"
//	  base_url: ""                           # Empty = official OpenAI API
//	  name: "gpt-4o-mini"
//	  temperature: 0.2
//	  max_tokens: 4096
//
// Tool execution:
//
//	tools:
//	  mode: "local"                          # "local" or "subprocess"
//	  command: "/usr/local/bin/taskchat-tools"
//	  args: ["--db", "/var/lib/taskchat/taskchat.db"]
//
// Logging:
//
//	logging:
//	  level: "info"                          # debug, info, warn, error
//	  format: "text"                         # text or json
package config
