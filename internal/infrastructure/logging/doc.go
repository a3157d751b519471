// Package logging provides structured logging for the BosVes API.
//
// It wraps log/slog so every record carries the service name and build
// version. JSON is the default format; text is available for local runs.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("server listening", "addr", cfg.Address())
//
// Bearer tokens, client secrets and raw request bodies are never logged.
// Validation failures log the developer message and the parameter name.
package logging
