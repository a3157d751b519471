// Package api implements the HTTP REST API and WebSocket server for BosVes.
//
// This package provides:
//   - Incoming wagon endpoints speaking the result-envelope protocol
//   - Token endpoints (client credentials, dev tokens, WebSocket tickets)
//   - WebSocket hub relaying wagon events to live clients
//   - Middleware stack (request ID, logging, recovery, metrics, CORS, auth, rate limit)
//
// # Result envelope
//
// Every business outcome, including "not found", is a result.Result encoded
// with the envelope package and written as a JSON string. Validation
// failures use the same envelope with HTTP 400. Authentication, malformed
// envelopes and infrastructure faults are plain JSON errors.
//
// # Events
//
// Successful changes are published to MQTT. Each replica relays the topic
// to its own WebSocket clients, so the server runs without a broker by
// broadcasting locally.
package api
