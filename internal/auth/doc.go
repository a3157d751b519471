// Package auth provides authentication and authorisation for the BosVes API.
//
// Callers are machine clients configured in config.yaml (security.clients)
// holding one of two roles:
//   - operator: records, corrects and removes incoming wagons
//   - reader: queries wagons and the audit trail
//
// Client secrets are stored as Argon2id PHC hashes. A successful
// POST /auth/token exchange yields an HS256 JWT whose subject is the client
// ID; the API middleware verifies it with Signer.ParseToken and checks the
// role against the static permission map. Development tokens use the same
// Signer with an arbitrary subject.
package auth
