// Package audit records who changed which incoming wagon and when.
//
// Entries are written asynchronously by the API after each successful
// create, update or delete, and listed newest first through GET /audit.
package audit
