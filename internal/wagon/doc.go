// Package wagon holds the incoming-wagon record: its wire payloads, their
// validation, and the SQLite repository that persists them.
//
// A record is identified by an integer ID and can also be found by its
// business key (dt, vr, nvag, vesy): the weighing date, time of day, wagon
// number and scale number.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use. Each operation is a single
// statement and therefore atomic.
package wagon
