package wagon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the persistence operations for incoming wagons.
//
// Get, Update and Delete return ErrWagonNotFound when no record has the
// given ID. Any other error is an infrastructure fault.
type Repository interface {
	Insert(ctx context.Context, w *Wagon) error
	Get(ctx context.Context, id int64) (*Wagon, error)
	FindByKeys(ctx context.Context, f Filter) ([]Wagon, error)
	ListByDate(ctx context.Context, f DateFilter) ([]Wagon, error)
	Update(ctx context.Context, id int64, p Patch) (*Wagon, error)
	Delete(ctx context.Context, id int64) (*Wagon, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed wagon repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const wagonColumns = `id, dt, vr, nvag, npp, vesy, tn, created_by, created_at, updated_at`

// Insert stores w and sets its ID and timestamps.
func (r *SQLiteRepository) Insert(ctx context.Context, w *Wagon) error {
	now := r.now().Truncate(time.Second)

	const query = `INSERT INTO incoming_wagons (dt, vr, nvag, npp, vesy, tn, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		w.Date, w.Time, w.Nvag, w.Npp, w.Vesy, w.Tn,
		nullString(w.CreatedBy), formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("inserting incoming wagon %s: %w", w.Nvag, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted id: %w", err)
	}

	w.ID = id
	w.CreatedAt = now
	w.UpdatedAt = now
	return nil
}

// Get returns the record with the given ID.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*Wagon, error) {
	query := `SELECT ` + wagonColumns + ` FROM incoming_wagons WHERE id = ?`
	return scanWagon(r.db.QueryRowContext(ctx, query, id))
}

// FindByKeys returns the records matching the full business key.
// No match yields an empty, non-nil slice.
func (r *SQLiteRepository) FindByKeys(ctx context.Context, f Filter) ([]Wagon, error) {
	query := `SELECT ` + wagonColumns + ` FROM incoming_wagons
		WHERE dt = ? AND vr = ? AND nvag = ? AND vesy = ?
		ORDER BY id`
	return r.queryWagons(ctx, query, f.Date, f.Time, f.Nvag, f.Vesy)
}

// ListByDate returns every record for one scale on one day, in weighing order.
func (r *SQLiteRepository) ListByDate(ctx context.Context, f DateFilter) ([]Wagon, error) {
	query := `SELECT ` + wagonColumns + ` FROM incoming_wagons
		WHERE dt = ? AND vesy = ?
		ORDER BY vr, npp, id`
	return r.queryWagons(ctx, query, f.Date, f.Vesy)
}

// Update applies the set fields of p in a single statement and returns the
// updated record.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, p Patch) (*Wagon, error) {
	if p.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	sets, args := patchAssignments(p)
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(r.now()), id)

	query := fmt.Sprintf( //nolint:gosec // column names are fixed by patchAssignments
		`UPDATE incoming_wagons SET %s WHERE id = ? RETURNING `+wagonColumns,
		strings.Join(sets, ", "))

	w, err := scanWagon(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, ErrWagonNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating incoming wagon %d: %w", id, err)
	}
	return w, nil
}

// Delete removes the record and returns it as it was before deletion.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (*Wagon, error) {
	query := `DELETE FROM incoming_wagons WHERE id = ? RETURNING ` + wagonColumns
	w, err := scanWagon(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrWagonNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("deleting incoming wagon %d: %w", id, err)
	}
	return w, nil
}

// patchAssignments builds the SET list for the non-nil fields of p.
func patchAssignments(p Patch) ([]string, []any) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if p.Date != nil {
		add("dt", *p.Date)
	}
	if p.Time != nil {
		add("vr", *p.Time)
	}
	if p.Nvag != nil {
		add("nvag", *p.Nvag)
	}
	if p.Npp != nil {
		add("npp", *p.Npp)
	}
	if p.Vesy != nil {
		add("vesy", *p.Vesy)
	}
	if p.Tn != nil {
		add("tn", *p.Tn)
	}
	return sets, args
}

func (r *SQLiteRepository) queryWagons(ctx context.Context, query string, args ...any) ([]Wagon, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying incoming wagons: %w", err)
	}
	defer rows.Close()

	wagons := []Wagon{}
	for rows.Next() {
		w, err := scanWagon(rows)
		if err != nil {
			return nil, err
		}
		wagons = append(wagons, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating incoming wagon rows: %w", err)
	}
	return wagons, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWagon(row rowScanner) (*Wagon, error) {
	var w Wagon
	var createdBy sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&w.ID, &w.Date, &w.Time, &w.Nvag, &w.Npp, &w.Vesy, &w.Tn,
		&createdBy, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWagonNotFound
		}
		return nil, fmt.Errorf("scanning incoming wagon: %w", err)
	}

	w.CreatedBy = createdBy.String
	w.CreatedAt = parseTime(createdAt)
	w.UpdatedAt = parseTime(updatedAt)
	return &w, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime reads an RFC3339 column, returning the zero time on malformed input.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
