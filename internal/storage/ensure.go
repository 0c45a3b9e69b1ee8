package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// querier is the subset of database/sql satisfied by both *sql.DB and
// *sql.Tx, so the ensure primitives work inside and outside a phase
// transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ensureID is the one idempotent-upsert primitive everything builds on:
// look up a row by its natural key, insert only on miss, and return the
// resolved id either way. The created flag reports whether an insert
// happened. A uniqueness violation on insert means the row appeared
// between lookup and insert and is re-read, not treated as an error.
func ensureID(ctx context.Context, q querier, selectSQL, insertSQL string, selectArgs, insertArgs []any) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, selectSQL, selectArgs...).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, err
	}

	res, err := q.ExecContext(ctx, insertSQL, insertArgs...)
	if err != nil {
		if isUniqueViolation(err) {
			if err := q.QueryRowContext(ctx, selectSQL, selectArgs...).Scan(&id); err != nil {
				return 0, false, fmt.Errorf("re-reading after unique violation: %w", err)
			}
			return id, false, nil
		}
		return 0, false, err
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("reading inserted id: %w", err)
	}
	return id, true, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Tx exposes the ensure operations bound to one transaction, so a
// logical ingestion phase commits as a single batch.
type Tx struct {
	tx *sql.Tx
}

// InTx runs fn inside a transaction; any error rolls the whole batch
// back so a failed phase never leaves a half-committed state.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&Tx{tx: sqlTx}); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// --- ensure operations ---
// Each is available both on Store (auto-commit) and Tx (batched).

func ensureInterestType(ctx context.Context, q querier, name string) (int64, bool, error) {
	return ensureID(ctx, q,
		`SELECT id FROM interest_types WHERE name = ?`,
		`INSERT INTO interest_types (name) VALUES (?)`,
		[]any{name}, []any{name})
}

func ensureTag(ctx context.Context, q querier, name string) (int64, bool, error) {
	return ensureID(ctx, q,
		`SELECT id FROM tags WHERE name = ?`,
		`INSERT INTO tags (name) VALUES (?)`,
		[]any{name}, []any{name})
}

func ensureInterest(ctx context.Context, q querier, description string, tagID int64) (int64, bool, error) {
	return ensureID(ctx, q,
		`SELECT id FROM interests WHERE description = ?`,
		`INSERT INTO interests (description, tag_id) VALUES (?, ?)`,
		[]any{description}, []any{description, tagID})
}

// ensurePerson keys on name. With overwrite false an existing row is
// left untouched ("first write wins"); with overwrite true the scalar
// fields are updated in place, but the row is never duplicated.
func ensurePerson(ctx context.Context, q querier, p Person, overwrite bool) (int64, bool, error) {
	id, created, err := ensureID(ctx, q,
		`SELECT id FROM people WHERE name = ?`,
		`INSERT INTO people (name, location, role_and_institution) VALUES (?, ?, ?)`,
		[]any{p.Name}, []any{p.Name, p.Location, p.RoleAndInstitution})
	if err != nil {
		return 0, false, err
	}
	if !created && overwrite {
		if _, err := q.ExecContext(ctx,
			`UPDATE people SET location = ?, role_and_institution = ? WHERE id = ?`,
			p.Location, p.RoleAndInstitution, id); err != nil {
			return 0, false, fmt.Errorf("updating person %q: %w", p.Name, err)
		}
	}
	return id, created, nil
}

// ensureAssociation upserts on the (person, interest, type) composite
// key. There is no surrogate id; created reports whether a row was
// inserted.
func ensureAssociation(ctx context.Context, q querier, a PersonInterest) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM person_interests WHERE person_id = ? AND interest_id = ? AND interest_type_id = ?`,
		a.PersonID, a.InterestID, a.InterestTypeID).Scan(&one)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, err
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO person_interests (person_id, interest_id, interest_type_id) VALUES (?, ?, ?)`,
		a.PersonID, a.InterestID, a.InterestTypeID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Store-level variants (auto-commit).

func (s *Store) EnsureInterestType(ctx context.Context, name string) (int64, bool, error) {
	return ensureInterestType(ctx, s.db, name)
}

func (s *Store) EnsureTag(ctx context.Context, name string) (int64, bool, error) {
	return ensureTag(ctx, s.db, name)
}

func (s *Store) EnsureInterest(ctx context.Context, description string, tagID int64) (int64, bool, error) {
	return ensureInterest(ctx, s.db, description, tagID)
}

func (s *Store) EnsurePerson(ctx context.Context, p Person, overwrite bool) (int64, bool, error) {
	return ensurePerson(ctx, s.db, p, overwrite)
}

func (s *Store) EnsureAssociation(ctx context.Context, a PersonInterest) (bool, error) {
	return ensureAssociation(ctx, s.db, a)
}

// Tx-level variants (committed with the phase batch).

func (t *Tx) EnsureInterestType(ctx context.Context, name string) (int64, bool, error) {
	return ensureInterestType(ctx, t.tx, name)
}

func (t *Tx) EnsureTag(ctx context.Context, name string) (int64, bool, error) {
	return ensureTag(ctx, t.tx, name)
}

func (t *Tx) EnsureInterest(ctx context.Context, description string, tagID int64) (int64, bool, error) {
	return ensureInterest(ctx, t.tx, description, tagID)
}

func (t *Tx) EnsurePerson(ctx context.Context, p Person, overwrite bool) (int64, bool, error) {
	return ensurePerson(ctx, t.tx, p, overwrite)
}

func (t *Tx) EnsureAssociation(ctx context.Context, a PersonInterest) (bool, error) {
	return ensureAssociation(ctx, t.tx, a)
}
