package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GetPerson looks a person up by name.
func (s *Store) GetPerson(ctx context.Context, name string) (Person, error) {
	var p Person
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, location, role_and_institution FROM people WHERE name = ?`, name,
	).Scan(&p.ID, &p.Name, &p.Location, &p.RoleAndInstitution)
	if err == sql.ErrNoRows {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, err
	}
	return p, nil
}

// ListPeople returns people ordered by name, up to limit.
func (s *Store) ListPeople(ctx context.Context, limit int) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, location, role_and_institution FROM people ORDER BY name LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Location, &p.RoleAndInstitution); err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// ListTags returns the canonical tag vocabulary ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	return s.stringColumn(ctx, `SELECT name FROM tags ORDER BY name`)
}

// InterestsOfPerson returns the raw interest strings a person listed,
// across all interest types, ordered.
func (s *Store) InterestsOfPerson(ctx context.Context, name string) ([]string, error) {
	if _, err := s.GetPerson(ctx, name); err != nil {
		return nil, err
	}
	return s.stringColumn(ctx, `
		SELECT DISTINCT i.description
		FROM interests i
		JOIN person_interests pi ON pi.interest_id = i.id
		JOIN people p ON p.id = pi.person_id
		WHERE p.name = ?
		ORDER BY i.description`, name)
}

// TagsOfPerson returns the distinct canonical tags behind a person's
// interests, ordered.
func (s *Store) TagsOfPerson(ctx context.Context, name string) ([]string, error) {
	if _, err := s.GetPerson(ctx, name); err != nil {
		return nil, err
	}
	return s.stringColumn(ctx, `
		SELECT DISTINCT t.name
		FROM tags t
		JOIN interests i ON i.tag_id = t.id
		JOIN person_interests pi ON pi.interest_id = i.id
		JOIN people p ON p.id = pi.person_id
		WHERE p.name = ?
		ORDER BY t.name`, name)
}

// PeopleWithTag returns the names of people holding at least one
// interest resolving to the given canonical tag, ordered.
func (s *Store) PeopleWithTag(ctx context.Context, tag string) ([]string, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, tag).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.stringColumn(ctx, `
		SELECT DISTINCT p.name
		FROM people p
		JOIN person_interests pi ON pi.person_id = p.id
		JOIN interests i ON i.id = pi.interest_id
		WHERE i.tag_id = ?
		ORDER BY p.name`, id)
}

// Counts reports table sizes for the stats surface.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	queries := []struct {
		sql  string
		dest *int
	}{
		{`SELECT COUNT(*) FROM people`, &c.People},
		{`SELECT COUNT(*) FROM tags`, &c.Tags},
		{`SELECT COUNT(*) FROM interests`, &c.Interests},
		{`SELECT COUNT(*) FROM person_interests`, &c.Associations},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return Counts{}, fmt.Errorf("counting rows: %w", err)
		}
	}
	return c, nil
}

func (s *Store) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- pipeline run bookkeeping ---

// BeginRun records the start of a pipeline stage and returns the run id.
func (s *Store) BeginRun(ctx context.Context, stage string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, stage, status, started_at) VALUES (?, ?, 'running', ?)`,
		id, stage, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("recording run start: %w", err)
	}
	return id, nil
}

// FinishRun marks a run finished with the given status and detail.
func (s *Store) FinishRun(ctx context.Context, id, status, detail string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = ?, detail = ?, finished_at = ? WHERE id = ?`,
		status, detail, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecentRuns returns the latest pipeline runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stage, status, detail, started_at, COALESCE(finished_at, '')
		FROM pipeline_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Stage, &r.Status, &r.Detail, &started, &finished); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if finished != "" {
			if r.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
				return nil, fmt.Errorf("parsing finished_at: %w", err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
