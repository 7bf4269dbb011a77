package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ecampos-dev/epinet/pkg/postgres"
)

// PostgresStore persists attendance facts and class metadata in PostgreSQL.
//
// It requires the following tables:
//
//	CREATE TABLE classes (
//	    id             TEXT PRIMARY KEY,
//	    duration_hours DOUBLE PRECISION NOT NULL
//	);
//	CREATE TABLE attendance_facts (
//	    student_id TEXT NOT NULL,
//	    class_id   TEXT NOT NULL REFERENCES classes(id),
//	    day        TEXT NOT NULL,
//	    present    BOOLEAN NOT NULL,
//	    PRIMARY KEY (student_id, class_id, day)
//	);
//	CREATE TABLE dataset_version (
//	    id      INT PRIMARY KEY CHECK (id = 1),
//	    version BIGINT NOT NULL
//	);
//	INSERT INTO dataset_version (id, version) VALUES (1, 0);
type PostgresStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewPostgresStore creates a store backed by the given PostgreSQL client.
func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: slog.Default().With("component", "attendance-store"),
	}
}

func (s *PostgresStore) StudentIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT DISTINCT student_id FROM attendance_facts ORDER BY student_id`)
	if err != nil {
		return nil, fmt.Errorf("querying student ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning student id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) Days(ctx context.Context) ([]string, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT DISTINCT day FROM attendance_facts ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("querying days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scanning day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (s *PostgresStore) FactsForDay(ctx context.Context, day string) ([]Fact, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT student_id, class_id, day, present
		   FROM attendance_facts
		  WHERE day = $1
		  ORDER BY class_id, student_id`, day)
	if err != nil {
		return nil, fmt.Errorf("querying facts for day %s: %w", day, err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.StudentID, &f.ClassID, &f.Day, &f.Present); err != nil {
			return nil, fmt.Errorf("scanning fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func (s *PostgresStore) Classes(ctx context.Context) (map[string]Class, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, duration_hours FROM classes`)
	if err != nil {
		return nil, fmt.Errorf("querying classes: %w", err)
	}
	defer rows.Close()

	classes := make(map[string]Class)
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.DurationHours); err != nil {
			return nil, fmt.Errorf("scanning class: %w", err)
		}
		classes[c.ID] = c
	}
	return classes, rows.Err()
}

func (s *PostgresStore) UpsertFact(ctx context.Context, fact Fact) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO attendance_facts (student_id, class_id, day, present)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (student_id, class_id, day)
			 DO UPDATE SET present = EXCLUDED.present`,
			fact.StudentID, fact.ClassID, fact.Day, fact.Present,
		)
		if err != nil {
			return fmt.Errorf("upserting fact: %w", err)
		}
		return bumpVersion(ctx, tx)
	})
}

func (s *PostgresStore) UpsertClass(ctx context.Context, class Class) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO classes (id, duration_hours)
			 VALUES ($1, $2)
			 ON CONFLICT (id)
			 DO UPDATE SET duration_hours = EXCLUDED.duration_hours`,
			class.ID, class.DurationHours,
		)
		if err != nil {
			return fmt.Errorf("upserting class: %w", err)
		}
		return bumpVersion(ctx, tx)
	})
}

func (s *PostgresStore) Version(ctx context.Context) (int64, error) {
	var version int64
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT version FROM dataset_version WHERE id = 1`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("querying dataset version: %w", err)
	}
	return version, nil
}

func bumpVersion(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE dataset_version SET version = version + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bumping dataset version: %w", err)
	}
	return nil
}
