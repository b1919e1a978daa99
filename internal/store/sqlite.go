package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/export"
	"catalog-sync/internal/timezone"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const courseColumns = `id, title, department, center, teacher, start_date, end_date, capacity,
	duration_hours, days, min_price, max_price, course_url, cover, is_active, changed_at, updated_at`

// SQLiteStore keeps the snapshot in a single courses table. Timestamps use
// the same text layout as the CSV so both stores stay interchangeable.
type SQLiteStore struct {
	SQL   *sql.DB
	Path  string
	Clock timezone.Clock
}

func OpenSQLite(ctx context.Context, path string, clock timezone.Clock) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// one writer, one run
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctxPing, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	s := &SQLiteStore{SQL: db, Path: path, Clock: clock}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.SQL.Close()
}

func (s *SQLiteStore) Artifacts() []string {
	return []string{s.Path}
}

func (s *SQLiteStore) Load(ctx context.Context) (domain.Snapshot, error) {
	rows, err := s.SQL.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses`)
	if err != nil {
		return nil, fmt.Errorf("store: query courses: %w", err)
	}
	defer rows.Close()

	snap := domain.Snapshot{}
	for rows.Next() {
		var (
			rec    export.Record
			active int
		)
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Department, &rec.Center, &rec.Teacher,
			&rec.StartDate, &rec.EndDate, &rec.Capacity, &rec.DurationHours, &rec.Days,
			&rec.MinPrice, &rec.MaxPrice, &rec.CourseURL, &rec.Cover,
			&active, &rec.ChangedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan course: %w", err)
		}
		rec.IsActive = active != 0
		c, err := rec.Course(s.Clock)
		if err != nil {
			return nil, err
		}
		snap[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snap) == 0 {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Save replaces the table contents inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap domain.Snapshot) error {
	tx, err := s.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return fmt.Errorf("store: clear courses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO courses(`+courseColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range snap.Sorted() {
		rec := export.ToRecord(c, s.Clock)
		active := 0
		if rec.IsActive {
			active = 1
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Title, rec.Department, rec.Center, rec.Teacher,
			rec.StartDate, rec.EndDate, rec.Capacity, rec.DurationHours, rec.Days,
			rec.MinPrice, rec.MaxPrice, rec.CourseURL, rec.Cover,
			active, rec.ChangedAt, rec.UpdatedAt,
		); err != nil {
			return fmt.Errorf("store: insert %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.SQL.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);`); err != nil {
		return fmt.Errorf("store: migrations table: %w", err)
	}

	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return err
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	versions := make([]int, 0, len(entries))
	byVersion := map[int]string{}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		v, err := strconv.Atoi(strings.SplitN(name, "_", 2)[0])
		if err != nil {
			return fmt.Errorf("store: invalid migration name: %s", name)
		}
		versions = append(versions, v)
		byVersion[v] = name
	}
	sort.Ints(versions)

	for _, v := range versions {
		if applied[v] {
			continue
		}
		b, err := migrationsFS.ReadFile("migrations/" + byVersion[v])
		if err != nil {
			return err
		}
		up := upSection(string(b))
		if strings.TrimSpace(up) == "" {
			continue
		}

		tx, err := s.SQL.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("store: migration %s: %w", byVersion[v], err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)`, v, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.SQL.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}

// upSection returns the statements between "-- +migrate Up" and "-- +migrate Down".
func upSection(text string) string {
	var out []string
	inUp := false
	for _, line := range strings.Split(text, "\n") {
		trim := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trim, "-- +migrate Up"):
			inUp = true
		case strings.HasPrefix(trim, "-- +migrate Down"):
			inUp = false
		case inUp:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
