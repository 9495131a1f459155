// Package history records finished runs in a local SQLite database.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"vaultrunner/internal/interpreter"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous is returned by Get when a prefix matches more than one run.
	ErrAmbiguous = errors.New("ambiguous run id")
)

// Entry is one recorded run.
type Entry struct {
	ID         string    `json:"id"`
	Program    string    `json:"program"`
	Map        string    `json:"map"`
	SourceHash string    `json:"source_hash"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason"`
	Steps      int       `json:"steps"`
	AtExit     bool      `json:"at_exit"`
	Cause      string    `json:"cause,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEntry fills an entry from a finished run. ID and CreatedAt are set by
// Record.
func NewEntry(program, mapName, source string, out interpreter.Outcome) Entry {
	return Entry{
		Program:    program,
		Map:        mapName,
		SourceHash: HashSource(source),
		Status:     out.Status.String(),
		Reason:     string(out.Reason),
		Steps:      out.Steps,
		AtExit:     out.AtExit,
		Cause:      out.Cause,
	}
}

// HashSource returns the hex SHA-256 of a program's source.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Store is the run history database.
type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A second connection to ":memory:" would be a different database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return WrapDB(db), nil
}

// WrapDB builds a store around an already migrated connection.
func WrapDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now, newID: uuid.NewString}
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e, assigning a fresh id and timestamp.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	e.ID = s.newID()
	e.CreatedAt = s.now().UTC()

	atExit := 0
	if e.AtExit {
		atExit = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, program, map_name, source_hash, status, reason, steps, at_exit, cause, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Program, e.Map, e.SourceHash, e.Status, e.Reason, e.Steps, atExit, e.Cause,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record run: %w", err)
	}
	return e, nil
}

const selectColumns = `SELECT id, program, map_name, source_hash, status, reason, steps, at_exit, cause, created_at FROM runs`

// List returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return out, nil
}

// likeEscaper makes user input literal inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Get returns a run by id, or by a prefix that matches exactly one run. An
// exact id wins over longer ids sharing it as a prefix.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	if id == "" {
		return Entry{}, errors.New("run id must not be empty")
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC, id LIMIT 2`,
		id, likeEscaper.Replace(id)+"%", id)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to look up run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var found []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Entry{}, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, fmt.Errorf("failed to look up run: %w", err)
	}

	switch {
	case len(found) == 0:
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(found) == 1, found[0].ID == id:
		return found[0], nil
	default:
		return Entry{}, fmt.Errorf("%w: %s matches %s and %s", ErrAmbiguous, id, found[0].ID, found[1].ID)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e       Entry
		atExit  int
		created string
	)
	if err := sc.Scan(&e.ID, &e.Program, &e.Map, &e.SourceHash, &e.Status, &e.Reason, &e.Steps, &atExit, &e.Cause, &created); err != nil {
		return Entry{}, fmt.Errorf("failed to scan run: %w", err)
	}
	e.AtExit = atExit != 0
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Entry{}, fmt.Errorf("run %s has bad timestamp %q: %w", e.ID, created, err)
	}
	e.CreatedAt = t
	return e, nil
}
