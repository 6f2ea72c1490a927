// Package ledger records provision outcomes in SQLite so the caller can
// honor the "return what you built so far" contract across CLI invocations:
// partial failures stay inspectable until they are cleaned up, retried, or
// forgotten.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/jasonlam510/Learnerator/internal/provision"
)

// ErrNotFound means no ledger entry exists for the id.
var ErrNotFound = errors.New("ledger entry not found")

// ResourceRow pairs one requested ref with the handle it produced, if any.
// Handle is empty for refs the provisioner never reached.
type ResourceRow struct {
	Index  int    `json:"index"`
	Ref    string `json:"ref"`
	Handle string `json:"handle,omitempty"`
}

// Entry is one recorded provision call.
type Entry struct {
	ID            string            `json:"id"`
	GroupName     string            `json:"group_name"`
	GroupHandle   string            `json:"group_handle,omitempty"`
	Outcome       provision.Outcome `json:"outcome"`
	FailureReason string            `json:"failure_reason,omitempty"`
	ResourceCount int               `json:"resource_count"`
	CreatedAt     time.Time         `json:"created_at"`
	Resources     []ResourceRow     `json:"resources,omitempty"`
}

// Store is the SQLite-backed provision ledger.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	log  *zap.Logger
}

// Open initializes the ledger database at the given path. Use ":memory:"
// for an ephemeral store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("set sqlite busy_timeout failed", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("set sqlite journal_mode=WAL failed", zap.Error(err))
	}

	s := &Store{db: db, path: path, log: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS provision_groups (
		id TEXT PRIMARY KEY,
		group_name TEXT NOT NULL,
		group_handle TEXT,
		outcome TEXT NOT NULL,
		failure_reason TEXT,
		resource_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS provision_resources (
		group_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		ref TEXT NOT NULL,
		handle TEXT,
		PRIMARY KEY (group_id, idx)
	);
	CREATE INDEX IF NOT EXISTS idx_groups_outcome ON provision_groups(outcome);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Record stores one provision call's request and outcome, returning the
// ledger id. Handles align with the leading refs; refs past the failure
// point are stored without a handle.
func (s *Store) Record(ctx context.Context, req provision.Request, res *provision.Result) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO provision_groups (id, group_name, group_handle, outcome, failure_reason, resource_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, req.GroupName, res.GroupHandle, string(res.Outcome), res.FailureReason, res.ResourceCount)
	if err != nil {
		return "", fmt.Errorf("insert group: %w", err)
	}

	for i, ref := range req.ResourceRefs {
		handle := ""
		if i < len(res.ResourceHandles) {
			handle = res.ResourceHandles[i]
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO provision_resources (group_id, idx, ref, handle) VALUES (?, ?, ?, ?)`,
			id, i, ref, handle); err != nil {
			return "", fmt.Errorf("insert resource %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	s.log.Debug("provision recorded",
		zap.String("id", id),
		zap.String("outcome", string(res.Outcome)))
	return id, nil
}

// Get returns one entry with its resource rows.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_name, group_handle, outcome, failure_reason, resource_count, created_at
		 FROM provision_groups WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, ref, handle FROM provision_resources WHERE group_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r ResourceRow
		var handle sql.NullString
		if err := rows.Scan(&r.Index, &r.Ref, &handle); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		r.Handle = handle.String
		entry.Resources = append(entry.Resources, r)
	}
	return entry, rows.Err()
}

// List returns the most recent entries, newest first. A limit <= 0 means
// everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, group_name, group_handle, outcome, failure_reason, resource_count, created_at
		 FROM provision_groups ORDER BY created_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.listQuery(ctx, query, args...)
}

// Partials returns entries whose outcome left side effects behind without a
// full success: the ones worth cleaning up or retrying.
func (s *Store) Partials(ctx context.Context) ([]Entry, error) {
	return s.listQuery(ctx,
		`SELECT id, group_name, group_handle, outcome, failure_reason, resource_count, created_at
		 FROM provision_groups
		 WHERE outcome IN (?, ?, ?)
		 ORDER BY created_at DESC, id`,
		string(provision.OutcomeResourceCreationFailure),
		string(provision.OutcomeGroupingFailure),
		string(provision.OutcomeTitlingFailure))
}

// Delete forgets one entry and its resource rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM provision_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM provision_resources WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("delete resources: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) listQuery(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var outcome string
	var groupHandle, failureReason sql.NullString
	if err := row.Scan(&e.ID, &e.GroupName, &groupHandle, &outcome, &failureReason, &e.ResourceCount, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan group: %w", err)
	}
	e.GroupHandle = groupHandle.String
	e.Outcome = provision.Outcome(outcome)
	e.FailureReason = failureReason.String
	return &e, nil
}
