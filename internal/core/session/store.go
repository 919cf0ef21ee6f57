package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charleschow/bankroll-calc/internal/core/staking"
	"github.com/charleschow/bankroll-calc/internal/telemetry"

	_ "modernc.org/sqlite"
)

const (
	evictPct       float64 = 0.10 // evict oldest 10% of rows
	vacuumInterval         = 10   // incremental vacuum every N evictions
	sizeCheckEvery         = 100  // writes between size checks

	// fixed-width so that ORDER BY updated sorts chronologically
	tsLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned for an unknown session ID.
var ErrNotFound = errors.New("session not found")

// Session is a staking plan plus the bookkeeping needed to resume it.
type Session struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Plan      *staking.Plan `json:"plan"`
}

// Store persists sessions in a SQLite database capped at maxBytes. Once the
// budget is exceeded the least recently updated 10% of sessions are evicted.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	maxBytes     int64
	cachedSize   int64
	writes       int64
	evictCounter int
}

func OpenStore(path string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`PRAGMA auto_vacuum = INCREMENTAL`,
		`CREATE TABLE IF NOT EXISTS staking_sessions (
			id           TEXT PRIMARY KEY,
			created      TEXT NOT NULL,
			updated      TEXT NOT NULL,
			bankroll     REAL,
			balance      REAL,
			cursor       INTEGER,
			steps        INTEGER,
			termination  TEXT,
			plan         BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ss_updated ON staking_sessions(updated)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema (%s): %w", stmt, err)
		}
	}

	s := &Store{db: db, maxBytes: maxBytes}
	s.refreshSize()

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM staking_sessions`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("read row count: %w", err)
	}

	telemetry.Infof("Started session db  path=%s  db_bytes=%d  sessions=%d", path, s.cachedSize, count)
	return s, nil
}

// Save inserts or replaces a session.
func (s *Store) Save(sess Session) error {
	plan, err := json.Marshal(sess.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan %s: %w", sess.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO staking_sessions (id, created, updated, bankroll, balance, cursor, steps, termination, plan)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			updated     = excluded.updated,
			balance     = excluded.balance,
			cursor      = excluded.cursor,
			steps       = excluded.steps,
			termination = excluded.termination,
			plan        = excluded.plan`,
		sess.ID,
		sess.CreatedAt.UTC().Format(tsLayout),
		sess.UpdatedAt.UTC().Format(tsLayout),
		sess.Plan.Config.InitialBankroll,
		sess.Plan.Balance,
		sess.Plan.Cursor,
		len(sess.Plan.Steps),
		string(sess.Plan.Termination),
		plan,
	)
	if err != nil {
		return fmt.Errorf("session save %s: %w", sess.ID, err)
	}

	s.writes++
	if s.maxBytes > 0 && s.writes%sizeCheckEvery == 0 {
		s.refreshSize()
		if s.cachedSize > s.maxBytes {
			s.evict()
		}
	}
	return nil
}

// Load returns a stored session or ErrNotFound.
func (s *Store) Load(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, created, updated, plan FROM staking_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("session load %s: %w", id, err)
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown ID returns ErrNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM staking_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Recent returns up to n sessions, most recently updated first.
func (s *Store) Recent(n int) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, created, updated, plan FROM staking_sessions ORDER BY updated DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("session recent: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (Session, error) {
	var (
		sess             Session
		created, updated string
		plan             []byte
	)
	if err := sc.Scan(&sess.ID, &created, &updated, &plan); err != nil {
		return Session{}, err
	}
	var err error
	if sess.CreatedAt, err = time.Parse(tsLayout, created); err != nil {
		return Session{}, fmt.Errorf("parse created %s: %w", sess.ID, err)
	}
	if sess.UpdatedAt, err = time.Parse(tsLayout, updated); err != nil {
		return Session{}, fmt.Errorf("parse updated %s: %w", sess.ID, err)
	}
	sess.Plan = &staking.Plan{}
	if err := json.Unmarshal(plan, sess.Plan); err != nil {
		return Session{}, fmt.Errorf("unmarshal plan %s: %w", sess.ID, err)
	}
	return sess, nil
}

// refreshSize re-reads the database file size from SQLite pragmas.
// Must be called with s.mu held (or before the store is shared).
func (s *Store) refreshSize() {
	var size int64
	row := s.db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`)
	if err := row.Scan(&size); err == nil {
		s.cachedSize = size
	}
}

// evict deletes the least recently updated 10% of sessions.
// Must be called with s.mu held.
func (s *Store) evict() {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM staking_sessions`).Scan(&count); err != nil {
		telemetry.Warnf("session evict count: %v", err)
		return
	}
	toDelete := int64(float64(count) * evictPct)
	if toDelete < 1 {
		toDelete = 1
	}

	res, err := s.db.Exec(
		`DELETE FROM staking_sessions WHERE id IN (
			SELECT id FROM staking_sessions ORDER BY updated ASC LIMIT ?
		)`, toDelete,
	)
	if err != nil {
		telemetry.Warnf("session evict: %v", err)
		return
	}

	deleted, _ := res.RowsAffected()
	s.evictCounter++
	telemetry.Infof("session store: evicted %d sessions (target %d)", deleted, toDelete)

	if s.evictCounter%vacuumInterval == 0 {
		s.db.Exec(`PRAGMA incremental_vacuum`)
	}

	s.refreshSize()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
