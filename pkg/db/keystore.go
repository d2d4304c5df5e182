package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/yumyai/hlalocus/logger"
	"github.com/yumyai/hlalocus/pkg/locus"
	"go.uber.org/zap"
)

var ErrNoRun = errors.New("no locus key stored for source")

// Sortable, fixed width timestamps.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// KeyStore keeps locus keys in a database, one snapshot ("run") per Save.
// A DSN starting with postgres:// uses pgx, anything else is a sqlite file.
type KeyStore struct {
	db       *sql.DB
	postgres bool
}

func Open(dsn string) (*KeyStore, error) {
	ks := &KeyStore{}
	var err error
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		ks.postgres = true
		ks.db, err = sql.Open("pgx", dsn)
	} else {
		if dir := filepath.Dir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
		ks.db, err = sql.Open("sqlite", dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}

	if err := ks.ensureSchema(context.Background()); err != nil {
		ks.db.Close()
		return nil, err
	}
	return ks, nil
}

func (ks *KeyStore) Close() error {
	return ks.db.Close()
}

func (ks *KeyStore) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS locus_runs (
			run_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS locus_keys (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			seq_id TEXT NOT NULL,
			locus TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
	}
	for _, stmt := range ddl {
		if _, err := ks.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure keystore schema: %w", err)
		}
	}
	return nil
}

// Save stores a snapshot of a under source and returns the new run id.
func (ks *KeyStore) Save(ctx context.Context, source string, a *locus.Assignments) (string, error) {
	runID := uuid.NewString()

	tx, err := ks.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		ks.rebind(`INSERT INTO locus_runs (run_id, source, created_at) VALUES (?, ?, ?)`),
		runID, source, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stm, err := tx.PrepareContext(ctx, ks.rebind(`INSERT INTO locus_keys (run_id, position, seq_id, locus) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return "", err
	}
	defer stm.Close()

	position := 0
	for id, l := range a.All() {
		if _, err := stm.ExecContext(ctx, runID, position, id, l); err != nil {
			return "", fmt.Errorf("insert key %q: %w", id, err)
		}
		position++
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	logger.Info("Stored locus key", zap.String("source", source), zap.String("run_id", runID), zap.Int("entries", position))
	return runID, nil
}

// Load returns the latest snapshot stored under source. Entries go through
// Insert, so a store holding duplicate ids fails like a key file would.
func (ks *KeyStore) Load(ctx context.Context, source string) (*locus.Assignments, string, error) {
	var runID string
	err := ks.db.QueryRowContext(ctx,
		ks.rebind(`SELECT run_id FROM locus_runs WHERE source = ? ORDER BY created_at DESC LIMIT 1`),
		source).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("%w: %s", ErrNoRun, source)
	}
	if err != nil {
		return nil, "", err
	}

	rows, err := ks.db.QueryContext(ctx,
		ks.rebind(`SELECT seq_id, locus FROM locus_keys WHERE run_id = ? ORDER BY position`),
		runID)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	results := locus.NewAssignments()
	for rows.Next() {
		var id, l string
		if err := rows.Scan(&id, &l); err != nil {
			return nil, "", err
		}
		if err := results.Insert(id, l); err != nil {
			return nil, "", err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	return results, runID, nil
}

// rebind turns "?" placeholders into the $n form postgres expects.
func (ks *KeyStore) rebind(query string) string {
	if !ks.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
