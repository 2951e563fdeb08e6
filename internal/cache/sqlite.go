package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"RiskSentinel/internal/model"
)

// SQLiteStore keeps cached series in a SQLite file so restarts can reuse
// recent fetches. It is a cache, not a history: rows are replaced per key.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite cache opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_cache (
			cache_key TEXT PRIMARY KEY,
			symbol    TEXT NOT NULL,
			source    TEXT NOT NULL,
			stored_at INTEGER NOT NULL,
			points    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_cache_stored ON price_cache(stored_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	var (
		symbol, source, raw string
		storedAt            int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT symbol, source, stored_at, points FROM price_cache WHERE cache_key = ?`, key,
	).Scan(&symbol, &source, &storedAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query cache %s: %w", key, err)
	}

	var points []model.PricePoint
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return Entry{}, false, fmt.Errorf("decode cached points %s: %w", key, err)
	}
	return Entry{
		Series:   model.PriceSeries{Symbol: symbol, Source: source, Points: points},
		StoredAt: time.UnixMilli(storedAt),
	}, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, series model.PriceSeries) error {
	raw, err := json.Marshal(series.Points)
	if err != nil {
		return fmt.Errorf("encode points: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `INSERT INTO price_cache (cache_key, symbol, source, stored_at, points)
		VALUES (?,?,?,?,?)
		ON CONFLICT(cache_key) DO UPDATE SET
			symbol = excluded.symbol,
			source = excluded.source,
			stored_at = excluded.stored_at,
			points = excluded.points`,
		key, series.Symbol, series.Source, s.now().UnixMilli(), string(raw),
	)
	return err
}

func (s *SQLiteStore) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM price_cache WHERE stored_at < ?`, olderThan.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) Close() error {
	log.Info().Msg("closing sqlite cache")
	return s.db.Close()
}
