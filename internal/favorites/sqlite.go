package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key     TEXT PRIMARY KEY,
	value   BLOB NOT NULL,
	version INTEGER NOT NULL DEFAULT 1
)`

// SQLiteBackend stores values in a SQLite file. Every write bumps a per-key
// version; Watch polls the versions to notice writes by other processes.
type SQLiteBackend struct {
	db       *sql.DB
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	lastSeen map[string]int64
}

// OpenSQLite opens (and creates if needed) the database at path.
// pollInterval <= 0 uses 2 seconds.
func OpenSQLite(path string, pollInterval time.Duration, logger *zap.Logger) (*SQLiteBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteBackend{
		db:       db,
		interval: pollInterval,
		logger:   logger,
		lastSeen: make(map[string]int64),
	}, nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, value []byte) error {
	var version int64
	err := b.db.QueryRowContext(ctx, `
		INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1
		RETURNING version`, key, value).Scan(&version)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.lastSeen[key] = version
	b.mu.Unlock()
	return nil
}

// poll reports every key whose version moved since this backend last wrote
// or saw it.
func (b *SQLiteBackend) poll(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key, version FROM kv`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changed []string
	b.mu.Lock()
	defer b.mu.Unlock()
	for rows.Next() {
		var (
			key     string
			version int64
		)
		if err := rows.Scan(&key, &version); err != nil {
			return nil, err
		}
		if seen, ok := b.lastSeen[key]; !ok || seen != version {
			b.lastSeen[key] = version
			changed = append(changed, key)
		}
	}
	return changed, rows.Err()
}

// Watch runs the version poll on a gocron job until ctx is done.
func (b *SQLiteBackend) Watch(ctx context.Context, fn func(key string)) error {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	_, err := s.Every(b.interval).Do(func() {
		changed, err := b.poll(ctx)
		if err != nil {
			if ctx.Err() == nil {
				b.logger.Warn("favorites poll failed", zap.Error(err))
			}
			return
		}
		for _, key := range changed {
			fn(key)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling favorites poll: %w", err)
	}

	s.StartAsync()
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
