package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/ZaguanLabs/rpgtl"
	_ "github.com/mattn/go-sqlite3"
)

const createTranslationsSQL = `CREATE TABLE IF NOT EXISTS translations (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	created_at INTEGER NOT NULL
);`

// SQLiteCache persists translations in a local SQLite file so that
// repeated runs over the same game reuse earlier work.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteCache opens (creating if needed) the database at path. If
// ttlSeconds is 0 or negative, entries never expire.
func NewSQLiteCache(path string, ttlSeconds int) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &rpgtl.CacheError{Message: "open sqlite database", Cause: err}
	}
	// One connection serialises writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTranslationsSQL); err != nil {
		_ = db.Close()
		return nil, &rpgtl.CacheError{Message: "create translations table", Cause: err}
	}

	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &SQLiteCache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *SQLiteCache) expired(createdAt int64, now time.Time) bool {
	return c.ttl > 0 && now.Sub(time.Unix(0, createdAt)) > c.ttl
}

// Get returns the cached translation for key. Query errors count as a miss.
func (c *SQLiteCache) Get(key string) (string, bool) {
	var (
		value     string
		createdAt int64
	)
	err := c.db.QueryRow(`SELECT value, created_at FROM translations WHERE key = ?`, key).Scan(&value, &createdAt)
	if err != nil {
		return "", false
	}

	if c.expired(createdAt, c.now()) {
		_, _ = c.db.Exec(`DELETE FROM translations WHERE key = ? AND created_at = ?`, key, createdAt)
		return "", false
	}
	return value, true
}

// Set stores a translation, replacing any previous row for key.
func (c *SQLiteCache) Set(key string, value string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO translations(key, value, created_at) VALUES(?, ?, ?)`,
		key, value, c.now().UnixNano(),
	)
	if err != nil {
		return &rpgtl.CacheError{Message: "sqlite insert failed", Cause: err}
	}
	return nil
}

// Len returns the number of stored rows, including expired ones.
func (c *SQLiteCache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM translations`).Scan(&n); err != nil {
		return 0, &rpgtl.CacheError{Message: "sqlite count failed", Cause: err}
	}
	return n, nil
}

// Entries returns every live row.
func (c *SQLiteCache) Entries(ctx context.Context) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT key, value, created_at FROM translations`)
	if err != nil {
		return nil, &rpgtl.CacheError{Message: "sqlite query failed", Cause: err}
	}
	defer rows.Close()

	now := c.now()
	out := make(map[string]string)
	for rows.Next() {
		var (
			key, value string
			createdAt  int64
		)
		if err := rows.Scan(&key, &value, &createdAt); err != nil {
			return nil, &rpgtl.CacheError{Message: "sqlite scan failed", Cause: err}
		}
		if !c.expired(createdAt, now) {
			out[key] = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &rpgtl.CacheError{Message: "sqlite query failed", Cause: err}
	}
	return out, nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

var (
	_ TranslationCache = (*SQLiteCache)(nil)
	_ Lister           = (*SQLiteCache)(nil)
)
