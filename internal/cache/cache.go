package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const lastSweepKey = "last_sweep"

// Cache is the durable store behind the edge: named response buckets, the
// local key/value space used for preferences, and a small meta table.
type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=query_only(1)&_time_format=sqlite")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS buckets (
			name       TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS entries (
			bucket    TEXT NOT NULL,
			url       TEXT NOT NULL,
			status    INTEGER NOT NULL,
			header    TEXT NOT NULL DEFAULT '{}',
			body      BLOB,
			stored_at DATETIME NOT NULL,
			PRIMARY KEY (bucket, url)
		);
		CREATE INDEX IF NOT EXISTS idx_entries_url ON entries(url);

		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	return errors.Join(errs...)
}

// OpenBucket creates the bucket if it does not exist yet.
func (c *Cache) OpenBucket(ctx context.Context, name string) error {
	_, err := c.writeDB.ExecContext(ctx,
		`INSERT INTO buckets (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("opening bucket %s: %w", name, err)
	}
	return nil
}

// Put stores e under its URL, replacing any previous entry. The bucket is
// created on first use.
func (c *Cache) Put(ctx context.Context, bucket string, e Entry) error {
	header, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now().UTC()
	}

	tx, err := c.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO buckets (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		bucket, time.Now().UTC()); err != nil {
		return fmt.Errorf("opening bucket %s: %w", bucket, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entries (bucket, url, status, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(bucket, url) DO UPDATE SET
			status = excluded.status,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at
	`, bucket, e.URL, e.Status, string(header), e.Body, e.StoredAt); err != nil {
		return fmt.Errorf("storing %s in %s: %w", e.URL, bucket, err)
	}
	return tx.Commit()
}

// Match looks up url in one bucket.
func (c *Cache) Match(ctx context.Context, bucket, url string) (Entry, bool, error) {
	row := c.readDB.QueryRowContext(ctx, `
		SELECT url, status, header, body, stored_at FROM entries
		WHERE bucket = ? AND url = ?
	`, bucket, url)
	return scanEntry(row)
}

// MatchAny looks up url across all buckets, oldest bucket first.
func (c *Cache) MatchAny(ctx context.Context, url string) (Entry, bool, error) {
	row := c.readDB.QueryRowContext(ctx, `
		SELECT e.url, e.status, e.header, e.body, e.stored_at
		FROM entries e JOIN buckets b ON b.name = e.bucket
		WHERE e.url = ?
		ORDER BY b.rowid
		LIMIT 1
	`, url)
	return scanEntry(row)
}

func scanEntry(row *sql.Row) (Entry, bool, error) {
	var (
		e      Entry
		header string
	)
	err := row.Scan(&e.URL, &e.Status, &header, &e.Body, &e.StoredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("scanning entry: %w", err)
	}
	e.Header = http.Header{}
	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return Entry{}, false, fmt.Errorf("decoding header for %s: %w", e.URL, err)
	}
	return e, true, nil
}

// DeleteBucket removes a bucket and its entries. It reports whether the
// bucket existed.
func (c *Cache) DeleteBucket(ctx context.Context, name string) (bool, error) {
	tx, err := c.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE bucket = ?`, name); err != nil {
		return false, fmt.Errorf("deleting entries of %s: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM buckets WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("deleting bucket %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

// Buckets lists bucket names in creation order.
func (c *Cache) Buckets(ctx context.Context) ([]string, error) {
	rows, err := c.readDB.QueryContext(ctx, `SELECT name FROM buckets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning bucket: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Stats summarises every bucket in creation order.
func (c *Cache) Stats(ctx context.Context) ([]BucketStats, error) {
	rows, err := c.readDB.QueryContext(ctx, `
		SELECT b.name, b.created_at, COUNT(e.url), COALESCE(SUM(LENGTH(e.body)), 0)
		FROM buckets b LEFT JOIN entries e ON e.bucket = b.name
		GROUP BY b.name
		ORDER BY b.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var stats []BucketStats
	for rows.Next() {
		var s BucketStats
		if err := rows.Scan(&s.Name, &s.CreatedAt, &s.Entries, &s.Bytes); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Prune deletes entries of bucket stored longer ago than maxAge.
func (c *Cache) Prune(ctx context.Context, bucket string, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := c.writeDB.ExecContext(ctx,
		`DELETE FROM entries WHERE bucket = ? AND stored_at < ?`, bucket, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning %s: %w", bucket, err)
	}
	return res.RowsAffected()
}

// NeedsSweep reports whether the last recorded sweep is older than interval.
func (c *Cache) NeedsSweep(interval time.Duration) bool {
	last, ok := c.LastSweep()
	if !ok {
		return true
	}
	return time.Since(last) > interval
}

// LastSweep returns the time recorded by SetLastSweep.
func (c *Cache) LastSweep() (time.Time, bool) {
	var value string
	err := c.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", lastSweepKey).Scan(&value)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (c *Cache) SetLastSweep() error {
	_, err := c.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastSweepKey, time.Now().Format(time.RFC3339))
	return err
}
