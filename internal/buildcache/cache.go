// Package buildcache implements the persistent, content-addressed cache
// of §3 Domain Stack: a per-declaration record of a compiled impl.Entry,
// keyed by Key, so a later Run (internal/driver) can skip re-optimizing
// a declaration whose source and dependencies have not changed. It is
// additive on the read side: GetEntry reports any read or decode failure
// as a miss, mirroring the teacher's own ext.Cache, which falls back to a
// fresh build whenever LookupHostBinary comes back empty. Open, Get and
// Put return their errors, and PutEntry returns Put's (it skips only an
// entry the codec cannot represent).
package buildcache

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/nbecore/optcore/internal/impl"
)

// Cache wraps a sqlite database of cached impl.Entry records.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache database at path. Pass
// ":memory:" for a process-local cache with no disk footprint, the same
// convention modernc.org/sqlite itself documents.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("buildcache: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite connections are not safe to share across goroutines

	const schema = `
CREATE TABLE IF NOT EXISTS records (
	key     TEXT PRIMARY KEY,
	payload BLOB NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("buildcache: creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the raw payload stored under key, if any. A missing row
// is reported as (nil, false, nil), never an error: the caller's only
// recourse on a miss is to recompute, so there is nothing an error
// return would let it do differently.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT payload FROM records WHERE key = ?`, key)
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("buildcache: reading %s: %w", key, err)
	}
	return payload, true, nil
}

// Put stores payload under key, overwriting any existing record (a
// cache key is a pure function of its inputs, so an overwrite can only
// ever replace a record with an identical one).
func (c *Cache) Put(ctx context.Context, key string, payload []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO records (key, payload) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		key, payload)
	if err != nil {
		return fmt.Errorf("buildcache: writing %s: %w", key, err)
	}
	return nil
}

// GetEntry is Get composed with DecodeEntry. A row that fails to decode
// (e.g. written by an older, incompatible codec) is treated as a miss
// rather than propagated as an error, consistent with the package's
// purely-additive contract; the caller simply recompiles the
// declaration and Put overwrites the stale row on the next call.
func (c *Cache) GetEntry(ctx context.Context, key string) (impl.Entry, bool) {
	payload, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return impl.Entry{}, false
	}
	entry, err := DecodeEntry(payload)
	if err != nil {
		return impl.Entry{}, false
	}
	return entry, true
}

// PutEntry is EncodeEntry composed with Put. An entry this codec cannot
// represent (ErrUnsupportedNode) is silently dropped: the next Run will
// simply recompile decl from scratch, exactly as if PutEntry had never
// been called.
func (c *Cache) PutEntry(ctx context.Context, key string, entry impl.Entry) error {
	payload, err := EncodeEntry(entry)
	if err != nil {
		return nil
	}
	return c.Put(ctx, key, payload)
}
