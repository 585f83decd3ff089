package fs

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"
)

// Fingerprint hashes source text into the key CompiledCache uses to
// detect a changed partial on disk, so a Provider backed by a mutable
// filesystem doesn't need its own change-tracking scheme.
func Fingerprint(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// CompiledCache persists compiled-partial bytecode across process
// restarts, keyed by partial name and a caller-supplied content
// fingerprint (so a changed template on disk invalidates its cached
// entry without the cache needing to understand IL itself — the
// render pipeline is the one that knows how to encode/decode a
// *il.Program, keeping this package free of a dependency on internal/il).
type CompiledCache struct {
	db *sql.DB
}

// OpenCompiledCache opens (creating if necessary) a SQLite-backed cache
// at path. Pass ":memory:" for a process-local, non-persistent cache.
func OpenCompiledCache(path string) (*CompiledCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("fs: opening compiled cache: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS compiled_templates (
	name        TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	bytecode    BLOB NOT NULL,
	PRIMARY KEY (name, fingerprint)
)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("fs: initializing compiled cache schema: %w", err)
	}
	return &CompiledCache{db: db}, nil
}

func (c *CompiledCache) Close() error { return c.db.Close() }

// Get returns the cached bytecode for (name, fingerprint), or ok=false
// on a miss.
func (c *CompiledCache) Get(name, fingerprint string) (bytecode []byte, ok bool, err error) {
	row := c.db.QueryRow(
		`SELECT bytecode FROM compiled_templates WHERE name = ? AND fingerprint = ?`,
		name, fingerprint)
	if err := row.Scan(&bytecode); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("fs: reading compiled cache entry %q: %w", name, err)
	}
	return bytecode, true, nil
}

// Put stores bytecode for (name, fingerprint), replacing any entry
// under a stale fingerprint for the same name.
func (c *CompiledCache) Put(name, fingerprint string, bytecode []byte) error {
	if _, err := c.db.Exec(`DELETE FROM compiled_templates WHERE name = ? AND fingerprint != ?`, name, fingerprint); err != nil {
		return fmt.Errorf("fs: evicting stale compiled cache entries for %q: %w", name, err)
	}
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO compiled_templates (name, fingerprint, bytecode) VALUES (?, ?, ?)`,
		name, fingerprint, bytecode)
	if err != nil {
		return fmt.Errorf("fs: writing compiled cache entry %q: %w", name, err)
	}
	return nil
}
