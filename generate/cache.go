package generate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Cache keeps successful generation responses so the same source is not sent
// to the service twice. Connection is guarded, cache could be shared by
// concurrent runs.
type Cache struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

const cacheSchema = `CREATE TABLE IF NOT EXISTS responses (
	key     TEXT PRIMARY KEY,
	created INTEGER NOT NULL,
	body    BLOB NOT NULL
)`

// OpenCache opens (creating when necessary) cache database. Use ":memory:"
// for a cache which lives as long as the process.
func OpenCache(path string) (*Cache, error) {
	flags := []sqlite.OpenFlags{sqlite.OpenReadWrite, sqlite.OpenCreate}
	if path == ":memory:" {
		flags = append(flags, sqlite.OpenMemory)
	} else {
		flags = append(flags, sqlite.OpenWAL)
	}
	conn, err := sqlite.OpenConn(path, flags...)
	if err != nil {
		return nil, fmt.Errorf("open response cache: %w", err)
	}
	if err := sqlitex.ExecuteTransient(conn, cacheSchema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prepare response cache: %w", err)
	}
	return &Cache{conn: conn}, nil
}

// Key identifies request to a particular endpoint.
func Key(endpoint string, req Request) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(endpoint+"\n"), data...))
	return hex.EncodeToString(sum[:])
}

// Get returns cached response body if any.
func (c *Cache) Get(key string) (body []byte, found bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err = sqlitex.Execute(c.conn, `SELECT body FROM responses WHERE key = ?`,
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				body, err = io.ReadAll(stmt.ColumnReader(0))
				return err
			},
		})
	if err != nil {
		return nil, false, fmt.Errorf("read response cache: %w", err)
	}
	return body, found, nil
}

// Put stores response body replacing previous one.
func (c *Cache) Put(key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := sqlitex.Execute(c.conn, `INSERT OR REPLACE INTO responses (key, created, body) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{key, time.Now().Unix(), body}})
	if err != nil {
		return fmt.Errorf("write response cache: %w", err)
	}
	return nil
}

// Len returns number of cached responses.
func (c *Cache) Len() (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	err = sqlitex.Execute(c.conn, `SELECT count(*) FROM responses`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			n = stmt.ColumnInt(0)
			return nil
		}})
	return n, err
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
