/*
Package catalog keeps a SQLite database of every sprite written by a
conversion: where it went, what it looks like and a compressed snapshot of
its pixels, so a file can later be checked against what was written. It
also holds the persistent counter used for incremental header hashes.
*/
package catalog

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bodgit/ghoul/sprite"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

const hashCounter = "hash"

var (
	// ErrNotFound is returned when no record exists for a path.
	ErrNotFound = errors.New("catalog: no record")
	// ErrMismatch is returned when a sprite differs from its record.
	ErrMismatch = errors.New("catalog: sprite does not match record")
)

// Entry is a single catalog record.
type Entry struct {
	Path     string
	Format   string
	Width    uint16
	Height   uint16
	BitDepth uint16
	Hash     uint16
	Checksum uint64
}

// Catalog is a handle on the database. It is safe for concurrent use.
type Catalog struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens, creating if necessary, the catalog in file.
func Open(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// Serialise writers from the batch workers
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS sprite (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, format TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, bit_depth INTEGER NOT NULL, hash INTEGER NOT NULL, checksum TEXT NOT NULL, pixels BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS counter (name TEXT PRIMARY KEY NOT NULL, value INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	c.dec.Close()
	if err := c.enc.Close(); err != nil {
		c.db.Close()
		return err
	}
	return c.db.Close()
}

// Checksum returns the checksum recorded for a set of pixels.
func Checksum(pixels []byte) uint64 {
	return xxhash.Sum64(pixels)
}

func formatChecksum(sum uint64) string {
	return fmt.Sprintf("%016X", sum)
}

// Record stores s as written to path in the given format, replacing any
// earlier record for the same path.
func (c *Catalog) Record(path, format string, s *sprite.Sprite, hash uint16) error {
	snapshot := c.enc.EncodeAll(s.Pixels, nil)
	if _, err := c.db.Exec("INSERT OR REPLACE INTO sprite (path, format, width, height, bit_depth, hash, checksum, pixels) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", path, format, s.Width, s.Height, s.BitDepth, hash, formatChecksum(Checksum(s.Pixels)), snapshot); err != nil {
		return err
	}
	return nil
}

// Lookup returns the record for path, or nil if there isn't one.
func (c *Catalog) Lookup(path string) (*Entry, error) {
	var e Entry
	var sum string
	switch err := c.db.QueryRow("SELECT path, format, width, height, bit_depth, hash, checksum FROM sprite WHERE path = ?", path).Scan(&e.Path, &e.Format, &e.Width, &e.Height, &e.BitDepth, &e.Hash, &sum); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		if _, err := fmt.Sscanf(sum, "%X", &e.Checksum); err != nil {
			return nil, err
		}
		return &e, nil
	default:
		return nil, err
	}
}

// Snapshot returns the pixels recorded for path.
func (c *Catalog) Snapshot(path string) ([]byte, error) {
	var blob []byte
	switch err := c.db.QueryRow("SELECT pixels FROM sprite WHERE path = ?", path).Scan(&blob); err {
	case sql.ErrNoRows:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case nil:
		return c.dec.DecodeAll(blob, nil)
	default:
		return nil, err
	}
}

// Verify checks s, freshly decoded from path, against its record.
func (c *Catalog) Verify(path string, s *sprite.Sprite) error {
	e, err := c.Lookup(path)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if e.Width != s.Width || e.Height != s.Height {
		return fmt.Errorf("%w: dimensions %dx%d, recorded %dx%d", ErrMismatch, s.Width, s.Height, e.Width, e.Height)
	}
	if e.BitDepth != s.BitDepth {
		return fmt.Errorf("%w: bit depth %d, recorded %d", ErrMismatch, s.BitDepth, e.BitDepth)
	}
	if sum := Checksum(s.Pixels); sum != e.Checksum {
		return fmt.Errorf("%w: checksum %s, recorded %s", ErrMismatch, formatChecksum(sum), formatChecksum(e.Checksum))
	}

	pixels, err := c.Snapshot(path)
	if err != nil {
		return err
	}
	if !bytes.Equal(pixels, s.Pixels) {
		return fmt.Errorf("%w: pixels differ", ErrMismatch)
	}
	return nil
}

// NextHash returns the next value of the persistent hash counter and
// advances it. The first call on a new catalog returns start.
func (c *Catalog) NextHash(start uint16) (uint16, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var value int64
	switch err := tx.QueryRow("SELECT value FROM counter WHERE name = ?", hashCounter).Scan(&value); err {
	case sql.ErrNoRows:
		value = int64(start)
	case nil:
	default:
		return 0, err
	}

	if _, err := tx.Exec("INSERT OR REPLACE INTO counter (name, value) VALUES (?, ?)", hashCounter, (value+1)&0xffff); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint16(value), nil
}
