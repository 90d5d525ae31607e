package corpus

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// snapshotMagic opens every snapshot file; the byte after it is the version.
const (
	snapshotMagic   = "MOCWSNAP"
	snapshotVersion = 1
)

// Snapshot is the portable form of a whole corpus. Grams[0] holds the
// 2-grams, Grams[3] the 5-grams.
type Snapshot struct {
	Words []Word               `msgpack:"w"`
	Grams [MaxOrder - 1][]Gram `msgpack:"g"`
}

// order returns the k-grams of the given order (2..5).
func (s *Snapshot) order(k int) []Gram {
	return s.Grams[k-2]
}

// WriteSnapshot encodes snap to w.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	if _, err := io.WriteString(w, snapshotMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{snapshotVersion}); err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(snap)
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	head := make([]byte, len(snapshotMagic)+1)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("%w: read snapshot header: %v", ErrMalformed, err)
	}
	if !bytes.Equal(head[:len(snapshotMagic)], []byte(snapshotMagic)) {
		return nil, fmt.Errorf("%w: not a snapshot", ErrMalformed)
	}
	if v := head[len(snapshotMagic)]; v != snapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d, want %d", ErrMalformed, v, snapshotVersion)
	}
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrMalformed, err)
	}
	return &snap, nil
}

// SaveSnapshot writes snap to a file at path.
func SaveSnapshot(path string, snap *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := WriteSnapshot(bw, snap); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	snap, err := ReadSnapshot(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Debugf("Loaded snapshot %s: %d words", path, len(snap.Words))
	return snap, nil
}

// Snapshot dumps the whole store in id order.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	rows, err := s.db.QueryContext(ctx, `SELECT id, word FROM one_grams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", tables[1], err)
	}
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Text); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan %s: %v", ErrMalformed, tables[1], err)
		}
		snap.Words = append(snap.Words, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for k := 2; k <= MaxOrder; k++ {
		q := fmt.Sprintf(`SELECT id, prefix, suffix FROM %s ORDER BY id`, tables[k])
		grams, err := dumpGrams(ctx, s.db, q)
		if err != nil {
			return nil, fmt.Errorf("dump %s: %w", tables[k], err)
		}
		snap.Grams[k-2] = grams
	}
	return snap, nil
}

func dumpGrams(ctx context.Context, db *sql.DB, query string) ([]Gram, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Gram
	for rows.Next() {
		var g Gram
		if err := rows.Scan(&g.ID, &g.Prefix, &g.Suffix); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// CreateSQLite writes snap into a new corpus database at path. It performs
// no integrity checks so that any snapshot, malformed or not, round-trips.
func CreateSQLite(ctx context.Context, path string, snap *Snapshot) error {
	dsn, err := sqliteDSN(path, false)
	if err != nil {
		return err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaSQL()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range snap.Words {
		if _, err := tx.ExecContext(ctx, `INSERT INTO one_grams (id, word) VALUES (?, ?)`, w.ID, w.Text); err != nil {
			return fmt.Errorf("insert word %q: %w", w.Text, err)
		}
	}
	for k := 2; k <= MaxOrder; k++ {
		q := fmt.Sprintf(`INSERT INTO %s (id, prefix, suffix) VALUES (?, ?, ?)`, tables[k])
		for _, g := range snap.order(k) {
			if _, err := tx.ExecContext(ctx, q, g.ID, g.Prefix, g.Suffix); err != nil {
				return fmt.Errorf("insert %s %d: %w", tables[k], g.ID, err)
			}
		}
	}
	return tx.Commit()
}
