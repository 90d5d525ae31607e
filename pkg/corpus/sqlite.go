package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore serves lookups from a persisted corpus database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// sqliteDSN builds a file URI for path with case-sensitive LIKE on every
// pooled connection. The path is made absolute and escaped so that '#', '?'
// and '%' in directory names reach SQLite unchanged.
func sqliteDSN(path string, readOnly bool) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	params := []string{"_cslike=1"}
	if readOnly {
		params = append(params, "mode=ro")
	}
	u := &url.URL{Scheme: "file", Path: abs, RawQuery: strings.Join(params, "&")}
	return u.String(), nil
}

// OpenSQLite opens the corpus at path for reading and checks that every
// table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty store path", ErrStoreConfig)
	}
	dsn, err := sqliteDSN(path, true)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrStoreConfig, path, err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreConfig, path, err)
	}
	s := &SQLiteStore{db: db, path: path}
	if err := s.checkTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Debugf("Opened sqlite corpus: %s", path)
	return s, nil
}

func (s *SQLiteStore) checkTables(ctx context.Context) error {
	for k := 1; k <= MaxOrder; k++ {
		var n int
		if err := s.db.QueryRowContext(ctx, tableExistsQuery, tables[k]).Scan(&n); err != nil {
			return fmt.Errorf("%w: read %s: %v", ErrStoreConfig, s.path, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s has no table %s", ErrStoreConfig, s.path, tables[k])
		}
	}
	return nil
}

// Path returns the database file the store reads from.
func (s *SQLiteStore) Path() string {
	return s.path
}

// ResolveExact implements Store.
func (s *SQLiteStore) ResolveExact(ctx context.Context, words []string) (int64, bool, error) {
	if err := checkLen(len(words), 1, MaxOrder); err != nil {
		return 0, false, err
	}
	var id int64
	err := s.db.QueryRowContext(ctx, wordQuery, words[0]).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolve %q: %w", words[0], err)
	}
	for k := 2; k <= len(words); k++ {
		err = s.db.QueryRowContext(ctx, stepQueries[k], id, words[k-1]).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, fmt.Errorf("resolve %s in %s: %w", strings.Join(words[:k], " "), tables[k], err)
		}
	}
	return id, true, nil
}

// MatchPrefix implements Store.
func (s *SQLiteStore) MatchPrefix(ctx context.Context, history []string, fragment string, limit int) ([]Match, error) {
	if err := checkLen(len(history), 0, MaxOrder-1); err != nil {
		return nil, err
	}
	pattern := LikePattern(fragment)
	if len(history) == 0 {
		rows, err := s.db.QueryContext(ctx, wordPrefixQuery, pattern, sqlLimit(limit))
		if err != nil {
			return nil, fmt.Errorf("match prefix %q: %w", fragment, err)
		}
		defer rows.Close()
		var out []Match
		for rows.Next() {
			m := Match{Order: 1}
			if err := rows.Scan(&m.ID, &m.Word); err != nil {
				return nil, fmt.Errorf("%w: scan %s: %v", ErrMalformed, tables[1], err)
			}
			out = append(out, m)
		}
		return out, rows.Err()
	}

	prefixID, ok, err := s.ResolveExact(ctx, history)
	if err != nil || !ok {
		return nil, err
	}
	order := len(history) + 1
	rows, err := s.db.QueryContext(ctx, prefixQueries[order], prefixID, pattern, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("match prefix %q in %s: %w", fragment, tables[order], err)
	}
	return scanSuffixes(rows, order)
}

// MatchNext implements Store.
func (s *SQLiteStore) MatchNext(ctx context.Context, history []string, limit int) ([]Match, error) {
	if err := checkLen(len(history), 1, MaxOrder-1); err != nil {
		return nil, err
	}
	prefixID, ok, err := s.ResolveExact(ctx, history)
	if err != nil || !ok {
		return nil, err
	}
	order := len(history) + 1
	rows, err := s.db.QueryContext(ctx, nextQueries[order], prefixID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("match next in %s: %w", tables[order], err)
	}
	return scanSuffixes(rows, order)
}

// scanSuffixes reads (gram id, suffix id, word) rows and closes them. A NULL
// word means the suffix points nowhere.
func scanSuffixes(rows *sql.Rows, order int) ([]Match, error) {
	defer rows.Close()
	var out []Match
	for rows.Next() {
		var (
			id, suffix int64
			word       sql.NullString
		)
		if err := rows.Scan(&id, &suffix, &word); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", ErrMalformed, tables[order], err)
		}
		if !word.Valid {
			return nil, fmt.Errorf("%w: %s entry %d has dangling suffix %d", ErrMalformed, tables[order], id, suffix)
		}
		out = append(out, Match{Order: order, ID: id, Word: word.String})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats implements Store.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	for k := 1; k <= MaxOrder; k++ {
		q := fmt.Sprintf("SELECT COUNT(*) FROM %s", tables[k])
		if err := s.db.QueryRowContext(ctx, q).Scan(&st.Counts[k]); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", tables[k], err)
		}
	}
	return st, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqlLimit maps "no cap" to SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
