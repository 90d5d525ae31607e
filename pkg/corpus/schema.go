package corpus

import (
	"fmt"
	"strings"
)

// tables maps an order to its table name. Index 0 is unused.
var tables = [MaxOrder + 1]string{
	"",
	"one_grams",
	"two_grams",
	"three_grams",
	"four_grams",
	"five_grams",
}

// TableName returns the table holding entries of the given order.
func TableName(order int) string {
	if order < 1 || order > MaxOrder {
		return ""
	}
	return tables[order]
}

// schemaSQL creates the corpus tables. There are no foreign keys: chain
// integrity is checked by the readers.
func schemaSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS one_grams (id INTEGER PRIMARY KEY, word TEXT NOT NULL UNIQUE);\n")
	for k := 2; k <= MaxOrder; k++ {
		fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY, prefix INTEGER NOT NULL, suffix INTEGER NOT NULL);\n", tables[k])
		fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS %s_prefix_suffix ON %s (prefix, suffix);\n", tables[k], tables[k])
	}
	return b.String()
}

// The queries below are generated once per order.
var (
	// args: prefix id, suffix word
	stepQueries [MaxOrder + 1]string
	// args: prefix id, limit
	nextQueries [MaxOrder + 1]string
	// args: prefix id, pattern, limit
	prefixQueries [MaxOrder + 1]string
)

const (
	wordQuery        = `SELECT id FROM one_grams WHERE word = ?`
	wordPrefixQuery  = `SELECT id, word FROM one_grams WHERE word LIKE ? ESCAPE '` + likeEscape + `' ORDER BY id LIMIT ?`
	tableExistsQuery = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
)

func init() {
	for k := 2; k <= MaxOrder; k++ {
		t := tables[k]
		stepQueries[k] = fmt.Sprintf(
			`SELECT g.id FROM %s AS g JOIN one_grams AS w ON w.id = g.suffix
			WHERE g.prefix = ? AND w.word = ? ORDER BY g.id LIMIT 1`, t)
		// LEFT JOIN keeps rows whose suffix word is missing so they surface as malformed.
		nextQueries[k] = fmt.Sprintf(
			`SELECT MIN(g.id), g.suffix, w.word FROM %s AS g LEFT JOIN one_grams AS w ON w.id = g.suffix
			WHERE g.prefix = ? GROUP BY g.suffix ORDER BY MIN(g.id) LIMIT ?`, t)
		prefixQueries[k] = fmt.Sprintf(
			`SELECT MIN(g.id), g.suffix, w.word FROM %s AS g LEFT JOIN one_grams AS w ON w.id = g.suffix
			WHERE g.prefix = ? AND (w.id IS NULL OR w.word LIKE ? ESCAPE '%s')
			GROUP BY g.suffix ORDER BY MIN(g.id) LIMIT ?`, t, likeEscape)
	}
}
