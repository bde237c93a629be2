package random

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/schemafuzz/schemafuzz/internal/schema"
)

// loremWords is the default dictionary for table and column names.
var loremWords = []string{
	"alias", "consequatur", "aut", "perferendis", "sit", "voluptatem",
	"accusantium", "doloremque", "aperiam", "eaque", "ipsa", "quae", "ab",
	"illo", "inventore", "veritatis", "et", "quasi", "architecto", "beatae",
	"vitae", "dicta", "sunt", "explicabo", "aspernatur", "odit", "fugit",
	"sed", "quia", "consequuntur", "magni", "dolores", "eos", "qui",
	"ratione", "sequi", "nesciunt", "neque", "dolorem", "ipsum", "dolor",
	"amet", "consectetur", "adipisci", "velit", "non", "numquam", "eius",
	"modi", "tempora", "incidunt", "ut", "labore", "dolore", "magnam",
	"aliquam", "quaerat", "enim", "ad", "minima", "veniam", "quis",
	"nostrum", "exercitationem", "ullam", "corporis", "nemo", "ipsam",
	"voluptas", "suscipit", "laboriosam", "nisi", "aliquid", "ex", "ea",
	"commodi", "autem", "vel", "eum", "iure", "reprehenderit", "voluptate",
	"esse", "quam", "nihil", "molestiae", "iusto", "odio", "dignissimos",
	"ducimus", "blanditiis", "praesentium", "laudantium", "totam", "rem",
	"voluptatum", "deleniti", "atque", "corrupti", "quos", "quas",
	"molestias", "excepturi", "sint", "occaecati", "cupiditate", "provident",
	"perspiciatis", "unde", "omnis", "iste", "natus", "error",
	"similique", "culpa", "officia", "deserunt", "mollitia", "animi", "id",
	"est", "laborum", "dolorum", "fuga", "harum", "quidem", "rerum",
	"facilis", "expedita", "distinctio", "nam", "libero", "tempore", "cum",
	"soluta", "nobis", "eligendi", "optio", "cumque", "impedit", "quo",
	"porro", "quisquam", "minus", "quod", "maxime", "placeat", "facere",
	"possimus", "assumenda", "repellendus", "temporibus", "quibusdam",
	"illum", "fugiat", "nulla", "pariatur", "at", "vero", "accusamus",
	"officiis", "debitis", "necessitatibus", "saepe", "eveniet", "voluptates",
	"repudiandae", "recusandae", "itaque", "earum", "hic", "tenetur", "a",
	"sapiente", "delectus", "reiciendis", "voluptatibus", "maiores",
	"doloribus", "asperiores", "repellat",
}

// reservedWords lists keywords that are reserved in MySQL 8 or PostgreSQL,
// plus the column type names and placement keywords the ALTER grammar uses.
// None of them may be emitted as a bare identifier.
var reservedWords = []string{
	"ACCESSIBLE", "ADD", "AFTER", "ALL", "ALTER", "ANALYSE", "ANALYZE",
	"AND", "ANY", "ARRAY", "AS", "ASC", "ASENSITIVE", "ASYMMETRIC",
	"AUTHORIZATION", "BEFORE", "BETWEEN", "BIGINT", "BIGSERIAL", "BINARY",
	"BLOB", "BOOL", "BOOLEAN", "BOTH", "BY", "BYTEA", "CALL", "CASCADE",
	"CASE", "CAST", "CHANGE", "CHAR", "CHARACTER", "CHECK", "COLLATE",
	"COLLATION", "COLUMN", "CONCURRENTLY", "CONDITION", "CONSTRAINT",
	"CONTINUE", "CONVERT", "CREATE", "CROSS", "CUBE", "CUME_DIST",
	"CURRENT_CATALOG", "CURRENT_DATE", "CURRENT_ROLE", "CURRENT_SCHEMA",
	"CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER", "CURSOR",
	"DATABASE", "DATABASES", "DATE", "DATETIME", "DAY_HOUR",
	"DAY_MICROSECOND", "DAY_MINUTE", "DAY_SECOND", "DEC", "DECIMAL",
	"DECLARE", "DEFAULT", "DEFERRABLE", "DELAYED", "DELETE", "DENSE_RANK",
	"DESC", "DESCRIBE", "DETERMINISTIC", "DISTINCT", "DISTINCTROW", "DIV",
	"DO", "DOUBLE", "DROP", "DUAL", "EACH", "ELSE", "ELSEIF", "EMPTY",
	"ENCLOSED", "END", "ESCAPED", "EXCEPT", "EXISTS", "EXIT", "EXPLAIN",
	"FALSE", "FETCH", "FIRST", "FIRST_VALUE", "FLOAT", "FLOAT4", "FLOAT8",
	"FOR", "FORCE", "FOREIGN", "FREEZE", "FROM", "FULL", "FULLTEXT",
	"FUNCTION", "GENERATED", "GET", "GRANT", "GROUP", "GROUPING", "GROUPS",
	"HAVING", "HIGH_PRIORITY", "HOUR_MICROSECOND", "HOUR_MINUTE",
	"HOUR_SECOND", "IF", "IGNORE", "ILIKE", "IN", "INDEX", "INFILE",
	"INITIALLY", "INNER", "INOUT", "INSENSITIVE", "INSERT", "INT", "INT1",
	"INT2", "INT3", "INT4", "INT8", "INTEGER", "INTERSECT", "INTERVAL",
	"INTO", "IO_AFTER_GTIDS", "IO_BEFORE_GTIDS", "IS", "ISNULL", "ITERATE",
	"JOIN", "JSON_TABLE", "KEY", "KEYS", "KILL", "LAG", "LAST",
	"LAST_VALUE", "LATERAL", "LEAD", "LEADING", "LEAVE", "LEFT", "LIKE",
	"LIMIT", "LINEAR", "LINES", "LOAD", "LOCALTIME", "LOCALTIMESTAMP",
	"LOCK", "LONG", "LONGBLOB", "LONGTEXT", "LOOP", "LOW_PRIORITY",
	"MASTER_BIND", "MASTER_SSL_VERIFY_SERVER_CERT", "MATCH", "MAXVALUE",
	"MEDIUMBLOB", "MEDIUMINT", "MEDIUMTEXT", "MIDDLEINT",
	"MINUTE_MICROSECOND", "MINUTE_SECOND", "MOD", "MODIFIES", "NATURAL",
	"NOT", "NOTNULL", "NO_WRITE_TO_BINLOG", "NTH_VALUE", "NTILE", "NULL",
	"NUMERIC", "OF", "OFFSET", "ON", "ONLY", "OPTIMIZE", "OPTIMIZER_COSTS",
	"OPTION", "OPTIONALLY", "OR", "ORDER", "OUT", "OUTER", "OUTFILE",
	"OVER", "OVERLAPS", "PARTITION", "PERCENT_RANK", "PLACING",
	"PRECISION", "PRIMARY", "PROCEDURE", "PURGE", "RANGE", "RANK", "READ",
	"READS", "READ_WRITE", "REAL", "RECURSIVE", "REFERENCES", "REGEXP",
	"RELEASE", "RENAME", "REPEAT", "REPLACE", "REQUIRE", "RESIGNAL",
	"RESTRICT", "RETURN", "RETURNING", "REVOKE", "RIGHT", "RLIKE", "ROW",
	"ROWS", "ROW_NUMBER", "SCHEMA", "SCHEMAS", "SECOND_MICROSECOND",
	"SELECT", "SENSITIVE", "SEPARATOR", "SERIAL", "SESSION_USER", "SET",
	"SHOW", "SIGNAL", "SIMILAR", "SMALLINT", "SMALLSERIAL", "SOME",
	"SPATIAL", "SPECIFIC", "SQL", "SQLEXCEPTION", "SQLSTATE", "SQLWARNING",
	"SQL_BIG_RESULT", "SQL_CALC_FOUND_ROWS", "SQL_SMALL_RESULT", "SSL",
	"STARTING", "STORED", "STRAIGHT_JOIN", "STRING", "SYMMETRIC", "SYSTEM",
	"SYSTEM_USER", "TABLE", "TABLESAMPLE", "TERMINATED", "TEXT", "THEN",
	"TIME", "TIMESTAMP", "TINYBLOB", "TINYINT", "TINYTEXT", "TO",
	"TRAILING", "TRIGGER", "TRUE", "UNDO", "UNION", "UNIQUE", "UNLOCK",
	"UNSIGNED", "UPDATE", "USAGE", "USE", "USER", "USING", "UTC_DATE",
	"UTC_TIME", "UTC_TIMESTAMP", "VALUES", "VARBINARY", "VARCHAR",
	"VARCHARACTER", "VARIADIC", "VARYING", "VERBOSE", "VIRTUAL", "WHEN",
	"WHERE", "WHILE", "WINDOW", "WITH", "WRITE", "XOR", "YEAR_MONTH",
	"ZEROFILL",
}

var reserved = func() map[string]bool {
	m := make(map[string]bool, len(reservedWords))
	for _, w := range reservedWords {
		m[w] = true
	}
	return m
}()

// DefaultWords returns a copy of the built-in dictionary.
func DefaultWords() []string {
	return append([]string(nil), loremWords...)
}

// WordGenerator draws a word uniformly from Words, or from the built-in
// lorem ipsum dictionary when Words is empty.
type WordGenerator struct {
	Words []string
}

// Next returns one word.
func (g WordGenerator) Next(rng Rng) string {
	words := g.Words
	if len(words) == 0 {
		words = loremWords
	}
	return words[rng.IntN(len(words))]
}

// RandomCapitalize upper-cases each letter of s with probability 1/2.
func RandomCapitalize(rng Rng, s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if Bool(rng) {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CapitalizedWords is the word strategy with random capitalization applied.
func CapitalizedWords(words []string) Strategy[string] {
	return Mapped[string]{Base: WordGenerator{Words: words}, Map: RandomCapitalize}
}

// LoadWords reads a dictionary file with one or more words per line. Words
// are NFC-normalized and kept only if they are plain identifiers; duplicates
// are dropped while preserving the file order.
func LoadWords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}

	seen := make(map[string]bool)
	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := norm.NFC.String(scanner.Text())
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for _, w := range strings.Fields(line) {
			if !schema.IsIdentifier(w) || reserved[strings.ToUpper(w)] || seen[w] {
				continue
			}
			seen[w] = true
			words = append(words, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning dictionary: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("dictionary %s contains no usable words", path)
	}
	return words, nil
}
