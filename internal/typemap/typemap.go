package typemap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/schemafuzz/schemafuzz/internal/schema"
)

// Dialect names.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
)

// TypeMap holds the mapping from column data types to the SQL type keyword
// of one dialect.
type TypeMap struct {
	Dialect   string                     `yaml:"dialect"`
	Mappings  map[schema.DataType]string `yaml:"mappings"`
	Overrides map[schema.DataType]string `yaml:"overrides,omitempty"`
	defaults  map[schema.DataType]string // not serialized; populated by ForDialect
}

// DefaultMySQL returns the default keywords for the MySQL-compatible dialect.
func DefaultMySQL() *TypeMap {
	m := map[schema.DataType]string{
		schema.TypeBoolean:   "BOOLEAN",
		schema.TypeInt16:     "SMALLINT",
		schema.TypeInt32:     "INT",
		schema.TypeInt64:     "BIGINT",
		schema.TypeFloat32:   "FLOAT",
		schema.TypeFloat64:   "DOUBLE",
		schema.TypeString:    "STRING",
		schema.TypeTimestamp: "TIMESTAMP(3)",
	}
	return &TypeMap{Dialect: MySQL, Mappings: m}
}

// DefaultPostgres returns the default keywords for PostgreSQL.
func DefaultPostgres() *TypeMap {
	m := map[schema.DataType]string{
		schema.TypeBoolean:   "BOOLEAN",
		schema.TypeInt16:     "SMALLINT",
		schema.TypeInt32:     "INTEGER",
		schema.TypeInt64:     "BIGINT",
		schema.TypeFloat32:   "REAL",
		schema.TypeFloat64:   "DOUBLE PRECISION",
		schema.TypeString:    "TEXT",
		schema.TypeTimestamp: "TIMESTAMP(3)",
	}
	return &TypeMap{Dialect: Postgres, Mappings: m}
}

// ForDialect returns a TypeMap with defaults for the given dialect.
func ForDialect(dialect string) (*TypeMap, error) {
	var tm *TypeMap
	switch dialect {
	case MySQL:
		tm = DefaultMySQL()
	case Postgres:
		tm = DefaultPostgres()
	default:
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}
	tm.trackDefaults()
	return tm, nil
}

func (tm *TypeMap) trackDefaults() {
	tm.defaults = make(map[schema.DataType]string, len(tm.Mappings))
	for k, v := range tm.Mappings {
		tm.defaults[k] = v
	}
	if tm.Overrides == nil {
		tm.Overrides = make(map[schema.DataType]string)
	}
}

// Resolve returns the keyword for t.
func (tm *TypeMap) Resolve(t schema.DataType) (string, bool) {
	kw, ok := tm.Mappings[t]
	return kw, ok
}

// MustResolve returns the keyword for t and panics when t is unmapped. An
// unmapped type means a generator produced a type the dialect never
// supported; emitting SQL for it would only hide the bug.
func (tm *TypeMap) MustResolve(t schema.DataType) string {
	kw, ok := tm.Resolve(t)
	if !ok {
		panic(fmt.Sprintf("typemap: %s has no %s mapping", t, tm.Dialect))
	}
	return kw
}

// Override applies a user override for a data type.
func (tm *TypeMap) Override(t schema.DataType, keyword string) {
	tm.Mappings[t] = keyword
	if tm.Overrides == nil {
		tm.Overrides = make(map[schema.DataType]string)
	}
	// Track override only if different from default
	if tm.defaults != nil {
		if def, ok := tm.defaults[t]; ok && def == keyword {
			delete(tm.Overrides, t)
			return
		}
	}
	tm.Overrides[t] = keyword
}

// ApplyOverrides overrides every entry of overrides. Keys must name a known
// data type.
func (tm *TypeMap) ApplyOverrides(overrides map[string]string) error {
	for name, kw := range overrides {
		t := schema.DataType(name)
		if !t.Valid() {
			return fmt.Errorf("type override: unknown data type %q", name)
		}
		if kw == "" {
			return fmt.Errorf("type override: empty keyword for %s", name)
		}
		tm.Override(t, kw)
	}
	return nil
}

// RestoreDefault restores the default mapping for a data type.
func (tm *TypeMap) RestoreDefault(t schema.DataType) {
	if tm.defaults != nil {
		if def, ok := tm.defaults[t]; ok {
			tm.Mappings[t] = def
			delete(tm.Overrides, t)
		}
	}
}

// IsOverridden returns true if the data type has been overridden from its default.
func (tm *TypeMap) IsOverridden(t schema.DataType) bool {
	if tm.Overrides == nil {
		return false
	}
	_, ok := tm.Overrides[t]
	return ok
}

// SortedTypes returns the mapped data types sorted alphabetically.
func (tm *TypeMap) SortedTypes() []schema.DataType {
	types := make([]schema.DataType, 0, len(tm.Mappings))
	for k := range tm.Mappings {
		types = append(types, k)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// WriteYAML writes the type mapping to a YAML file.
func (tm *TypeMap) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := yaml.Marshal(tm)
	if err != nil {
		return fmt.Errorf("marshaling type map: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// LoadYAML reads a type mapping from a YAML file. Types missing from the
// file keep the dialect defaults.
func LoadYAML(path string) (*TypeMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading type map file: %w", err)
	}
	var file TypeMap
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing type map: %w", err)
	}
	tm, err := ForDialect(file.Dialect)
	if err != nil {
		return nil, fmt.Errorf("parsing type map: %w", err)
	}
	for t, kw := range file.Mappings {
		if !t.Valid() {
			return nil, fmt.Errorf("parsing type map: unknown data type %q", t)
		}
		tm.Override(t, kw)
	}
	return tm, nil
}
