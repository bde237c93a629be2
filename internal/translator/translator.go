// Package translator renders DDL IR as SQL text for a dialect.
//
// Dialect packages register themselves from init, the way database/sql
// drivers do; import them for side effects to make them available to
// ForDialect.
package translator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/schemafuzz/schemafuzz/internal/ir"
	"github.com/schemafuzz/schemafuzz/internal/schema"
	"github.com/schemafuzz/schemafuzz/internal/typemap"
)

// Translator turns IR into one SQL statement terminated by a semicolon.
type Translator interface {
	Dialect() string
	TranslateAlter(expr ir.AlterTableExpr) (string, error)
	TranslateCreate(expr ir.CreateTableExpr) (string, error)
}

// Factory builds a translator that resolves type keywords through tm.
type Factory func(tm *typemap.TypeMap) Translator

// ErrUnsupportedPlacement is returned by dialects with no FIRST/AFTER syntax.
var ErrUnsupportedPlacement = errors.New("column placement not supported")

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a dialect available. It panics on duplicate registration.
func Register(dialect string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[dialect]; dup {
		panic("translator: Register called twice for dialect " + dialect)
	}
	factories[dialect] = f
}

// Dialects returns the registered dialect names, sorted.
func Dialects() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForDialect returns the translator for dialect with the given type keyword
// overrides applied on top of the dialect defaults.
func ForDialect(dialect string, overrides map[string]string) (Translator, error) {
	mu.RLock()
	f, ok := factories[dialect]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no translator registered for dialect %q", dialect)
	}
	tm, err := typemap.ForDialect(dialect)
	if err != nil {
		return nil, err
	}
	if err := tm.ApplyOverrides(overrides); err != nil {
		return nil, err
	}
	return f(tm), nil
}

// Join joins the non-empty fragments with single spaces.
func Join(fragments ...string) string {
	parts := fragments[:0:0]
	for _, f := range fragments {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// Options renders column options in order, separated by single spaces.
func Options(opts []schema.ColumnOption) string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		parts = append(parts, o.String())
	}
	return Join(parts...)
}

// Constraints splits columns into the time index column name and the
// primary key column names, in column order.
func Constraints(cols []schema.Column) (timeIndex string, primaryKeys []string) {
	for _, c := range cols {
		if timeIndex == "" && c.HasOption(schema.OptionTimeIndex) {
			timeIndex = c.Name
		}
		if c.HasOption(schema.OptionPrimaryKey) {
			primaryKeys = append(primaryKeys, c.Name)
		}
	}
	return timeIndex, primaryKeys
}

// WithoutOptions returns opts minus any option of the given kinds.
func WithoutOptions(opts []schema.ColumnOption, kinds ...schema.OptionKind) []schema.ColumnOption {
	out := make([]schema.ColumnOption, 0, len(opts))
	for _, o := range opts {
		drop := false
		for _, k := range kinds {
			if o.Kind == k {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, o)
		}
	}
	return out
}
