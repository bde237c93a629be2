// Package generator produces randomized DDL IR from a table context.
//
// Every generator is built from a config struct by a New* function that
// validates the config and fills in default strategies. A generator holds no
// mutable state; all randomness comes from the Rng passed to Generate, so a
// generator may be shared by workers that each own their Rng.
package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/schemafuzz/schemafuzz/internal/random"
	"github.com/schemafuzz/schemafuzz/internal/schema"
)

// Generator produces one value of type T per call.
type Generator[T any] interface {
	Generate(rng random.Rng) (T, error)
}

// ErrNoDroppableColumns is returned when every column of the table is
// protected, so no DROP COLUMN can be generated.
var ErrNoDroppableColumns = errors.New("no droppable columns")

// ErrNoUniqueName is returned when the name strategy keeps producing names
// that already exist in the table.
var ErrNoUniqueName = errors.New("no unique column name")

// maxNameAttempts bounds the draws spent looking for an unused column name.
const maxNameAttempts = 32

// ConfigError reports an invalid generator configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid generator config: %s: %s", e.Field, e.Reason)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkConfig runs the struct tag validation and converts the first failure
// into a *ConfigError.
func checkConfig(cfg any) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &ConfigError{Field: fe.Field(), Reason: "failed " + reason}
	}
	return fmt.Errorf("validating generator config: %w", err)
}

// generateColumns draws a type and options for every name.
func generateColumns(
	rng random.Rng,
	names []string,
	types random.Strategy[schema.DataType],
	options random.OptionStrategy,
) []schema.Column {
	cols := make([]schema.Column, 0, len(names))
	for _, name := range names {
		typ := types.Next(rng)
		opts := options.Options(rng, typ)
		if opts == nil {
			opts = []schema.ColumnOption{}
		}
		cols = append(cols, schema.Column{Name: name, Type: typ, Options: opts})
	}
	return cols
}

// uniqueName draws names until one is not taken, comparing case-insensitively.
func uniqueName(rng random.Rng, names random.Strategy[string], taken func(string) bool) (string, error) {
	var last string
	for i := 0; i < maxNameAttempts; i++ {
		last = names.Next(rng)
		if last != "" && !taken(last) {
			return last, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts (last %q)", ErrNoUniqueName, maxNameAttempts, last)
}

// foldSet is a case-insensitive set of names.
type foldSet map[string]bool

func (s foldSet) has(name string) bool { return s[strings.ToLower(name)] }
func (s foldSet) add(name string)      { s[strings.ToLower(name)] = true }
