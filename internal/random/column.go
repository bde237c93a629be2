package random

import (
	"math"
	"strconv"

	"github.com/schemafuzz/schemafuzz/internal/schema"
)

// ColumnTypeGenerator draws a type uniformly from Types, or from
// schema.ColumnTypes when Types is empty.
type ColumnTypeGenerator struct {
	Types []schema.DataType
}

// Next returns one data type.
func (g ColumnTypeGenerator) Next(rng Rng) schema.DataType {
	types := g.Types
	if len(types) == 0 {
		types = schema.ColumnTypes
	}
	return types[rng.IntN(len(types))]
}

// ColumnOptionGenerator is the standard option strategy. A column gets at
// most one of NULL, NOT NULL, DEFAULT <value> or PRIMARY KEY, so the drawn
// options can never contradict each other.
type ColumnOptionGenerator struct{}

// Options draws the options for a column of type t.
func (ColumnOptionGenerator) Options(rng Rng, t schema.DataType) []schema.ColumnOption {
	switch rng.IntN(5) {
	case 0:
		return []schema.ColumnOption{schema.Null}
	case 1:
		return []schema.ColumnOption{schema.NotNull}
	case 2:
		return []schema.ColumnOption{schema.DefaultValue(Literal(rng, t))}
	case 3:
		return []schema.ColumnOption{schema.PrimaryKey}
	default:
		return []schema.ColumnOption{}
	}
}

// NonKeyOptionGenerator never produces PRIMARY KEY. It is used for the
// plain value columns of generated tables.
type NonKeyOptionGenerator struct{}

// Options draws the options for a column of type t.
func (NonKeyOptionGenerator) Options(rng Rng, t schema.DataType) []schema.ColumnOption {
	switch rng.IntN(4) {
	case 0:
		return []schema.ColumnOption{schema.Null}
	case 1:
		return []schema.ColumnOption{schema.NotNull}
	case 2:
		return []schema.ColumnOption{schema.DefaultValue(Literal(rng, t))}
	default:
		return []schema.ColumnOption{}
	}
}

// Literal renders a random SQL literal of type t.
func Literal(rng Rng, t schema.DataType) string {
	switch t {
	case schema.TypeBoolean:
		return strconv.FormatBool(Bool(rng))
	case schema.TypeInt16:
		return strconv.Itoa(rng.IntN(math.MaxUint16+1) + math.MinInt16)
	case schema.TypeInt32:
		return strconv.FormatInt(int64(int32(rng.Uint64())), 10)
	case schema.TypeInt64:
		return strconv.FormatInt(int64(rng.Uint64()), 10)
	case schema.TypeFloat32:
		return strconv.FormatFloat(float64(float32(rng.Float64()*1e4)), 'f', -1, 32)
	case schema.TypeFloat64:
		return strconv.FormatFloat(rng.Float64()*1e6, 'f', -1, 64)
	case schema.TypeString:
		return "'" + WordGenerator{}.Next(rng) + "'"
	case schema.TypeTimestamp:
		// Milliseconds between 2000-01-01 and 2030-01-01.
		return strconv.FormatInt(946684800000+rng.Int64N(946728000000), 10)
	default:
		panic("random: no literal generator for type " + string(t))
	}
}
