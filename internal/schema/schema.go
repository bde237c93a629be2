package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DataType is the semantic type of a column, independent of any SQL dialect.
type DataType string

const (
	TypeBoolean   DataType = "Boolean"
	TypeInt16     DataType = "Int16"
	TypeInt32     DataType = "Int32"
	TypeInt64     DataType = "Int64"
	TypeFloat32   DataType = "Float32"
	TypeFloat64   DataType = "Float64"
	TypeString    DataType = "String"
	TypeTimestamp DataType = "Timestamp"
)

// ColumnTypes lists the types a randomly generated column may take.
// Timestamp is reserved for time index columns.
var ColumnTypes = []DataType{
	TypeBoolean,
	TypeInt16,
	TypeInt32,
	TypeInt64,
	TypeFloat32,
	TypeFloat64,
	TypeString,
}

// AllDataTypes lists every semantic type a translator must be able to map.
var AllDataTypes = append(append([]DataType{}, ColumnTypes...), TypeTimestamp)

// Valid reports whether t is a known semantic type.
func (t DataType) Valid() bool {
	for _, known := range AllDataTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the type as a single-key object, e.g. {"Boolean":null}.
func (t DataType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("encoding data type: unknown type %q", string(t))
	}
	return json.Marshal(map[string]any{string(t): nil})
}

// UnmarshalJSON accepts the tagged form and a bare type name. Unknown types
// are rejected.
func (t *DataType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var tagged map[string]json.RawMessage
		if err := json.Unmarshal(data, &tagged); err != nil {
			return fmt.Errorf("decoding data type: %w", err)
		}
		if len(tagged) != 1 {
			return fmt.Errorf("decoding data type: expected one key, got %d", len(tagged))
		}
		for k := range tagged {
			name = k
		}
	}
	if !DataType(name).Valid() {
		return fmt.Errorf("decoding data type: unknown type %q", name)
	}
	*t = DataType(name)
	return nil
}

// OptionKind identifies a column-level option.
type OptionKind string

const (
	OptionNull         OptionKind = "Null"
	OptionNotNull      OptionKind = "NotNull"
	OptionDefaultValue OptionKind = "DefaultValue"
	OptionTimeIndex    OptionKind = "TimeIndex"
	OptionPrimaryKey   OptionKind = "PrimaryKey"
)

// Valid reports whether k is a known option kind.
func (k OptionKind) Valid() bool {
	switch k {
	case OptionNull, OptionNotNull, OptionDefaultValue, OptionTimeIndex, OptionPrimaryKey:
		return true
	}
	return false
}

// ColumnOption is a single column option. Value is only set for
// OptionDefaultValue and holds an already rendered SQL literal.
type ColumnOption struct {
	Kind  OptionKind `yaml:"kind"`
	Value string     `yaml:"value,omitempty"`
}

// Convenience constructors for the value-less options.
var (
	Null       = ColumnOption{Kind: OptionNull}
	NotNull    = ColumnOption{Kind: OptionNotNull}
	TimeIndex  = ColumnOption{Kind: OptionTimeIndex}
	PrimaryKey = ColumnOption{Kind: OptionPrimaryKey}
)

// DefaultValue returns a DEFAULT option carrying the given literal.
func DefaultValue(literal string) ColumnOption {
	return ColumnOption{Kind: OptionDefaultValue, Value: literal}
}

// String returns the canonical keyword form of the option.
func (o ColumnOption) String() string {
	switch o.Kind {
	case OptionNull:
		return "NULL"
	case OptionNotNull:
		return "NOT NULL"
	case OptionDefaultValue:
		return "DEFAULT " + o.Value
	case OptionTimeIndex:
		return "TIME INDEX"
	case OptionPrimaryKey:
		return "PRIMARY KEY"
	default:
		panic(fmt.Sprintf("schema: unknown column option kind %q", o.Kind))
	}
}

// MarshalJSON encodes value-less options as a bare string ("PrimaryKey") and
// DEFAULT as {"DefaultValue": "<literal>"}.
func (o ColumnOption) MarshalJSON() ([]byte, error) {
	if o.Kind == OptionDefaultValue {
		return json.Marshal(map[string]string{string(o.Kind): o.Value})
	}
	return json.Marshal(string(o.Kind))
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON. Unknown
// kinds, a bare DefaultValue and an empty DEFAULT literal are rejected.
func (o *ColumnOption) UnmarshalJSON(data []byte) error {
	var opt ColumnOption
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		opt = ColumnOption{Kind: OptionKind(kind)}
	} else {
		var tagged map[string]string
		if err := json.Unmarshal(data, &tagged); err != nil {
			return fmt.Errorf("decoding column option: %w", err)
		}
		if len(tagged) != 1 {
			return fmt.Errorf("decoding column option: expected one key, got %d", len(tagged))
		}
		for k, v := range tagged {
			opt = ColumnOption{Kind: OptionKind(k), Value: v}
		}
		if opt.Kind != OptionDefaultValue {
			return fmt.Errorf("decoding column option: %s takes no value", opt.Kind)
		}
	}

	if !opt.Kind.Valid() {
		return fmt.Errorf("decoding column option: unknown kind %q", opt.Kind)
	}
	if opt.Kind == OptionDefaultValue && strings.TrimSpace(opt.Value) == "" {
		return fmt.Errorf("decoding column option: DefaultValue needs a literal")
	}
	*o = opt
	return nil
}

// Column is a single table column.
type Column struct {
	Name    string         `yaml:"name" json:"name"`
	Type    DataType       `yaml:"type" json:"column_type"`
	Options []ColumnOption `yaml:"options,omitempty" json:"options"`
}

// HasOption returns true if the column carries an option of the given kind.
func (c Column) HasOption(kind OptionKind) bool {
	for _, o := range c.Options {
		if o.Kind == kind {
			return true
		}
	}
	return false
}

// Clone returns a copy of the column that shares no memory with c.
func (c Column) Clone() Column {
	out := c
	if c.Options != nil {
		out.Options = append([]ColumnOption(nil), c.Options...)
	}
	return out
}

var identPattern = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// IsIdentifier reports whether s can be used unquoted as a table or column
// name. Letters must be precomposed; combining marks are rejected.
func IsIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

// DefaultProtected is the protected-option policy used when none is given.
var DefaultProtected = []OptionKind{OptionPrimaryKey}

// TableContext is an immutable snapshot of a table's schema. A *TableContext
// may be shared freely between goroutines; nothing mutates it after
// NewTableContext returns.
type TableContext struct {
	name      string
	columns   []Column
	protected []OptionKind
}

// NewTableContext builds a context from the given name and columns. Columns
// carrying any of the protected option kinds may never be dropped; when no
// kinds are given DefaultProtected applies.
func NewTableContext(name string, columns []Column, protected ...OptionKind) *TableContext {
	if len(protected) == 0 {
		protected = DefaultProtected
	}
	cols := make([]Column, len(columns))
	for i, c := range columns {
		cols[i] = c.Clone()
	}
	return &TableContext{
		name:      name,
		columns:   cols,
		protected: append([]OptionKind(nil), protected...),
	}
}

// Name returns the table name.
func (t *TableContext) Name() string { return t.name }

// NumColumns returns the number of columns.
func (t *TableContext) NumColumns() int { return len(t.columns) }

// ColumnAt returns a copy of the i-th column.
func (t *TableContext) ColumnAt(i int) Column { return t.columns[i].Clone() }

// Columns returns a copy of the ordered column list.
func (t *TableContext) Columns() []Column {
	out := make([]Column, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Clone()
	}
	return out
}

// Protected returns the option kinds that make a column non-droppable.
func (t *TableContext) Protected() []OptionKind {
	return append([]OptionKind(nil), t.protected...)
}

// FindColumn returns the column with the given name and its position.
func (t *TableContext) FindColumn(name string) (Column, int, bool) {
	for i, c := range t.columns {
		if c.Name == name {
			return c.Clone(), i, true
		}
	}
	return Column{}, -1, false
}

// HasColumnFold reports whether a column with the given name exists, ignoring
// case the way MySQL compares column names.
func (t *TableContext) HasColumnFold(name string) bool {
	for _, c := range t.columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// IsProtected reports whether the column must never be dropped.
func (t *TableContext) IsProtected(c Column) bool {
	for _, kind := range t.protected {
		if c.HasOption(kind) {
			return true
		}
	}
	return false
}

// DroppableColumns returns, in schema order, the columns that carry none of
// the protected options.
func (t *TableContext) DroppableColumns() []Column {
	var out []Column
	for _, c := range t.columns {
		if !t.IsProtected(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// WithName returns a new context with the table renamed.
func (t *TableContext) WithName(name string) *TableContext {
	return NewTableContext(name, t.columns, t.protected...)
}

// WithColumns returns a new context with the given column list.
func (t *TableContext) WithColumns(columns []Column) *TableContext {
	return NewTableContext(t.name, columns, t.protected...)
}

// Summary returns a one-line description of the context.
func (t *TableContext) Summary() string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return fmt.Sprintf("table %s: %d columns (%s), %d droppable",
		t.name, len(t.columns), strings.Join(names, ", "), len(t.DroppableColumns()))
}
