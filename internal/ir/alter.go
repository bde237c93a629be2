// Package ir defines the intermediate representation of the DDL statements
// produced by the generators and consumed by the translators.
package ir

import (
	"encoding/json"
	"fmt"

	"github.com/schemafuzz/schemafuzz/internal/schema"
)

// AlterTableExpr is one ALTER TABLE statement.
type AlterTableExpr struct {
	TableName string
	Operation AlterTableOperation
}

// AlterTableOperation is implemented by AddColumn, DropColumn and RenameTable.
type AlterTableOperation interface {
	isAlterTableOperation()
	// Kind returns the operation name used in the serialized form.
	Kind() string
}

// AddColumn adds Column, optionally at Location. A nil Location appends.
type AddColumn struct {
	Column   schema.Column
	Location Location
}

// DropColumn drops the column called Name.
type DropColumn struct {
	Name string
}

// RenameTable renames the table to NewTableName.
type RenameTable struct {
	NewTableName string
}

func (AddColumn) isAlterTableOperation()   {}
func (DropColumn) isAlterTableOperation()  {}
func (RenameTable) isAlterTableOperation() {}

func (AddColumn) Kind() string   { return "AddColumn" }
func (DropColumn) Kind() string  { return "DropColumn" }
func (RenameTable) Kind() string { return "RenameTable" }

// Location is the placement of an added column: First or After.
type Location interface {
	isLocation()
}

// First places the new column before every other column.
type First struct{}

// After places the new column right after ColumnName.
type After struct {
	ColumnName string
}

func (First) isLocation() {}
func (After) isLocation() {}

// Wire forms. Operations and locations are encoded as single-key objects
// naming the variant, e.g. {"DropColumn":{"name":"c"}} and {"After":{...}};
// First is the bare string "First".

type alterWire struct {
	TableName    string                     `json:"table_name"`
	AlterOptions map[string]json.RawMessage `json:"alter_options"`
}

type addColumnWire struct {
	Column   schema.Column   `json:"column"`
	Location json.RawMessage `json:"location"`
}

type dropColumnWire struct {
	Name string `json:"name"`
}

type renameTableWire struct {
	NewTableName string `json:"new_table_name"`
}

type afterWire struct {
	ColumnName string `json:"column_name"`
}

// MarshalJSON encodes the expression in its tagged wire form.
func (e AlterTableExpr) MarshalJSON() ([]byte, error) {
	var (
		body []byte
		err  error
	)
	switch op := e.Operation.(type) {
	case AddColumn:
		loc, lerr := marshalLocation(op.Location)
		if lerr != nil {
			return nil, lerr
		}
		col := op.Column
		if col.Options == nil {
			col.Options = []schema.ColumnOption{}
		}
		body, err = json.Marshal(addColumnWire{Column: col, Location: loc})
	case DropColumn:
		body, err = json.Marshal(dropColumnWire{Name: op.Name})
	case RenameTable:
		body, err = json.Marshal(renameTableWire{NewTableName: op.NewTableName})
	default:
		return nil, fmt.Errorf("ir: unknown alter operation %T", e.Operation)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(alterWire{
		TableName:    e.TableName,
		AlterOptions: map[string]json.RawMessage{e.Operation.Kind(): body},
	})
}

// UnmarshalJSON decodes the tagged wire form.
func (e *AlterTableExpr) UnmarshalJSON(data []byte) error {
	var w alterWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding alter expr: %w", err)
	}
	if len(w.AlterOptions) != 1 {
		return fmt.Errorf("decoding alter expr: expected exactly one operation, got %d", len(w.AlterOptions))
	}

	out := AlterTableExpr{TableName: w.TableName}
	for kind, body := range w.AlterOptions {
		switch kind {
		case "AddColumn":
			var add addColumnWire
			if err := json.Unmarshal(body, &add); err != nil {
				return fmt.Errorf("decoding AddColumn: %w", err)
			}
			loc, err := unmarshalLocation(add.Location)
			if err != nil {
				return err
			}
			out.Operation = AddColumn{Column: add.Column, Location: loc}
		case "DropColumn":
			var drop dropColumnWire
			if err := json.Unmarshal(body, &drop); err != nil {
				return fmt.Errorf("decoding DropColumn: %w", err)
			}
			out.Operation = DropColumn{Name: drop.Name}
		case "RenameTable":
			var rename renameTableWire
			if err := json.Unmarshal(body, &rename); err != nil {
				return fmt.Errorf("decoding RenameTable: %w", err)
			}
			out.Operation = RenameTable{NewTableName: rename.NewTableName}
		default:
			return fmt.Errorf("decoding alter expr: unknown operation %q", kind)
		}
	}
	*e = out
	return nil
}

func marshalLocation(loc Location) (json.RawMessage, error) {
	switch l := loc.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case First:
		return json.RawMessage(`"First"`), nil
	case After:
		return json.Marshal(map[string]afterWire{"After": {ColumnName: l.ColumnName}})
	default:
		return nil, fmt.Errorf("ir: unknown location %T", loc)
	}
}

func unmarshalLocation(raw json.RawMessage) (Location, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err == nil {
		if tag == "First" {
			return First{}, nil
		}
		return nil, fmt.Errorf("decoding location: unknown location %q", tag)
	}
	var after map[string]afterWire
	if err := json.Unmarshal(raw, &after); err != nil {
		return nil, fmt.Errorf("decoding location: %w", err)
	}
	a, ok := after["After"]
	if !ok || len(after) != 1 {
		return nil, fmt.Errorf("decoding location: expected After")
	}
	return After{ColumnName: a.ColumnName}, nil
}
