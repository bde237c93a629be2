package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// contextFile is the on-disk form of a TableContext.
type contextFile struct {
	Name      string       `yaml:"name"`
	Columns   []Column     `yaml:"columns"`
	Protected []OptionKind `yaml:"protected,omitempty"`
}

// LoadYAML reads a table context from a YAML file.
func LoadYAML(path string) (*TableContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table context file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes and checks a table context.
func ParseYAML(data []byte) (*TableContext, error) {
	f := &contextFile{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing table context: %w", err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("table context has no name")
	}
	seen := make(map[string]bool, len(f.Columns))
	for _, c := range f.Columns {
		if c.Name == "" {
			return nil, fmt.Errorf("table %s has a column without a name", f.Name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("table %s has duplicate column %s", f.Name, c.Name)
		}
		seen[c.Name] = true
		if !c.Type.Valid() {
			return nil, fmt.Errorf("column %s has unknown type %q", c.Name, c.Type)
		}
	}
	return NewTableContext(f.Name, f.Columns, f.Protected...), nil
}

// WriteYAML writes the context to a YAML file at the given path.
func (t *TableContext) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := t.ToYAML()
	if err != nil {
		return fmt.Errorf("marshaling table context: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// ToYAML returns the context as a YAML byte slice.
func (t *TableContext) ToYAML() ([]byte, error) {
	return yaml.Marshal(&contextFile{
		Name:      t.name,
		Columns:   t.columns,
		Protected: t.protected,
	})
}
