// Package frame holds the table-shaped types shared by the builder, the sinks
// and the DynamoDB row producers: ordered schemas, rows positioned by a
// schema, and insertion-ordered records.
package frame

import (
	"fmt"

	"github.com/acksell/ddbtable/dynamodb/cell"
)

// Column is a named, typed column of a table.
type Column struct {
	Name string    `yaml:"name" json:"name"`
	Kind cell.Kind `yaml:"kind" json:"kind"`
}

// Schema is an ordered list of uniquely named columns. Column position is
// significant: row cells are laid out in schema order.
type Schema struct {
	Columns []Column `yaml:"columns" json:"columns"`
}

// NewSchema builds a schema, rejecting duplicate names and invalid kinds.
func NewSchema(cols ...Column) (Schema, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return Schema{}, fmt.Errorf("duplicate column %q", c.Name)
		}
		if !c.Kind.Valid() {
			return Schema{}, fmt.Errorf("column %q has invalid kind %s", c.Name, c.Kind)
		}
		seen[c.Name] = struct{}{}
	}
	return Schema{Columns: cols}, nil
}

// MustSchema is NewSchema for literals in tests and examples.
func MustSchema(cols ...Column) Schema {
	s, err := NewSchema(cols...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Schema) Len() int { return len(s.Columns) }

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns a name to position map for repeated lookups.
func (s Schema) Lookup() map[string]int {
	m := make(map[string]int, len(s.Columns))
	for i, c := range s.Columns {
		m[c.Name] = i
	}
	return m
}

func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Clone returns a schema that does not share its column slice with s.
func (s Schema) Clone() Schema {
	cols := make([]Column, len(s.Columns))
	copy(cols, s.Columns)
	return Schema{Columns: cols}
}

// Accepts reports whether every column of o exists in s with a kind that
// accepts o's kind.
func (s Schema) Accepts(o Schema) bool {
	idx := s.Lookup()
	for _, c := range o.Columns {
		i, ok := idx[c.Name]
		if !ok || !s.Columns[i].Kind.Accepts(c.Kind) {
			return false
		}
	}
	return true
}

func (s Schema) String() string {
	out := "["
	for i, c := range s.Columns {
		if i > 0 {
			out += ", "
		}
		out += c.Name + ":" + c.Kind.String()
	}
	return out + "]"
}
