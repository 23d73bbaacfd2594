package frame

import "github.com/acksell/ddbtable/dynamodb/cell"

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value cell.Value
}

// Record is an insertion-ordered set of named values. Names that were never
// set read as cell.Missing. The zero Record is empty and ready to use.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord returns an empty record with room for n fields.
func NewRecord(n int) *Record {
	return &Record{
		fields: make([]Field, 0, n),
		index:  make(map[string]int, n),
	}
}

// RecordOf builds a record from fields in order. Later duplicates replace
// earlier values.
func RecordOf(fields ...Field) *Record {
	r := NewRecord(len(fields))
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// Set assigns name. An existing name keeps its position.
func (r *Record) Set(name string, v cell.Value) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = v
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

func (r *Record) Get(name string) cell.Value {
	if r == nil {
		return cell.Missing
	}
	i, ok := r.index[name]
	if !ok {
		return cell.Missing
	}
	return r.fields[i].Value
}

func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Fields returns the fields in insertion order. The slice must not be
// modified.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	return r.fields
}
