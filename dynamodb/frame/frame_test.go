package frame

import (
	"testing"

	"github.com/acksell/ddbtable/dynamodb/cell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewSchema(t *testing.T) {
	t.Run("rejects duplicate names", func(t *testing.T) {
		_, err := NewSchema(Column{"a", cell.String}, Column{"a", cell.Number})
		assert.ErrorContains(t, err, "duplicate column")
	})

	t.Run("rejects missing kind", func(t *testing.T) {
		_, err := NewSchema(Column{"a", 0})
		assert.ErrorContains(t, err, "invalid kind")
	})

	t.Run("lookups", func(t *testing.T) {
		s := MustSchema(Column{"a", cell.String}, Column{"b", cell.Number})
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, 1, s.Index("b"))
		assert.Equal(t, -1, s.Index("c"))
		assert.Equal(t, []string{"a", "b"}, s.Names())
		assert.Equal(t, "[a:S, b:N]", s.String())
	})
}

func TestSchema_Accepts(t *testing.T) {
	wide := MustSchema(Column{"a", cell.Any}, Column{"b", cell.List})

	assert.True(t, wide.Accepts(MustSchema(Column{"a", cell.Number})))
	assert.True(t, wide.Accepts(MustSchema(Column{"b", cell.StringSet}, Column{"a", cell.Map})))
	assert.False(t, wide.Accepts(MustSchema(Column{"c", cell.String})))
	assert.False(t, wide.Accepts(MustSchema(Column{"b", cell.Map})))
}

func TestSchema_Clone(t *testing.T) {
	s := MustSchema(Column{"a", cell.String})
	c := s.Clone()
	c.Columns[0].Kind = cell.Any
	assert.Equal(t, cell.String, s.Columns[0].Kind)
}

func TestSchema_YAML(t *testing.T) {
	s := MustSchema(Column{"id", cell.String}, Column{"tags", cell.StringSet})

	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), "kind: SS")

	var got Schema
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, s, got)
}

func TestRecord(t *testing.T) {
	var r Record
	r.Set("b", cell.Str("1"))
	r.Set("a", cell.Str("2"))
	r.Set("b", cell.Str("3"))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []Field{{"b", cell.Str("3")}, {"a", cell.Str("2")}}, r.Fields())
	assert.Equal(t, cell.Str("2"), r.Get("a"))
	assert.True(t, r.Get("zzz").IsMissing())

	var nilRec *Record
	assert.True(t, nilRec.Get("a").IsMissing())
	assert.Equal(t, 0, nilRec.Len())
	assert.Nil(t, nilRec.Fields())
}

func TestRecordOf(t *testing.T) {
	r := RecordOf(Field{"x", cell.NumberOf(1)}, Field{"y", cell.NumberOf(2)}, Field{"x", cell.NumberOf(3)})
	assert.Equal(t, []Field{{"x", cell.NumberOf(3)}, {"y", cell.NumberOf(2)}}, r.Fields())
}
