package cell

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Value is a single table cell. The zero Value is [Missing].
//
// Numbers are kept in their decimal string form, like DynamoDB does, so no
// precision is lost between reading an item and writing it back.
type Value struct {
	kind Kind
	str  string
	bin  []byte
	b    bool
	strs []string
	bins [][]byte
	list []Value
	m    map[string]Value
}

// Missing is the absent value. It is valid in a column of any kind.
var Missing Value

func NullValue() Value { return Value{kind: Null} }

func Str(s string) Value { return Value{kind: String, str: s} }

// Num returns a number value from its decimal representation.
func Num(s string) (Value, error) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Missing, fmt.Errorf("invalid number %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing, fmt.Errorf("invalid number %q: not finite", s)
	}
	return Value{kind: Number, str: s}, nil
}

// MustNum is like Num but panics on malformed input.
func MustNum(s string) Value {
	v, err := Num(s)
	if err != nil {
		panic(err)
	}
	return v
}

type number interface {
	constraints.Integer | constraints.Float
}

// NumberOf returns a number value for any Go integer or float.
func NumberOf[T number](n T) Value {
	switch v := any(n).(type) {
	case float32:
		return Value{kind: Number, str: strconv.FormatFloat(float64(v), 'f', -1, 32)}
	case float64:
		return Value{kind: Number, str: strconv.FormatFloat(v, 'f', -1, 64)}
	default:
		return Value{kind: Number, str: fmt.Sprint(n)}
	}
}

func Bin(b []byte) Value { return Value{kind: Binary, bin: b} }

func Boolean(b bool) Value { return Value{kind: Bool, b: b} }

func StrSet(ss ...string) Value { return Value{kind: StringSet, strs: ss} }

// NumSet returns a number set. Members are not validated.
func NumSet(ns ...string) Value { return Value{kind: NumberSet, strs: ns} }

func BinSet(bs ...[]byte) Value { return Value{kind: BinarySet, bins: bs} }

func ListOf(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: List, list: vs}
}

func MapOf(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: Map, m: m}
}

// Kind returns the kind of v, or the zero Kind for Missing.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsMissing() bool { return v.kind == 0 }

func (v Value) IsNull() bool { return v.kind == Null }

// Text returns the payload of a String or Number value.
func (v Value) Text() (string, bool) {
	if v.kind != String && v.kind != Number {
		return "", false
	}
	return v.str, true
}

// Float64 parses a Number value.
func (v Value) Float64() (float64, error) {
	if v.kind != Number {
		return 0, fmt.Errorf("value of kind %s is not a number", v.kind)
	}
	return strconv.ParseFloat(v.str, 64)
}

func (v Value) Bytes() ([]byte, bool) { return v.bin, v.kind == Binary }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == Bool }

// Strings returns the members of a StringSet or NumberSet.
func (v Value) Strings() ([]string, bool) {
	if v.kind != StringSet && v.kind != NumberSet {
		return nil, false
	}
	return v.strs, true
}

func (v Value) Binaries() ([][]byte, bool) { return v.bins, v.kind == BinarySet }

func (v Value) List() ([]Value, bool) { return v.list, v.kind == List }

func (v Value) Map() (map[string]Value, bool) { return v.m, v.kind == Map }

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case 0, Null:
		return true
	case String, Number:
		return v.str == o.str
	case Binary:
		return bytes.Equal(v.bin, o.bin)
	case Bool:
		return v.b == o.b
	case StringSet, NumberSet:
		if len(v.strs) != len(o.strs) {
			return false
		}
		for i := range v.strs {
			if v.strs[i] != o.strs[i] {
				return false
			}
		}
		return true
	case BinarySet:
		if len(v.bins) != len(o.bins) {
			return false
		}
		for i := range v.bins {
			if !bytes.Equal(v.bins[i], o.bins[i]) {
				return false
			}
		}
		return true
	case List:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case Map:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, mv := range v.m {
			ov, ok := o.m[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v for flat text output such as CSV. Scalars are rendered
// bare, binary as base64, collections as JSON. Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case 0:
		return ""
	case String, Number:
		return v.str
	case Bool:
		return strconv.FormatBool(v.b)
	case Binary:
		return base64.StdEncoding.EncodeToString(v.bin)
	case Null:
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}

// MarshalJSON encodes v as plain JSON. Numbers are emitted as JSON numbers,
// binary as base64 strings, Missing and Null as null. Map keys are sorted.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	writeString := func(s string) error {
		b, err := json.Marshal(s)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
	switch v.kind {
	case 0, Null:
		buf.WriteString("null")
	case String:
		return writeString(v.str)
	case Number:
		writeNumber(buf, v.str)
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Binary:
		return writeString(base64.StdEncoding.EncodeToString(v.bin))
	case StringSet:
		buf.WriteByte('[')
		for i, s := range v.strs {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(s); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case NumberSet:
		buf.WriteByte('[')
		for i, n := range v.strs {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeNumber(buf, n)
		}
		buf.WriteByte(']')
	case BinarySet:
		buf.WriteByte('[')
		for i, b := range v.bins {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(base64.StdEncoding.EncodeToString(b)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case List:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Map:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.m[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported kind %s", v.kind)
	}
	return nil
}

// writeNumber writes a DynamoDB number as a JSON number. Forms JSON does not
// allow, such as "+5" or ".5", are normalized through float64.
func writeNumber(buf *bytes.Buffer, n string) {
	if json.Valid([]byte(n)) {
		buf.WriteString(n)
		return
	}
	f, err := strconv.ParseFloat(n, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		buf.WriteString("null")
		return
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}
