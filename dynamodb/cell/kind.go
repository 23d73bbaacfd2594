// Package cell defines the values stored in table cells and the lattice of
// column kinds used to infer a table schema from schemaless items.
//
// The kinds mirror the DynamoDB attribute types. Every pair of kinds has a
// least common supertype, computed by [Join]:
//
//	                 Any
//	   /    /    /    |    \     \
//	String Number Binary Bool Map List
//	                              /  |  \
//	                    StringSet NumberSet BinarySet
//
// Null sits below every kind, and the zero Kind (the kind of [Missing]) is
// the identity of Join.
package cell

import (
	"fmt"
	"strings"
)

type Kind uint8

const (
	// Null is the kind of an explicit DynamoDB NULL attribute.
	Null Kind = iota + 1
	String
	Number
	Binary
	Bool
	StringSet
	NumberSet
	BinarySet
	List
	Map
	// Any accepts values of every kind.
	Any
)

// Kinds lists every valid column kind.
var Kinds = []Kind{Null, String, Number, Binary, Bool, StringSet, NumberSet, BinarySet, List, Map, Any}

var kindNames = [...]string{
	0:         "",
	Null:      "NULL",
	String:    "S",
	Number:    "N",
	Binary:    "B",
	Bool:      "BOOL",
	StringSet: "SS",
	NumberSet: "NS",
	BinarySet: "BS",
	List:      "L",
	Map:       "M",
	Any:       "ANY",
}

// Valid reports whether k is a column kind. The zero Kind is not.
func (k Kind) Valid() bool {
	return k >= Null && k <= Any
}

func (k Kind) String() string {
	switch {
	case k == 0:
		return "MISSING"
	case k.Valid():
		return kindNames[k]
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind is the inverse of String for valid kinds.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(kindNames[k], s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid kind %d", k)
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Kind) isSet() bool {
	return k == StringSet || k == NumberSet || k == BinarySet
}

// Join returns the least kind that accepts every value accepted by a or b.
// It is commutative, associative and idempotent.
func Join(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case a == 0:
		return b
	case b == 0:
		return a
	case a == Null:
		return b
	case b == Null:
		return a
	case a == Any || b == Any:
		return Any
	case a.isSet() && (b.isSet() || b == List):
		return List
	case b.isSet() && a == List:
		return List
	default:
		return Any
	}
}

// Accepts reports whether a column of kind k can hold values of kind v
// without widening.
func (k Kind) Accepts(v Kind) bool {
	return Join(k, v) == k
}
