// Package attrconv converts between DynamoDB attribute values and table
// cells, and between items and table records.
package attrconv

import (
	"fmt"
	"sort"

	"github.com/acksell/ddbtable/dynamodb/cell"
	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a raw DynamoDB item.
type Item = map[string]types.AttributeValue

// FromAttributeValue converts a DynamoDB attribute value to a cell value.
func FromAttributeValue(av types.AttributeValue) (cell.Value, error) {
	switch v := av.(type) {
	case nil:
		return cell.Missing, nil
	case *types.AttributeValueMemberS:
		return cell.Str(v.Value), nil
	case *types.AttributeValueMemberN:
		return cell.Num(v.Value)
	case *types.AttributeValueMemberB:
		return cell.Bin(v.Value), nil
	case *types.AttributeValueMemberBOOL:
		return cell.Boolean(v.Value), nil
	case *types.AttributeValueMemberNULL:
		return cell.NullValue(), nil
	case *types.AttributeValueMemberSS:
		return cell.StrSet(v.Value...), nil
	case *types.AttributeValueMemberNS:
		return cell.NumSet(v.Value...), nil
	case *types.AttributeValueMemberBS:
		return cell.BinSet(v.Value...), nil
	case *types.AttributeValueMemberL:
		l := make([]cell.Value, len(v.Value))
		for i, item := range v.Value {
			c, err := FromAttributeValue(item)
			if err != nil {
				return cell.Missing, fmt.Errorf("list index %d: %w", i, err)
			}
			l[i] = c
		}
		return cell.ListOf(l...), nil
	case *types.AttributeValueMemberM:
		m := make(map[string]cell.Value, len(v.Value))
		for k, item := range v.Value {
			c, err := FromAttributeValue(item)
			if err != nil {
				return cell.Missing, fmt.Errorf("map key %q: %w", k, err)
			}
			m[k] = c
		}
		return cell.MapOf(m), nil
	default:
		return cell.Missing, fmt.Errorf("unsupported attribute value type: %T", av)
	}
}

// ToAttributeValue converts a cell value to a DynamoDB attribute value. It
// returns false for Missing, which has no attribute representation.
func ToAttributeValue(v cell.Value) (types.AttributeValue, bool) {
	switch v.Kind() {
	case cell.Null:
		return &types.AttributeValueMemberNULL{Value: true}, true
	case cell.String:
		s, _ := v.Text()
		return &types.AttributeValueMemberS{Value: s}, true
	case cell.Number:
		s, _ := v.Text()
		return &types.AttributeValueMemberN{Value: s}, true
	case cell.Binary:
		b, _ := v.Bytes()
		return &types.AttributeValueMemberB{Value: b}, true
	case cell.Bool:
		b, _ := v.Bool()
		return &types.AttributeValueMemberBOOL{Value: b}, true
	case cell.StringSet:
		ss, _ := v.Strings()
		return &types.AttributeValueMemberSS{Value: ss}, true
	case cell.NumberSet:
		ns, _ := v.Strings()
		return &types.AttributeValueMemberNS{Value: ns}, true
	case cell.BinarySet:
		bs, _ := v.Binaries()
		return &types.AttributeValueMemberBS{Value: bs}, true
	case cell.List:
		l, _ := v.List()
		out := make([]types.AttributeValue, 0, len(l))
		for _, item := range l {
			// DynamoDB lists cannot hold gaps; Missing becomes NULL.
			av, ok := ToAttributeValue(item)
			if !ok {
				av = &types.AttributeValueMemberNULL{Value: true}
			}
			out = append(out, av)
		}
		return &types.AttributeValueMemberL{Value: out}, true
	case cell.Map:
		m, _ := v.Map()
		out := make(map[string]types.AttributeValue, len(m))
		for k, item := range m {
			if av, ok := ToAttributeValue(item); ok {
				out[k] = av
			}
		}
		return &types.AttributeValueMemberM{Value: out}, true
	default:
		return nil, false
	}
}

// RecordFromItem converts an item to a record. The leading attributes (the
// table's key attributes, typically) come first in the given order; the
// remaining attributes follow sorted by name, so records built from items
// with the same attributes always have the same field order.
func RecordFromItem(item Item, leading ...string) (*frame.Record, error) {
	rec := frame.NewRecord(len(item))
	placed := make(map[string]bool, len(leading))
	for _, name := range leading {
		av, ok := item[name]
		if !ok || placed[name] {
			continue
		}
		v, err := FromAttributeValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		rec.Set(name, v)
		placed[name] = true
	}

	rest := make([]string, 0, len(item))
	for name := range item {
		if !placed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		v, err := FromAttributeValue(item[name])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		rec.Set(name, v)
	}
	return rec, nil
}

// ItemFromRow converts a table row back to an item. Missing cells are left
// out.
func ItemFromRow(schema frame.Schema, row frame.Row) (Item, error) {
	if len(row.Cells) != schema.Len() {
		return nil, fmt.Errorf("%w: row %q has %d cells, schema has %d columns", frame.ErrRowWidth, row.ID, len(row.Cells), schema.Len())
	}
	item := make(Item, len(row.Cells))
	for i, v := range row.Cells {
		if av, ok := ToAttributeValue(v); ok {
			item[schema.Columns[i].Name] = av
		}
	}
	return item, nil
}

// ItemsFromTable converts every row of t to an item.
func ItemsFromTable(t frame.Table) ([]Item, error) {
	schema := t.Schema()
	items := make([]Item, 0, t.Len())
	err := t.Scan(func(r frame.Row) error {
		item, err := ItemFromRow(schema, r)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MarshalRecord marshals a Go value (usually a struct with dynamodbav tags)
// into a record, going through attributevalue.MarshalMap.
func MarshalRecord(v any, leading ...string) (*frame.Record, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return RecordFromItem(item, leading...)
}
