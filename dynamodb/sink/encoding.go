package sink

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/acksell/ddbtable/dynamodb/cell"
	"github.com/acksell/ddbtable/dynamodb/frame"
)

// Key layout: [8-byte sink id][8-byte row sequence], both big-endian, so a
// prefix iteration over one sink returns its rows in append order.

const keyLen = 16

func sinkPrefix(id uint64) []byte {
	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, id)
	return p
}

func rowKey(id, seq uint64) []byte {
	k := make([]byte, keyLen)
	binary.BigEndian.PutUint64(k, id)
	binary.BigEndian.PutUint64(k[8:], seq)
	return k
}

// storedRow is the gob-encodable form of a frame.Row.
type storedRow struct {
	ID    string
	Cells []storedCell
}

// storedCell is the gob-encodable form of a cell.Value. Kind is stored as a
// plain integer because cell.Kind's text form has no encoding for Missing.
type storedCell struct {
	Kind uint8
	Text string
	Bin  []byte
	Bool bool
	Strs []string
	Bins [][]byte
	List []storedCell
	Map  map[string]storedCell
}

func encodeRow(r frame.Row) ([]byte, error) {
	sr := storedRow{ID: r.ID, Cells: make([]storedCell, len(r.Cells))}
	for i, v := range r.Cells {
		sr.Cells[i] = toStored(v)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(sr); err != nil {
		return nil, fmt.Errorf("encode row %q: %w", r.ID, err)
	}
	return buf.Bytes(), nil
}

func decodeRow(data []byte) (frame.Row, error) {
	var sr storedRow
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&sr); err != nil {
		return frame.Row{}, fmt.Errorf("decode row: %w", err)
	}
	r := frame.Row{ID: sr.ID, Cells: make([]cell.Value, len(sr.Cells))}
	for i, sc := range sr.Cells {
		v, err := fromStored(sc)
		if err != nil {
			return frame.Row{}, fmt.Errorf("decode row %q cell %d: %w", sr.ID, i, err)
		}
		r.Cells[i] = v
	}
	return r, nil
}

func toStored(v cell.Value) storedCell {
	sc := storedCell{Kind: uint8(v.Kind())}
	switch v.Kind() {
	case cell.String, cell.Number:
		sc.Text, _ = v.Text()
	case cell.Binary:
		sc.Bin, _ = v.Bytes()
	case cell.Bool:
		sc.Bool, _ = v.Bool()
	case cell.StringSet, cell.NumberSet:
		sc.Strs, _ = v.Strings()
	case cell.BinarySet:
		sc.Bins, _ = v.Binaries()
	case cell.List:
		l, _ := v.List()
		sc.List = make([]storedCell, len(l))
		for i, item := range l {
			sc.List[i] = toStored(item)
		}
	case cell.Map:
		m, _ := v.Map()
		sc.Map = make(map[string]storedCell, len(m))
		for k, item := range m {
			sc.Map[k] = toStored(item)
		}
	}
	return sc
}

func fromStored(sc storedCell) (cell.Value, error) {
	switch cell.Kind(sc.Kind) {
	case 0:
		return cell.Missing, nil
	case cell.Null:
		return cell.NullValue(), nil
	case cell.String:
		return cell.Str(sc.Text), nil
	case cell.Number:
		return cell.Num(sc.Text)
	case cell.Binary:
		return cell.Bin(sc.Bin), nil
	case cell.Bool:
		return cell.Boolean(sc.Bool), nil
	case cell.StringSet:
		return cell.StrSet(sc.Strs...), nil
	case cell.NumberSet:
		return cell.NumSet(sc.Strs...), nil
	case cell.BinarySet:
		return cell.BinSet(sc.Bins...), nil
	case cell.List:
		l := make([]cell.Value, len(sc.List))
		for i, item := range sc.List {
			v, err := fromStored(item)
			if err != nil {
				return cell.Missing, err
			}
			l[i] = v
		}
		return cell.ListOf(l...), nil
	case cell.Map:
		m := make(map[string]cell.Value, len(sc.Map))
		for k, item := range sc.Map {
			v, err := fromStored(item)
			if err != nil {
				return cell.Missing, err
			}
			m[k] = v
		}
		return cell.MapOf(m), nil
	default:
		return cell.Missing, fmt.Errorf("unsupported stored kind %d", sc.Kind)
	}
}
