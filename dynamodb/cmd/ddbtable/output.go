package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/acksell/ddbtable/dynamodb/frame"
	"gopkg.in/yaml.v3"
)

type formatter func(w io.Writer, t frame.Table) error

func formatterFor(name string) (formatter, error) {
	switch name {
	case "csv", "":
		return writeCSV, nil
	case "jsonl", "json":
		return writeJSONL, nil
	case "schema":
		return writeSchema, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want csv, jsonl or schema)", name)
	}
}

// writeCSV writes a header of column names, then one record per row. Missing
// cells are empty; collections are JSON.
func writeCSV(w io.Writer, t frame.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Schema().Names()); err != nil {
		return err
	}
	record := make([]string, t.Schema().Len())
	err := t.Scan(func(r frame.Row) error {
		for i, v := range r.Cells {
			record[i] = v.String()
		}
		return cw.Write(record)
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// writeJSONL writes one object per row with the row id under "_row" followed
// by the columns in table order. Missing cells are left out.
func writeJSONL(w io.Writer, t frame.Table) error {
	bw := bufio.NewWriter(w)
	names := t.Schema().Names()
	keys := make([][]byte, len(names))
	for i, name := range names {
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	err := t.Scan(func(r frame.Row) error {
		id, err := json.Marshal(r.ID)
		if err != nil {
			return err
		}
		bw.WriteString(`{"_row":`)
		bw.Write(id)
		for i, v := range r.Cells {
			if v.IsMissing() {
				continue
			}
			val, err := v.MarshalJSON()
			if err != nil {
				return fmt.Errorf("row %s column %s: %w", r.ID, names[i], err)
			}
			bw.WriteByte(',')
			bw.Write(keys[i])
			bw.WriteByte(':')
			bw.Write(val)
		}
		_, err = bw.WriteString("}\n")
		return err
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

type schemaReport struct {
	Rows    int            `yaml:"rows"`
	Columns []frame.Column `yaml:"columns"`
}

func writeSchema(w io.Writer, t frame.Table) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(schemaReport{Rows: t.Len(), Columns: t.Schema().Columns}); err != nil {
		return err
	}
	return enc.Close()
}
