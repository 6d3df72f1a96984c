package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// render writes a call's return value in a human-readable form: lists of
// flat objects become a table, everything else is indented JSON. An
// empty list renders as "[]".
func render(w io.Writer, v interface{}) error {
	if items, ok := v.([]interface{}); ok {
		if len(items) == 0 {
			fmt.Fprintln(w, "[]")
			return nil
		}
		if columns, rows, ok := tabular(items); ok {
			renderTable(w, columns, rows)
			return nil
		}
	}
	return renderJSON(w, v)
}

// tabular flattens a homogeneous list of objects with scalar fields into
// column names and rows. Nested or mixed-shape results do not qualify
// and fall back to JSON.
func tabular(items []interface{}) ([]string, [][]interface{}, bool) {
	columnSet := map[string]bool{}
	objects := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, nil, false
		}
		for key, val := range obj {
			switch val.(type) {
			case nil, bool, float64, string:
			default:
				return nil, nil, false
			}
			columnSet[key] = true
		}
		objects = append(objects, obj)
	}

	columns := make([]string, 0, len(columnSet))
	for key := range columnSet {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	rows := make([][]interface{}, 0, len(objects))
	for _, obj := range objects {
		row := make([]interface{}, len(columns))
		for i, col := range columns {
			if val, ok := obj[col]; ok && val != nil {
				row[i] = val
			} else {
				row[i] = ""
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, true
}

func renderTable(w io.Writer, columns []string, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
}

func renderJSON(w io.Writer, v interface{}) error {
	data, err := jsoniter.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "rendering result")
	}
	fmt.Fprintln(w, string(data))
	return nil
}
