package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// TableFormatter renders tables with aligned columns.
//
// Accepted data: *Table or Table, a slice of structs (one row per
// element, one column per exported field), a map (KEY/VALUE rows sorted by
// key) or a single struct (FIELD/VALUE rows). Anything else is written as
// JSON.
type TableFormatter struct {
	NoHeaders bool
}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	switch t := data.(type) {
	case *Table:
		return t.render(w, f.NoHeaders)
	case Table:
		return t.render(w, f.NoHeaders)
	}

	t, ok := toTable(reflect.ValueOf(data))
	if !ok {
		return (&JSONFormatter{}).Format(w, data)
	}
	return t.render(w, f.NoHeaders)
}

func toTable(v reflect.Value) (*Table, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return &Table{}, true
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceTable(v)
	case reflect.Map:
		return mapTable(v), true
	case reflect.Struct:
		if v.Type() == timeType {
			return nil, false
		}
		return structTable(v), true
	}
	return nil, false
}

// column returns the header for an exported field, or false to skip it.
func column(f reflect.StructField) (string, bool) {
	if !f.IsExported() || f.Tag.Get("table") == "-" {
		return "", false
	}
	name := f.Name
	if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == "-" {
		return "", false
	} else if tag != "" {
		name = tag
	}
	return strings.ToUpper(snake(name)), true
}

func sliceTable(v reflect.Value) (*Table, bool) {
	elem := v.Type().Elem()
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	t := &Table{}
	if elem.Kind() != reflect.Struct || elem == timeType {
		t.Headers = []string{"VALUE"}
		for i := 0; i < v.Len(); i++ {
			t.AddRow(cell(v.Index(i)))
		}
		return t, true
	}

	var fields []int
	for i := 0; i < elem.NumField(); i++ {
		if h, ok := column(elem.Field(i)); ok {
			t.Headers = append(t.Headers, h)
			fields = append(fields, i)
		}
	}
	for i := 0; i < v.Len(); i++ {
		row := v.Index(i)
		for row.Kind() == reflect.Ptr {
			row = row.Elem()
		}
		cells := make([]string, len(fields))
		if row.IsValid() {
			for j, idx := range fields {
				cells[j] = cell(row.Field(idx))
			}
		}
		t.AddRow(cells...)
	}
	return t, true
}

func mapTable(v reflect.Value) *Table {
	t := &Table{Headers: []string{"KEY", "VALUE"}}
	iter := v.MapRange()
	for iter.Next() {
		t.AddRow(cell(iter.Key()), cell(iter.Value()))
	}
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i][0] < t.Rows[j][0] })
	return t
}

func structTable(v reflect.Value) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		h, ok := column(typ.Field(i))
		if !ok {
			continue
		}
		t.AddRow(strings.ToLower(h), cell(v.Field(i)))
	}
	return t
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// cell formats one value for display; empty values render as "-".
func cell(v reflect.Value) string {
	if !v.IsValid() {
		return "-"
	}
	if (v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr) && v.IsNil() {
		return "-"
	}

	switch {
	case v.Type() == timeType:
		ts := v.Interface().(time.Time)
		if ts.IsZero() {
			return "-"
		}
		return ts.Local().Format("2006-01-02 15:04:05")
	case v.Type() == durationType:
		return v.Interface().(time.Duration).String()
	case v.Type().Implements(errorType):
		return v.Interface().(error).Error()
	case v.Type().Implements(stringerType) && v.Kind() != reflect.Ptr:
		return v.Interface().(fmt.Stringer).String()
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		return cell(v.Elem())
	case reflect.String:
		if v.Len() == 0 {
			return "-"
		}
		return v.String()
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%.2f", v.Float())
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		if (v.Kind() == reflect.Slice || v.Kind() == reflect.Map) && v.Len() == 0 {
			return "-"
		}
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return fmt.Sprintf("%v", v.Interface())
		}
		return string(b)
	}
	return fmt.Sprintf("%v", v.Interface())
}

// snake converts CamelCase to Camel_Case; the caller upper-cases it.
func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' && s[i-1] >= 'a' && s[i-1] <= 'z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Table is tabular data with optional headers.
type Table struct {
	Headers []string
	Rows    [][]string
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table with headers.
func (t *Table) Render(w io.Writer) error {
	return t.render(w, false)
}

func (t *Table) render(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
