package mapping

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	objectTag = "cql"
	columnTag = "column"
)

// Table binds a mapped Go struct type to its table definition. Build one
// with TableFromObject; the result is immutable and safe for concurrent use.
type Table struct {
	Definition
	goType        reflect.Type
	columnToField map[string]string
}

// TableFromObject builds table metadata from an annotated struct. The
// argument must be a pointer to a struct embedding the Object marker with a
// cql tag in the form:
//
//	cql:"name=<table>, primaryKey=((pk1, pk2), ck1 desc, ck2)"
func TableFromObject(e Object) (*Table, error) {
	t := reflect.TypeOf(e)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("mapped object must be a pointer to struct, got %T", e)
	}
	st := t.Elem()

	table := &Table{
		Definition: Definition{
			ColumnToType: map[string]reflect.Type{},
		},
		goType:        st,
		columnToField: map[string]string{},
	}

	var sawMarker bool
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)

		if f.Anonymous && f.Type.Implements(reflect.TypeOf((*Object)(nil)).Elem()) {
			if err := table.applyObjectTag(st, f); err != nil {
				return nil, err
			}
			sawMarker = true
			continue
		}
		if f.PkgPath != "" { // unexported
			continue
		}

		col, err := columnFromField(f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", st.Name(), f.Name, err)
		}
		if col == nil {
			continue
		}
		if _, dup := table.ColumnToType[col.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate column %q", st.Name(), col.Name)
		}
		table.Columns = append(table.Columns, *col)
		table.ColumnToType[col.Name] = col.GoType
		table.columnToField[col.Name] = f.Name
	}

	if !sawMarker {
		return nil, fmt.Errorf("%s does not embed mapping.Object with a %s tag", st.Name(), objectTag)
	}
	if err := table.validateKey(); err != nil {
		return nil, fmt.Errorf("%s: %w", st.Name(), err)
	}
	return table, nil
}

func (t *Table) applyObjectTag(st reflect.Type, f reflect.StructField) error {
	tag, ok := f.Tag.Lookup(objectTag)
	if !ok {
		return fmt.Errorf("%s: embedded marker needs a %s tag", st.Name(), objectTag)
	}
	opts, err := splitTagOptions(tag)
	if err != nil {
		return fmt.Errorf("%s: %w", st.Name(), err)
	}
	t.Name = opts["name"]
	if t.Name == "" {
		t.Name = SnakeCase(st.Name())
	}
	pk, ok := opts["primaryKey"]
	if !ok {
		return fmt.Errorf("%s: missing primaryKey in %s tag", st.Name(), objectTag)
	}
	key, err := parsePrimaryKey(pk)
	if err != nil {
		return fmt.Errorf("%s: %w", st.Name(), err)
	}
	t.Key = key
	return nil
}

func (t *Table) validateKey() error {
	if t.Key == nil || len(t.Key.PartitionKeys) == 0 {
		return fmt.Errorf("primary key must name at least one partition key")
	}
	for _, name := range t.KeyColumnNames() {
		if _, ok := t.ColumnToType[name]; !ok {
			return fmt.Errorf("primary key column %q is not a mapped field", name)
		}
	}
	return nil
}

// columnFromField builds a column definition from one struct field. A
// column tag of "-" skips the field; a missing name option falls back to
// the snake_case field name.
func columnFromField(f reflect.StructField) (*ColumnDef, error) {
	tag := f.Tag.Get(columnTag)
	if tag == "-" {
		return nil, nil
	}
	opts, err := splitTagOptions(tag)
	if err != nil {
		return nil, err
	}

	col := &ColumnDef{
		Name:   opts["name"],
		Field:  f.Name,
		GoType: f.Type,
	}
	if col.Name == "" {
		col.Name = SnakeCase(f.Name)
	}

	if typeStr, ok := opts["type"]; ok {
		col.CQLType, err = ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
	} else {
		col.CQLType, err = CQLTypeOf(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
	}
	return col, nil
}

// parsePrimaryKey parses "((pk1, pk2), ck1 desc, ck2)" into key metadata.
func parsePrimaryKey(s string) (*PrimaryKey, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("primaryKey must be parenthesized, got %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, fmt.Errorf("primaryKey is empty")
	}
	if inner[0] != '(' {
		return nil, fmt.Errorf("primaryKey must group partition keys: ((pk...), ck...), got %q", s)
	}
	close := strings.IndexByte(inner, ')')
	if close < 0 {
		return nil, fmt.Errorf("unbalanced parentheses in primaryKey %q", s)
	}

	key := &PrimaryKey{}
	for _, name := range strings.Split(inner[1:close], ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			key.PartitionKeys = append(key.PartitionKeys, name)
		}
	}
	if len(key.PartitionKeys) == 0 {
		return nil, fmt.Errorf("primaryKey names no partition keys: %q", s)
	}

	rest := strings.TrimSpace(inner[close+1:])
	rest = strings.TrimPrefix(rest, ",")
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ck := &ClusteringKey{Name: part}
		if fields := strings.Fields(part); len(fields) == 2 {
			ck.Name = fields[0]
			switch strings.ToLower(fields[1]) {
			case "desc":
				ck.Descending = true
			case "asc":
			default:
				return nil, fmt.Errorf("invalid clustering order %q", fields[1])
			}
		} else if len(fields) > 2 {
			return nil, fmt.Errorf("invalid clustering key %q", part)
		}
		key.ClusteringKeys = append(key.ClusteringKeys, ck)
	}
	return key, nil
}

// splitTagOptions parses "k1=v1, k2=v2" pairs. Values may contain commas
// inside parentheses, as the primaryKey option does.
func splitTagOptions(tag string) (map[string]string, error) {
	opts := map[string]string{}
	depth := 0
	start := 0
	flush := func(end int) error {
		part := strings.TrimSpace(tag[start:end])
		if part == "" {
			return nil
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			return fmt.Errorf("malformed tag option %q", part)
		}
		opts[strings.TrimSpace(part[:eq])] = strings.TrimSpace(part[eq+1:])
		return nil
	}
	for i := 0; i < len(tag); i++ {
		switch tag[i] {
		case '(', '<':
			depth++
		case ')', '>':
			depth--
		case ',':
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses in tag %q", tag)
	}
	if err := flush(len(tag)); err != nil {
		return nil, err
	}
	return opts, nil
}

// GoType returns the mapped struct type.
func (t *Table) GoType() reflect.Type { return t.goType }

// FieldName returns the Go field backing a column name.
func (t *Table) FieldName(column string) (string, bool) {
	f, ok := t.columnToField[column]
	return f, ok
}

// RowFromObject extracts a row from the object. With no column arguments it
// extracts every mapped column; otherwise only the named columns.
func (t *Table) RowFromObject(e Object, columns ...string) []Column {
	rv := reflect.ValueOf(e).Elem()
	if len(columns) == 0 {
		columns = t.ColumnNames()
	}
	row := make([]Column, 0, len(columns))
	for _, name := range columns {
		field, ok := t.columnToField[name]
		if !ok {
			continue
		}
		row = append(row, Column{Name: name, Value: fieldValue(rv.FieldByName(field))})
	}
	return row
}

// KeyRowFromObject extracts the full primary key from the object, partition
// keys first. Nil pointer key fields are skipped.
func (t *Table) KeyRowFromObject(e Object) []Column {
	return t.keyRow(e, t.KeyColumnNames())
}

// PartitionKeyRowFromObject extracts only the partition key columns.
func (t *Table) PartitionKeyRowFromObject(e Object) []Column {
	return t.keyRow(e, t.Key.PartitionKeys)
}

func (t *Table) keyRow(e Object, names []string) []Column {
	rv := reflect.ValueOf(e).Elem()
	row := make([]Column, 0, len(names))
	for _, name := range names {
		field := rv.FieldByName(t.columnToField[name])
		if field.Kind() == reflect.Ptr && field.IsNil() {
			continue
		}
		row = append(row, Column{Name: name, Value: fieldValue(field)})
	}
	return row
}

// SetField assigns a value to the struct field backing the named column.
// Nil values reset the field to its zero value. Numeric values convert when
// the representation differs but the kind family matches.
func (t *Table) SetField(e Object, column string, value interface{}) error {
	fieldName, ok := t.columnToField[column]
	if !ok {
		return fmt.Errorf("no mapped field for column %q in table %q", column, t.Name)
	}
	field := reflect.ValueOf(e).Elem().FieldByName(fieldName)

	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	vv := reflect.ValueOf(value)
	ft := field.Type()

	// pointer targets allocate, pointer sources dereference
	if ft.Kind() == reflect.Ptr && vv.Kind() != reflect.Ptr {
		p := reflect.New(ft.Elem())
		if err := assign(p.Elem(), vv); err != nil {
			return fmt.Errorf("column %q: %w", column, err)
		}
		field.Set(p)
		return nil
	}
	if vv.Kind() == reflect.Ptr && ft.Kind() != reflect.Ptr {
		if vv.IsNil() {
			field.Set(reflect.Zero(ft))
			return nil
		}
		vv = vv.Elem()
	}
	if err := assign(field, vv); err != nil {
		return fmt.Errorf("column %q: %w", column, err)
	}
	return nil
}

func assign(dst, src reflect.Value) error {
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()) && convertible(dst.Kind(), src.Kind()):
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot assign %s to %s", src.Type(), dst.Type())
	}
	return nil
}

// convertible restricts reflect conversions to same-family kinds so that,
// for example, an int never silently converts to a string.
func convertible(dst, src reflect.Kind) bool {
	return kindFamily(dst) != familyOther && kindFamily(dst) == kindFamily(src)
}

type family int

const (
	familyOther family = iota
	familyInt
	familyFloat
	familyString
)

func kindFamily(k reflect.Kind) family {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return familyInt
	case reflect.Float32, reflect.Float64:
		return familyFloat
	case reflect.String:
		return familyString
	}
	return familyOther
}

// SetObjectFromRow populates the object from a row, ignoring columns with
// no mapped field.
func (t *Table) SetObjectFromRow(e Object, row []Column) error {
	for _, col := range row {
		if _, ok := t.columnToField[col.Name]; !ok {
			continue
		}
		if err := t.SetField(e, col.Name, col.Value); err != nil {
			return err
		}
	}
	return nil
}

func fieldValue(v reflect.Value) interface{} {
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return nil
	}
	return v.Interface()
}
