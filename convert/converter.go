package convert

import (
	"encoding"
	"math/big"
	"reflect"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"gopkg.in/inf.v0"

	"github.com/casmap/casmap/cqlerr"
	"github.com/casmap/casmap/mapping"
)

// Converter moves values between mapped objects and driver rows.
type Converter struct {
	registry *Registry
}

// New returns a Converter backed by the given registry; a nil registry
// gets the built-in defaults.
func New(registry *Registry) *Converter {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Converter{registry: registry}
}

// Registry exposes the converter's registry for custom registrations.
func (c *Converter) Registry() *Registry { return c.registry }

// Write converts the object's mapped fields into driver-ready columns.
// With no column arguments every mapped column is written; otherwise only
// the named columns.
func (c *Converter) Write(e mapping.Object, t *mapping.Table, columns ...string) ([]mapping.Column, error) {
	return c.convertRow(t, t.RowFromObject(e, columns...))
}

// WriteKey converts the object's primary key columns.
func (c *Converter) WriteKey(e mapping.Object, t *mapping.Table) ([]mapping.Column, error) {
	return c.convertRow(t, t.KeyRowFromObject(e))
}

// WritePartitionKey converts only the partition key columns.
func (c *Converter) WritePartitionKey(e mapping.Object, t *mapping.Table) ([]mapping.Column, error) {
	return c.convertRow(t, t.PartitionKeyRowFromObject(e))
}

func (c *Converter) convertRow(t *mapping.Table, row []mapping.Column) ([]mapping.Column, error) {
	for i := range row {
		v, err := c.toColumnValue(row[i].Value)
		if err != nil {
			return nil, cqlerr.NewMappingError(t.Name, row[i].Name, "%v", err)
		}
		row[i].Value = v
	}
	return row, nil
}

// Read populates the object from a driver row keyed by column name,
// applying registered conversions and driver type widening.
func (c *Converter) Read(row map[string]interface{}, e mapping.Object, t *mapping.Table) error {
	for name, value := range row {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		converted, err := c.fromColumnValue(value, col.GoType)
		if err != nil {
			return cqlerr.NewMappingError(t.Name, name, "%v", err)
		}
		if err := t.SetField(e, name, converted); err != nil {
			return cqlerr.NewMappingError(t.Name, name, "%v", err)
		}
	}
	return nil
}

// ReadColumns populates the object from an ordered column slice.
func (c *Converter) ReadColumns(row []mapping.Column, e mapping.Object, t *mapping.Table) error {
	m := make(map[string]interface{}, len(row))
	for _, col := range row {
		m[col.Name] = col.Value
	}
	return c.Read(m, e, t)
}

// toColumnValue converts one field value into a form the driver knows how
// to marshal.
func (c *Converter) toColumnValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	if conv, ok := c.registry.Lookup(reflect.TypeOf(v)); ok {
		return conv.ToColumn(v)
	}

	// Mapped UDT structs marshal through the driver's UDT interface.
	if udt, ok := asUDT(v); ok {
		return WrapUDT(udt, c.registry)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, nil
		}
		return c.toColumnValue(rv.Elem().Interface())
	case reflect.Slice:
		if containsUDT(rv.Type().Elem()) {
			out := make([]interface{}, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				elem, err := c.toColumnValue(rv.Index(i).Interface())
				if err != nil {
					return nil, err
				}
				out[i] = elem
			}
			return out, nil
		}
	case reflect.Map:
		if containsUDT(rv.Type().Elem()) {
			out := make(map[interface{}]interface{}, rv.Len())
			for _, key := range rv.MapKeys() {
				elem, err := c.toColumnValue(rv.MapIndex(key).Interface())
				if err != nil {
					return nil, err
				}
				out[key.Interface()] = elem
			}
			return out, nil
		}
	}

	// Enum idiom: struct- and numeric-kind types that marshal to text are
	// stored as text. String kinds pass through so named string types keep
	// their natural representation, and driver-native types are exempt.
	switch rv.Kind() {
	case reflect.Struct, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if tm, ok := v.(encoding.TextMarshaler); ok && !isDriverNative(rv.Type()) {
			b, err := tm.MarshalText()
			if err != nil {
				return nil, err
			}
			return string(b), nil
		}
	}
	return v, nil
}

// fromColumnValue converts a driver value toward the target field type.
// Final assignment (including numeric widening) happens in Table.SetField.
func (c *Converter) fromColumnValue(v interface{}, target reflect.Type) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	for target.Kind() == reflect.Ptr {
		target = target.Elem()
	}

	if conv, ok := c.registry.Lookup(target); ok {
		return conv.FromColumn(v)
	}

	// UDT columns come back as map[string]interface{} from SliceMap reads.
	if target.Implements(udtType) || reflect.PtrTo(target).Implements(udtType) {
		fields, ok := v.(map[string]interface{})
		if !ok {
			return nil, cqlerr.NewMappingError("", "", "cannot read UDT from %T", v)
		}
		out := reflect.New(target)
		if err := c.readUDTFields(fields, out); err != nil {
			return nil, err
		}
		return out.Elem().Interface(), nil
	}

	switch target.Kind() {
	case reflect.Slice:
		if containsUDT(target.Elem()) {
			src := reflect.ValueOf(v)
			if src.Kind() != reflect.Slice {
				return nil, cqlerr.NewMappingError("", "", "cannot read %s from %T", target, v)
			}
			out := reflect.MakeSlice(target, src.Len(), src.Len())
			for i := 0; i < src.Len(); i++ {
				elem, err := c.fromColumnValue(src.Index(i).Interface(), target.Elem())
				if err != nil {
					return nil, err
				}
				if elem == nil {
					continue
				}
				// setMaybePtr allocates when the element type is a pointer.
				if err := setMaybePtr(out.Index(i), reflect.ValueOf(elem)); err != nil {
					return nil, cqlerr.NewMappingError("", "", "%v", err)
				}
			}
			return out.Interface(), nil
		}
	case reflect.Map:
		if containsUDT(target.Elem()) {
			src := reflect.ValueOf(v)
			if src.Kind() != reflect.Map {
				return nil, cqlerr.NewMappingError("", "", "cannot read %s from %T", target, v)
			}
			out := reflect.MakeMapWithSize(target, src.Len())
			for _, key := range src.MapKeys() {
				elem, err := c.fromColumnValue(src.MapIndex(key).Interface(), target.Elem())
				if err != nil {
					return nil, err
				}
				slot := reflect.New(target.Elem()).Elem()
				if elem != nil {
					if err := setMaybePtr(slot, reflect.ValueOf(elem)); err != nil {
						return nil, cqlerr.NewMappingError("", "", "%v", err)
					}
				}
				out.SetMapIndex(key.Convert(target.Key()), slot)
			}
			return out.Interface(), nil
		}
	case reflect.Struct, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// Enum idiom: text columns read back through TextUnmarshaler.
		if s, isStr := v.(string); isStr && target.Kind() != reflect.String {
			if um, ok := reflect.New(target).Interface().(encoding.TextUnmarshaler); ok {
				if err := um.UnmarshalText([]byte(s)); err != nil {
					return nil, err
				}
				return reflect.ValueOf(um).Elem().Interface(), nil
			}
		}
	}
	return v, nil
}

var udtType = reflect.TypeOf((*mapping.UDT)(nil)).Elem()

func asUDT(v interface{}) (mapping.UDT, bool) {
	if udt, ok := v.(mapping.UDT); ok {
		return udt, true
	}
	return nil, false
}

// containsUDT reports whether t (after pointer unwrapping) is a mapped UDT
// struct.
func containsUDT(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Implements(udtType) || reflect.PtrTo(t).Implements(udtType)
}

// driverNativeTypes are struct types the driver marshals directly; they
// must not be diverted through the text path even when they implement
// TextMarshaler.
var driverNativeTypes = map[reflect.Type]bool{
	reflect.TypeOf(time.Time{}):      true,
	reflect.TypeOf(gocql.UUID{}):     true,
	reflect.TypeOf(gocql.Duration{}): true,
	reflect.TypeOf(inf.Dec{}):        true,
	reflect.TypeOf(big.Int{}):        true,
}

func isDriverNative(t reflect.Type) bool { return driverNativeTypes[t] }
