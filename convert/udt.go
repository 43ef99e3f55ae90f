package convert

import (
	"fmt"
	"reflect"

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/casmap/casmap/cqlerr"
	"github.com/casmap/casmap/mapping"
)

// UDTValue bridges a mapped UDT struct to the driver's user-defined-type
// marshaling interfaces, so UDT columns bind and scan directly against
// nested structs.
type UDTValue struct {
	def      *mapping.UDTDefinition
	value    reflect.Value // addressable struct value
	registry *Registry
}

// WrapUDT wraps a mapped UDT struct (or pointer to one) for marshaling.
func WrapUDT(u mapping.UDT, registry *Registry) (*UDTValue, error) {
	def, err := mapping.UDTFromStruct(u)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(u)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil %T", u)
		}
		rv = rv.Elem()
	}
	if !rv.CanAddr() {
		// copy so unmarshal targets stay settable
		addr := reflect.New(rv.Type())
		addr.Elem().Set(rv)
		rv = addr.Elem()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &UDTValue{def: def, value: rv, registry: registry}, nil
}

// Interface returns the wrapped struct value.
func (u *UDTValue) Interface() interface{} { return u.value.Interface() }

// MarshalUDT implements the driver's UDT marshaling hook. Fields the struct
// does not map marshal as null.
func (u *UDTValue) MarshalUDT(name string, info gocql.TypeInfo) ([]byte, error) {
	field, _, err := u.def.FieldByName(name)
	if err != nil {
		return nil, nil // absent field writes null
	}
	fv := u.value.FieldByName(field.GoField)
	if fv.Kind() == reflect.Ptr && fv.IsNil() {
		return nil, nil
	}

	conv := New(u.registry)
	v, err := conv.toColumnValue(fv.Interface())
	if err != nil {
		return nil, cqlerr.NewMappingError(u.def.Name, name, "%v", err)
	}
	if v == nil {
		return nil, nil
	}
	return gocql.Marshal(info, v)
}

// UnmarshalUDT implements the driver's UDT scanning hook. Fields missing
// from the struct are ignored, matching how added schema fields behave with
// older application builds.
func (u *UDTValue) UnmarshalUDT(name string, info gocql.TypeInfo, data []byte) error {
	field, _, err := u.def.FieldByName(name)
	if err != nil {
		return nil
	}
	fv := u.value.FieldByName(field.GoField)
	target := fv.Type()
	for target.Kind() == reflect.Ptr {
		target = target.Elem()
	}

	// Nested UDT structs recurse through another wrapper.
	if containsUDT(target) {
		if len(data) == 0 {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		nested := reflect.New(target)
		inner, err := WrapUDT(nested.Interface().(mapping.UDT), u.registry)
		if err != nil {
			return err
		}
		if err := gocql.Unmarshal(info, data, inner); err != nil {
			return cqlerr.NewMappingError(u.def.Name, name, "%v", err)
		}
		return setMaybePtr(fv, nested.Elem())
	}

	holder := reflect.New(target)
	if err := gocql.Unmarshal(info, data, holder.Interface()); err != nil {
		return cqlerr.NewMappingError(u.def.Name, name, "%v", err)
	}
	return setMaybePtr(fv, holder.Elem())
}

// readUDTFields populates a struct (via pointer) from a driver field map.
func (c *Converter) readUDTFields(fields map[string]interface{}, out reflect.Value) error {
	def, err := mapping.UDTFromStruct(out.Interface().(mapping.UDT))
	if err != nil {
		return err
	}
	sv := out.Elem()
	for name, value := range fields {
		field, _, err := def.FieldByName(name)
		if err != nil {
			continue
		}
		fv := sv.FieldByName(field.GoField)
		converted, err := c.fromColumnValue(value, fv.Type())
		if err != nil {
			return cqlerr.NewMappingError(def.Name, name, "%v", err)
		}
		if converted == nil {
			fv.Set(reflect.Zero(fv.Type()))
			continue
		}
		if err := setMaybePtr(fv, reflect.ValueOf(converted)); err != nil {
			return cqlerr.NewMappingError(def.Name, name, "%v", err)
		}
	}
	return nil
}

// setMaybePtr assigns src to dst, allocating when dst is a pointer and
// converting same-family representations.
func setMaybePtr(dst reflect.Value, src reflect.Value) error {
	if dst.Kind() == reflect.Ptr {
		p := reflect.New(dst.Type().Elem())
		if err := setMaybePtr(p.Elem(), src); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()) && sameFamily(dst.Kind(), src.Kind()):
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot assign %s to %s", src.Type(), dst.Type())
	}
	return nil
}

func sameFamily(a, b reflect.Kind) bool {
	return numericKind(a) && numericKind(b) || a == b
}

func numericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
