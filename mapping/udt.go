package mapping

import (
	"fmt"
	"reflect"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
)

// UDTField is one field of a user-defined type.
type UDTField struct {
	Name    string
	GoField string
	GoType  reflect.Type
	Type    *TypeInfo
}

// UDTDefinition describes a user-defined type, either mapped from a struct
// or loaded from driver metadata.
type UDTDefinition struct {
	Keyspace string
	Name     string
	Fields   []UDTField
}

// FieldByName returns the field and its position within the type.
func (d *UDTDefinition) FieldByName(name string) (*UDTField, int, error) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], i, nil
		}
	}
	return nil, -1, fmt.Errorf("field %q not found in type %s", name, d.Name)
}

// ReferencedUDTs returns the names of user-defined types this type depends
// on through its fields.
func (d *UDTDefinition) ReferencedUDTs() []string {
	var names []string
	for _, f := range d.Fields {
		names = append(names, f.Type.ReferencedUDTs()...)
	}
	return names
}

// UDTFromStruct builds a user-defined type definition from a struct
// embedding the UDT marker. Field naming follows the same rules as table
// columns.
func UDTFromStruct(u UDT) (*UDTDefinition, error) {
	t := reflect.TypeOf(u)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("user-defined type must be a struct, got %T", u)
	}
	return udtFromType(t)
}

func udtFromType(t reflect.Type) (*UDTDefinition, error) {
	name, markerIdx, err := udtNameOf(t)
	if err != nil {
		return nil, err
	}

	def := &UDTDefinition{Name: name}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if i == markerIdx || f.PkgPath != "" {
			continue
		}
		col, err := columnFromField(f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
		}
		if col == nil {
			continue
		}
		def.Fields = append(def.Fields, UDTField{
			Name:    col.Name,
			GoField: f.Name,
			GoType:  f.Type,
			Type:    col.CQLType,
		})
	}
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("%s: user-defined type has no mapped fields", t.Name())
	}
	return def, nil
}

// udtNameOf locates the embedded UDT marker and resolves the CQL type name,
// defaulting to the snake_case struct name.
func udtNameOf(t reflect.Type) (string, int, error) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous || !f.Type.Implements(udtMarkerType) {
			continue
		}
		opts, err := splitTagOptions(f.Tag.Get(objectTag))
		if err != nil {
			return "", -1, fmt.Errorf("%s: %w", t.Name(), err)
		}
		name := opts["name"]
		if name == "" {
			name = SnakeCase(t.Name())
		}
		return name, i, nil
	}
	return "", -1, fmt.Errorf("%s does not embed mapping.UDT", t.Name())
}

// UDTFromMetadata converts driver type metadata into a definition, so types
// created outside this library can still be dropped in dependency order and
// scanned into structs.
func UDTFromMetadata(keyspace string, meta *gocql.UserTypeMetadata) (*UDTDefinition, error) {
	if meta == nil {
		return nil, fmt.Errorf("nil user type metadata")
	}
	def := &UDTDefinition{
		Keyspace: keyspace,
		Name:     meta.Name,
		Fields:   make([]UDTField, len(meta.FieldNames)),
	}
	for i := range meta.FieldNames {
		ti := FromDriverType(meta.FieldTypes[i])
		def.Fields[i] = UDTField{
			Name: meta.FieldNames[i],
			Type: ti,
		}
	}
	return def, nil
}

// String renders the definition for diagnostics.
func (d *UDTDefinition) String() string {
	s := d.Name + " {"
	for i, f := range d.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ": " + f.Type.String()
	}
	return s + "}"
}
