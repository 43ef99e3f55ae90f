package mapping

import (
	"reflect"
)

// Object is the marker interface embedded in every mapped struct. The
// embedded field carries the cql tag describing the table name and the
// primary key layout:
//
//	type User struct {
//		mapping.Object `cql:"name=users, primaryKey=((id), created_at desc)"`
//		ID             gocql.UUID `column:"name=id"`
//		CreatedAt      time.Time  `column:"name=created_at"`
//		Email          string     `column:"name=email"`
//	}
//
// The primary key format is ((PK1, PK2...), CK1, CK2...), with an optional
// asc/desc suffix on each clustering key. Fields without a column tag map
// to the snake_case form of the field name.
type Object interface {
	persistent()
}

// UDT is the marker interface embedded in structs mapped to Cassandra
// user-defined types. The embedded field carries `cql:"name=..."`; struct
// fields use the same column tag as table fields.
type UDT interface {
	userDefined()
}

// Embed satisfies Object. Mapped structs embed it through the marker.
type Embed struct{}

func (Embed) persistent() {}

// UDTEmbed satisfies UDT for user-defined type structs.
type UDTEmbed struct{}

func (UDTEmbed) userDefined() {}

// Column holds a column name and value for one row.
type Column struct {
	Name  string
	Value interface{}
}

// ClusteringKey stores the name and ordering of one clustering key.
type ClusteringKey struct {
	Name       string
	Descending bool
}

// PrimaryKey stores partition key and clustering key information.
type PrimaryKey struct {
	PartitionKeys  []string
	ClusteringKeys []*ClusteringKey
}

// ColumnDef describes one mapped column.
type ColumnDef struct {
	// Name is the CQL column name.
	Name string
	// Field is the Go struct field name backing the column.
	Field string
	// GoType is the struct field type.
	GoType reflect.Type
	// CQLType is the CQL type the column maps to. Inferred from GoType
	// unless overridden with a type= tag option.
	CQLType *TypeInfo
}

// Definition stores schema information about a mapped object.
type Definition struct {
	// Name is the normalized table name.
	Name string
	// Key holds the primary key layout.
	Key *PrimaryKey
	// Columns lists mapped columns in struct declaration order.
	Columns []ColumnDef
	// ColumnToType maps column name to the Go type of its field.
	ColumnToType map[string]reflect.Type
}

// ColumnNames returns all mapped column names in declaration order.
func (d *Definition) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// KeyColumnNames returns the primary key column names, partition keys first.
func (d *Definition) KeyColumnNames() []string {
	names := append([]string{}, d.Key.PartitionKeys...)
	for _, ck := range d.Key.ClusteringKeys {
		names = append(names, ck.Name)
	}
	return names
}

// IsKeyColumn reports whether name is part of the primary key.
func (d *Definition) IsKeyColumn(name string) bool {
	for _, pk := range d.Key.PartitionKeys {
		if pk == name {
			return true
		}
	}
	for _, ck := range d.Key.ClusteringKeys {
		if ck.Name == name {
			return true
		}
	}
	return false
}

// NonKeyColumnNames returns the names of all columns outside the primary key.
func (d *Definition) NonKeyColumnNames() []string {
	var names []string
	for _, c := range d.Columns {
		if !d.IsKeyColumn(c.Name) {
			names = append(names, c.Name)
		}
	}
	return names
}

// Column returns the column definition for the given CQL name.
func (d *Definition) Column(name string) (*ColumnDef, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}
