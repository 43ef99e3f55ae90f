package schema

import (
	"fmt"

	"github.com/casmap/casmap/mapping"
)

// ColumnSpec describes one column of a table or one field of a type.
type ColumnSpec struct {
	Name   string
	Type   *mapping.TypeInfo
	Static bool
}

// TableOption is a WITH clause entry, rendered as Name = Value.
type TableOption struct {
	Name  string
	Value string
}

// TableSpec describes a table to generate DDL for.
type TableSpec struct {
	Keyspace       string
	Name           string
	Columns        []ColumnSpec
	PartitionKeys  []string
	ClusteringKeys []mapping.ClusteringKey
	Options        []TableOption
}

// TableSpecOf derives a TableSpec from mapped table metadata.
func TableSpecOf(t *mapping.Table) (*TableSpec, error) {
	spec := &TableSpec{
		Name:          t.Name,
		PartitionKeys: t.Key.PartitionKeys,
	}
	for _, ck := range t.Key.ClusteringKeys {
		spec.ClusteringKeys = append(spec.ClusteringKeys, *ck)
	}
	for _, col := range t.Columns {
		if col.CQLType == nil {
			return nil, fmt.Errorf("column %s.%s has no CQL type", t.Name, col.Name)
		}
		spec.Columns = append(spec.Columns, ColumnSpec{Name: col.Name, Type: col.CQLType})
	}
	return spec, nil
}

// InKeyspace returns a copy of the spec bound to the given keyspace.
func (s *TableSpec) InKeyspace(keyspace string) *TableSpec {
	out := *s
	out.Keyspace = keyspace
	return &out
}

// With appends a WITH option to the spec.
func (s *TableSpec) With(name, value string) *TableSpec {
	s.Options = append(s.Options, TableOption{Name: name, Value: value})
	return s
}

// QualifiedName returns the keyspace-qualified, quoted table name.
func (s *TableSpec) QualifiedName() string {
	return qualify(s.Keyspace, s.Name)
}

// FieldSpec describes one field of a user-defined type.
type FieldSpec struct {
	Name string
	Type *mapping.TypeInfo
}

// TypeSpec describes a user-defined type to generate DDL for.
type TypeSpec struct {
	Keyspace string
	Name     string
	Fields   []FieldSpec
}

// TypeSpecOf derives a TypeSpec from mapped UDT metadata.
func TypeSpecOf(def *mapping.UDTDefinition) *TypeSpec {
	spec := &TypeSpec{Keyspace: def.Keyspace, Name: def.Name}
	for _, f := range def.Fields {
		spec.Fields = append(spec.Fields, FieldSpec{Name: f.Name, Type: f.Type})
	}
	return spec
}

// QualifiedName returns the keyspace-qualified, quoted type name.
func (s *TypeSpec) QualifiedName() string {
	return qualify(s.Keyspace, s.Name)
}

// IndexSpec describes a secondary index to generate DDL for.
type IndexSpec struct {
	Keyspace string
	Name     string
	Table    string
	Column   string
	// Using names a custom index class; empty for a regular index.
	Using string
	// Keys indexes map keys instead of values.
	Keys bool
}

func qualify(keyspace, name string) string {
	quoted := mapping.QuoteIdentifier(name)
	if keyspace == "" {
		return quoted
	}
	return mapping.QuoteIdentifier(keyspace) + "." + quoted
}
