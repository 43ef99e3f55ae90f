package schema

import (
	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/pkg/errors"

	"github.com/casmap/casmap/mapping"
)

// MetadataProvider yields keyspace metadata; *gocql.Session satisfies it.
type MetadataProvider interface {
	KeyspaceMetadata(keyspace string) (*gocql.KeyspaceMetadata, error)
}

// Keyspace is a point-in-time snapshot of the schema objects that exist
// in a keyspace. Creator and Dropper consult it to decide what to skip.
type Keyspace struct {
	Name   string
	Tables map[string]bool
	Types  map[string]*mapping.UDTDefinition
}

// Snapshot reads the current schema of a keyspace through the driver's
// metadata API.
func Snapshot(provider MetadataProvider, keyspace string) (*Keyspace, error) {
	meta, err := provider.KeyspaceMetadata(keyspace)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot keyspace %s", keyspace)
	}

	ks := &Keyspace{
		Name:   keyspace,
		Tables: make(map[string]bool, len(meta.Tables)),
		Types:  make(map[string]*mapping.UDTDefinition, len(meta.UserTypes)),
	}
	for name := range meta.Tables {
		ks.Tables[name] = true
	}
	for name, udt := range meta.UserTypes {
		def, err := mapping.UDTFromMetadata(keyspace, udt)
		if err != nil {
			return nil, errors.Wrapf(err, "snapshot type %s.%s", keyspace, name)
		}
		ks.Types[name] = def
	}
	return ks, nil
}

// HasTable reports whether the snapshot contains the table.
func (k *Keyspace) HasTable(name string) bool {
	return k != nil && k.Tables[name]
}

// HasType reports whether the snapshot contains the user-defined type.
func (k *Keyspace) HasType(name string) bool {
	if k == nil {
		return false
	}
	_, ok := k.Types[name]
	return ok
}

// TypeDefinitions returns the snapshot's user-defined types.
func (k *Keyspace) TypeDefinitions() []*mapping.UDTDefinition {
	if k == nil {
		return nil
	}
	defs := make([]*mapping.UDTDefinition, 0, len(k.Types))
	for _, def := range k.Types {
		defs = append(defs, def)
	}
	return defs
}
