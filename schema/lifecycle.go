package schema

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/casmap/casmap/mapping"
)

// Executor runs one DDL statement; the session package provides one.
type Executor interface {
	Exec(ctx context.Context, stmt string) error
}

// Creator generates and executes schema DDL for mapped objects.
type Creator struct {
	exec     Executor
	keyspace string
}

// NewCreator returns a Creator executing DDL in the given keyspace.
// An empty keyspace uses the session's default.
func NewCreator(exec Executor, keyspace string) *Creator {
	return &Creator{exec: exec, keyspace: keyspace}
}

// CreateTypes creates the given user-defined types in dependency order,
// referenced types first. Types already present in the snapshot are
// skipped when ifNotExists is set; snap may be nil.
func (c *Creator) CreateTypes(ctx context.Context, snap *Keyspace, types []*mapping.UDTDefinition, ifNotExists bool) error {
	for _, def := range SortTypesForCreate(types) {
		if ifNotExists && snap.HasType(def.Name) {
			log.WithField("type", def.Name).Debug("type exists, skipping create")
			continue
		}
		spec := TypeSpecOf(def)
		if spec.Keyspace == "" {
			spec.Keyspace = c.keyspace
		}
		stmt, err := CreateType(spec, ifNotExists)
		if err != nil {
			return err
		}
		if err := c.run(ctx, stmt); err != nil {
			return errors.Wrapf(err, "create type %s", def.Name)
		}
	}
	return nil
}

// CreateTables creates tables for the given mapped objects. Tables
// already present in the snapshot are skipped when ifNotExists is set;
// snap may be nil.
func (c *Creator) CreateTables(ctx context.Context, snap *Keyspace, tables []*mapping.Table, ifNotExists bool) error {
	for _, t := range tables {
		if ifNotExists && snap.HasTable(t.Name) {
			log.WithField("table", t.Name).Debug("table exists, skipping create")
			continue
		}
		spec, err := TableSpecOf(t)
		if err != nil {
			return err
		}
		stmt, err := CreateTable(spec.InKeyspace(c.keyspace), ifNotExists)
		if err != nil {
			return err
		}
		if err := c.run(ctx, stmt); err != nil {
			return errors.Wrapf(err, "create table %s", t.Name)
		}
	}
	return nil
}

// CreateIndexes creates the given secondary indexes.
func (c *Creator) CreateIndexes(ctx context.Context, indexes []*IndexSpec, ifNotExists bool) error {
	for _, spec := range indexes {
		if spec.Keyspace == "" {
			spec.Keyspace = c.keyspace
		}
		stmt, err := CreateIndex(spec, ifNotExists)
		if err != nil {
			return err
		}
		if err := c.run(ctx, stmt); err != nil {
			return errors.Wrapf(err, "create index %s on %s", spec.Name, spec.Table)
		}
	}
	return nil
}

func (c *Creator) run(ctx context.Context, stmt string) error {
	log.WithField("cql", stmt).Debug("executing DDL")
	return c.exec.Exec(ctx, stmt)
}

// Dropper generates and executes DROP statements for schema objects.
type Dropper struct {
	exec     Executor
	keyspace string
}

// NewDropper returns a Dropper executing DDL in the given keyspace.
func NewDropper(exec Executor, keyspace string) *Dropper {
	return &Dropper{exec: exec, keyspace: keyspace}
}

// DropTables drops the tables backing the given mapped objects. With
// dropUnused set it additionally drops every other table in the
// snapshot.
func (d *Dropper) DropTables(ctx context.Context, snap *Keyspace, tables []*mapping.Table, dropUnused bool) error {
	mapped := make(map[string]bool, len(tables))
	for _, t := range tables {
		mapped[t.Name] = true
		if err := d.run(ctx, DropTable(d.keyspace, t.Name, true)); err != nil {
			return errors.Wrapf(err, "drop table %s", t.Name)
		}
	}
	if !dropUnused || snap == nil {
		return nil
	}
	for name := range snap.Tables {
		if mapped[name] {
			continue
		}
		if err := d.run(ctx, DropTable(d.keyspace, name, true)); err != nil {
			return errors.Wrapf(err, "drop table %s", name)
		}
	}
	return nil
}

// DropTypes drops the given user-defined types in dependency order, so
// that a type is always dropped before the types it references. With
// dropUnused set it additionally drops the snapshot's remaining types,
// merged into the same dependency ordering.
func (d *Dropper) DropTypes(ctx context.Context, snap *Keyspace, types []*mapping.UDTDefinition, dropUnused bool) error {
	requested := make(map[string]bool, len(types))
	all := make([]*mapping.UDTDefinition, 0, len(types))
	for _, def := range types {
		requested[def.Name] = true
		all = append(all, def)
	}
	if dropUnused {
		for _, def := range snap.TypeDefinitions() {
			if !requested[def.Name] {
				requested[def.Name] = true
				all = append(all, def)
			}
		}
	}

	for _, def := range SortTypesForDrop(all) {
		if err := d.run(ctx, DropType(d.keyspace, def.Name, true)); err != nil {
			return errors.Wrapf(err, "drop type %s", def.Name)
		}
	}
	return nil
}

func (d *Dropper) run(ctx context.Context, stmt string) error {
	log.WithField("cql", stmt).Debug("executing DDL")
	return d.exec.Exec(ctx, stmt)
}

// RunScript splits a multi-statement CQL script and executes each
// statement in order. Keyspace startup and shutdown scripts run through
// here.
func RunScript(ctx context.Context, exec Executor, script string) error {
	stmts, err := SplitStatements(script)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		log.WithField("cql", stmt).Debug("executing script statement")
		if err := exec.Exec(ctx, stmt); err != nil {
			return errors.Wrapf(err, "script statement %q", stmt)
		}
	}
	return nil
}
