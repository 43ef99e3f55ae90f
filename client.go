package casmap

import (
	"context"
	"fmt"
	"reflect"

	"github.com/casmap/casmap/convert"
	"github.com/casmap/casmap/cqlerr"
	"github.com/casmap/casmap/mapping"
)

// Client is the synchronous template over a Connector. It maps objects
// to rows on the way in and rows to objects on the way out.
type Client struct {
	objectIndex map[reflect.Type]*mapping.Table
	connector   Connector
	converter   *convert.Converter
}

// Option customizes a Client.
type Option func(*Client)

// WithConverter installs a converter with custom registrations.
func WithConverter(c *convert.Converter) Option {
	return func(cl *Client) { cl.converter = c }
}

// NewClient builds a client for the given objects. Every object the
// client will operate on must be registered here.
func NewClient(conn Connector, objects []mapping.Object, opts ...Option) (*Client, error) {
	index := make(map[reflect.Type]*mapping.Table, len(objects))
	names := make(map[string]reflect.Type, len(objects))
	for _, e := range objects {
		table, err := mapping.TableFromObject(e)
		if err != nil {
			return nil, err
		}
		if prev, ok := names[table.Name]; ok {
			return nil, fmt.Errorf("table %q mapped by both %s and %s",
				table.Name, prev.Name(), table.GoType().Name())
		}
		names[table.Name] = table.GoType()
		index[table.GoType()] = table
	}

	c := &Client{
		objectIndex: index,
		connector:   conn,
		converter:   convert.New(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Table returns the mapped table metadata for a registered object.
func (c *Client) Table(e mapping.Object) (*mapping.Table, error) {
	t := reflect.TypeOf(e)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	table, ok := c.objectIndex[t]
	if !ok {
		return nil, fmt.Errorf("no table registered for %s", t.Name())
	}
	return table, nil
}

// Tables returns the metadata of every registered object; schema
// tooling feeds on this.
func (c *Client) Tables() []*mapping.Table {
	tables := make([]*mapping.Table, 0, len(c.objectIndex))
	for _, t := range c.objectIndex {
		tables = append(tables, t)
	}
	return tables
}

// Create inserts the object as a new row.
func (c *Client) Create(ctx context.Context, e mapping.Object) error {
	table, err := c.Table(e)
	if err != nil {
		return err
	}
	row, err := c.converter.Write(e, table)
	if err != nil {
		return err
	}
	return c.connector.Create(ctx, &table.Definition, row)
}

// CreateIfNotExists inserts the object only when no row with its
// primary key exists; cqlerr.ErrAlreadyExists reports a conflict.
func (c *Client) CreateIfNotExists(ctx context.Context, e mapping.Object) error {
	table, err := c.Table(e)
	if err != nil {
		return err
	}
	row, err := c.converter.Write(e, table)
	if err != nil {
		return err
	}
	return c.connector.CreateIfNotExists(ctx, &table.Definition, row)
}

// Get fetches the row matching the object's primary key and populates
// the object from it. The object must carry values for every key
// column. With column names given only those columns are read.
func (c *Client) Get(ctx context.Context, e mapping.Object, columns ...string) error {
	table, err := c.Table(e)
	if err != nil {
		return err
	}
	keyRow, err := c.converter.WriteKey(e, table)
	if err != nil {
		return err
	}
	if len(keyRow) != len(table.KeyColumnNames()) {
		return cqlerr.NewMappingError(table.Name, "", "incomplete primary key")
	}

	row, err := c.connector.Get(ctx, &table.Definition, keyRow, columns...)
	if err != nil {
		return err
	}
	return c.converter.Read(row, e, table)
}

// GetAll fetches every row in the object's partition. The object must
// carry values for all partition key columns; returned objects are new
// instances of the same type.
func (c *Client) GetAll(ctx context.Context, e mapping.Object) ([]mapping.Object, error) {
	table, err := c.Table(e)
	if err != nil {
		return nil, err
	}
	keyRow, err := c.partitionKey(e, table)
	if err != nil {
		return nil, err
	}

	rows, err := c.connector.GetAll(ctx, &table.Definition, keyRow)
	if err != nil {
		return nil, err
	}

	objects := make([]mapping.Object, 0, len(rows))
	for _, row := range rows {
		obj := newObject(table)
		if err := c.converter.Read(row, obj, table); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// Update overwrites columns of the row matching the object's primary
// key. Without column names every non-key column is written; key
// columns can never be updated.
func (c *Client) Update(ctx context.Context, e mapping.Object, columns ...string) error {
	table, err := c.Table(e)
	if err != nil {
		return err
	}
	for _, name := range columns {
		if table.IsKeyColumn(name) {
			return cqlerr.NewMappingError(table.Name, name, "cannot update a primary key column")
		}
	}
	if len(columns) == 0 {
		columns = table.NonKeyColumnNames()
	}

	values, err := c.converter.Write(e, table, columns...)
	if err != nil {
		return err
	}
	keyRow, err := c.converter.WriteKey(e, table)
	if err != nil {
		return err
	}
	return c.connector.Update(ctx, &table.Definition, values, keyRow)
}

// Delete removes the row matching the object's primary key.
func (c *Client) Delete(ctx context.Context, e mapping.Object) error {
	table, err := c.Table(e)
	if err != nil {
		return err
	}
	keyRow, err := c.converter.WriteKey(e, table)
	if err != nil {
		return err
	}
	return c.connector.Delete(ctx, &table.Definition, keyRow)
}

// Each iterates the object's partition, invoking fn once per row with
// a freshly populated object. Iteration stops on the first error from
// fn.
func (c *Client) Each(ctx context.Context, e mapping.Object, fn func(mapping.Object) error) error {
	table, err := c.Table(e)
	if err != nil {
		return err
	}
	keyRow, err := c.partitionKey(e, table)
	if err != nil {
		return err
	}

	iter, err := c.connector.GetAllIter(ctx, &table.Definition, keyRow)
	if err != nil {
		return err
	}
	defer iter.Close()

	for {
		row, err := iter.Next()
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}
		obj := newObject(table)
		if err := c.converter.ReadColumns(row, obj, table); err != nil {
			return err
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
}

// Exec runs a raw statement through the connector. Connectors without
// raw support return cqlerr.ErrUnsupported.
func (c *Client) Exec(ctx context.Context, stmt string, values ...interface{}) error {
	raw, ok := c.connector.(RawExecutor)
	if !ok {
		return cqlerr.Wrapf(cqlerr.ErrUnsupported, "connector cannot run raw statements")
	}
	return raw.Exec(ctx, stmt, values...)
}

// Query runs a raw query through the connector, returning all rows.
// Connectors without raw support return cqlerr.ErrUnsupported.
func (c *Client) Query(ctx context.Context, stmt string, values ...interface{}) ([]map[string]interface{}, error) {
	raw, ok := c.connector.(RawExecutor)
	if !ok {
		return nil, cqlerr.Wrapf(cqlerr.ErrUnsupported, "connector cannot run raw queries")
	}
	return raw.Query(ctx, stmt, values...)
}

// partitionKey writes the object's partition key row, rejecting
// objects that leave any partition key column unset. Failing here
// beats shipping a narrower WHERE clause to the server.
func (c *Client) partitionKey(e mapping.Object, table *mapping.Table) ([]mapping.Column, error) {
	keyRow, err := c.converter.WritePartitionKey(e, table)
	if err != nil {
		return nil, err
	}
	if len(keyRow) != len(table.Key.PartitionKeys) {
		return nil, cqlerr.NewMappingError(table.Name, "", "incomplete partition key")
	}
	return keyRow, nil
}

func newObject(table *mapping.Table) mapping.Object {
	return reflect.New(table.GoType()).Interface().(mapping.Object)
}
