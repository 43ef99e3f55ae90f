package casmap

import (
	"context"

	"github.com/casmap/casmap/mapping"
)

// Connector is the backend interface the Client drives. The cassandra
// package provides the gocql implementation.
type Connector interface {
	// CreateIfNotExists inserts a row only when it does not already
	// exist, returning cqlerr.ErrAlreadyExists otherwise.
	CreateIfNotExists(ctx context.Context, def *mapping.Definition, values []mapping.Column) error

	// Create inserts a row.
	Create(ctx context.Context, def *mapping.Definition, values []mapping.Column) error

	// Get fetches a row by full primary key. With column names given
	// only those columns are read.
	Get(ctx context.Context, def *mapping.Definition, keys []mapping.Column, columns ...string) (map[string]interface{}, error)

	// GetAll fetches all rows for a partition key.
	GetAll(ctx context.Context, def *mapping.Definition, keys []mapping.Column) ([]map[string]interface{}, error)

	// GetAllIter returns an iterator over all rows for a partition key.
	GetAllIter(ctx context.Context, def *mapping.Definition, keys []mapping.Column) (Iterator, error)

	// Update overwrites the given non-key columns of a row.
	Update(ctx context.Context, def *mapping.Definition, values []mapping.Column, keys []mapping.Column) error

	// Delete removes a row by full primary key.
	Delete(ctx context.Context, def *mapping.Definition, keys []mapping.Column) error
}

// Iterator walks the results of a partition query.
type Iterator interface {
	// Next fetches the next row, returning nil at the end of the
	// results. Next must not be called after an error or Close.
	Next() ([]mapping.Column, error)

	// Close releases the iterator's resources.
	Close()
}

// RawExecutor is implemented by connectors that can run raw CQL beside
// the mapped operations.
type RawExecutor interface {
	// Exec runs a statement discarding any result rows.
	Exec(ctx context.Context, stmt string, values ...interface{}) error

	// Query runs a statement and returns all result rows.
	Query(ctx context.Context, stmt string, values ...interface{}) ([]map[string]interface{}, error)
}
