package cassandra

import (
	"context"
	"time"

	"github.com/uber-go/tally"

	"github.com/casmap/casmap"
	"github.com/casmap/casmap/cqlerr"
	"github.com/casmap/casmap/mapping"
	"github.com/casmap/casmap/session"
)

// operation tags for metrics
const (
	opCreate  = "create"
	opCas     = "cas"
	opGet     = "get"
	opGetAll  = "get_all"
	opGetIter = "get_iter"
	opUpdate  = "update"
	opDelete  = "delete"
	opRaw     = "raw"
)

const (
	// reads by full primary key expect at most one row
	singleRowLimit = 1
	noRowLimit     = 0

	useCasWrite = true
)

// Connector executes mapped operations against a Cassandra cluster. It
// builds statements through the querybuilder package, binds values
// positionally, and reports latency and outcome metrics per table and
// operation.
type Connector struct {
	session *session.Session

	// scope is the metrics scope for latency timers
	scope tally.Scope
	// successScope tags counters for statements that completed
	successScope tally.Scope
	// failScope tags counters for statements that errored
	failScope tally.Scope
}

var _ casmap.Connector = (*Connector)(nil)
var _ casmap.RawExecutor = (*Connector)(nil)

// New wraps a session in a Connector, scoping its metrics under "cql"
// tagged with the session keyspace.
func New(sess *session.Session, scope tally.Scope) *Connector {
	cqlScope := scope.SubScope("cql").Tagged(
		map[string]string{"keyspace": sess.Keyspace()})

	return &Connector{
		session: sess,
		scope:   cqlScope,
		successScope: cqlScope.Tagged(
			map[string]string{"result": "success"}),
		failScope: cqlScope.Tagged(
			map[string]string{"result": "fail"}),
	}
}

// CreateIfNotExists inserts a row with a compare-and-set write,
// returning cqlerr.ErrAlreadyExists when the row is already present.
func (c *Connector) CreateIfNotExists(
	ctx context.Context,
	def *mapping.Definition,
	values []mapping.Column,
) error {
	return c.create(ctx, def, values, useCasWrite)
}

// Create inserts a row.
func (c *Connector) Create(
	ctx context.Context,
	def *mapping.Definition,
	values []mapping.Column,
) error {
	return c.create(ctx, def, values, !useCasWrite)
}

func (c *Connector) create(
	ctx context.Context,
	def *mapping.Definition,
	values []mapping.Column,
	casWrite bool,
) error {
	stmt, args, err := insertStmt(def, values, casWrite)
	if err != nil {
		return err
	}

	operation := opCreate
	if casWrite {
		operation = opCas
	}

	q := c.session.Query(stmt, args...).WithContext(ctx)
	start := time.Now()

	if casWrite {
		applied, err := q.MapScanCAS(map[string]interface{}{})
		if err != nil {
			err = cqlerr.Translate(err)
			sendCounters(c.failScope, def.Name, operation, err)
			return err
		}
		if !applied {
			err = cqlerr.Wrapf(cqlerr.ErrAlreadyExists, "table %s", def.Name)
			sendCounters(c.failScope, def.Name, operation, err)
			return err
		}
	} else {
		if err := q.Exec(); err != nil {
			err = cqlerr.Translate(err)
			sendCounters(c.failScope, def.Name, operation, err)
			return err
		}
	}

	sendLatency(c.scope, def.Name, operation, time.Since(start))
	sendCounters(c.successScope, def.Name, operation, nil)
	return nil
}

// Get fetches a single row by full primary key. With column names
// given only those columns are read; cqlerr.ErrNotFound reports an
// absent row.
func (c *Connector) Get(
	ctx context.Context,
	def *mapping.Definition,
	keys []mapping.Column,
	columns ...string,
) (map[string]interface{}, error) {
	if len(columns) == 0 {
		columns = def.ColumnNames()
	}

	stmt, args, err := selectStmt(def, keys, columns, singleRowLimit)
	if err != nil {
		return nil, err
	}

	q := c.session.Query(stmt, args...).WithContext(ctx)
	start := time.Now()
	rows, err := q.Iter().SliceMap()
	if err != nil {
		err = cqlerr.Translate(err)
		sendCounters(c.failScope, def.Name, opGet, err)
		return nil, err
	}
	if len(rows) == 0 {
		err = cqlerr.Wrapf(cqlerr.ErrNotFound, "table %s", def.Name)
		sendCounters(c.failScope, def.Name, opGet, err)
		return nil, err
	}

	sendLatency(c.scope, def.Name, opGet, time.Since(start))
	sendCounters(c.successScope, def.Name, opGet, nil)
	return rows[0], nil
}

// GetAll fetches every row in a partition as a slice of column maps.
func (c *Connector) GetAll(
	ctx context.Context,
	def *mapping.Definition,
	keys []mapping.Column,
) ([]map[string]interface{}, error) {
	stmt, args, err := selectStmt(def, keys, def.ColumnNames(), noRowLimit)
	if err != nil {
		return nil, err
	}

	q := c.session.Query(stmt, args...).WithContext(ctx)
	start := time.Now()
	iter := q.Iter()
	defer iter.Close()

	rows, err := iter.SliceMap()
	if err != nil {
		err = cqlerr.Translate(err)
		sendCounters(c.failScope, def.Name, opGetAll, err)
		return nil, err
	}

	sendLatency(c.scope, def.Name, opGetAll, time.Since(start))
	sendCounters(c.successScope, def.Name, opGetAll, nil)
	return rows, nil
}

// GetAllIter returns an iterator over every row in a partition. Rows
// are scanned into targets typed after the mapped columns.
func (c *Connector) GetAllIter(
	ctx context.Context,
	def *mapping.Definition,
	keys []mapping.Column,
) (casmap.Iterator, error) {
	columns := def.ColumnNames()

	stmt, args, err := selectStmt(def, keys, columns, noRowLimit)
	if err != nil {
		return nil, err
	}

	q := c.session.Query(stmt, args...).WithContext(ctx)
	start := time.Now()
	cqlIter := q.Iter()
	sendLatency(c.scope, def.Name, opGetIter, time.Since(start))

	return newIterator(def, columns, c.successScope, c.failScope, cqlIter), nil
}

// Update overwrites the given non-key columns of a row.
func (c *Connector) Update(
	ctx context.Context,
	def *mapping.Definition,
	values []mapping.Column,
	keys []mapping.Column,
) error {
	stmt, args, err := updateStmt(def, values, keys)
	if err != nil {
		return err
	}

	q := c.session.Query(stmt, args...).WithContext(ctx)
	start := time.Now()
	if err := q.Exec(); err != nil {
		err = cqlerr.Translate(err)
		sendCounters(c.failScope, def.Name, opUpdate, err)
		return err
	}

	sendLatency(c.scope, def.Name, opUpdate, time.Since(start))
	sendCounters(c.successScope, def.Name, opUpdate, nil)
	return nil
}

// Delete removes a row by full primary key.
func (c *Connector) Delete(
	ctx context.Context,
	def *mapping.Definition,
	keys []mapping.Column,
) error {
	stmt, args, err := deleteStmt(def, keys)
	if err != nil {
		return err
	}

	q := c.session.Query(stmt, args...).WithContext(ctx)
	start := time.Now()
	if err := q.Exec(); err != nil {
		err = cqlerr.Translate(err)
		sendCounters(c.failScope, def.Name, opDelete, err)
		return err
	}

	sendLatency(c.scope, def.Name, opDelete, time.Since(start))
	sendCounters(c.successScope, def.Name, opDelete, nil)
	return nil
}

// Exec runs a raw statement, discarding any result rows.
func (c *Connector) Exec(ctx context.Context, stmt string, values ...interface{}) error {
	q := c.session.Query(stmt, values...).WithContext(ctx)
	start := time.Now()
	if err := q.Exec(); err != nil {
		err = cqlerr.Translate(err)
		sendCounters(c.failScope, "", opRaw, err)
		return err
	}

	sendLatency(c.scope, "", opRaw, time.Since(start))
	sendCounters(c.successScope, "", opRaw, nil)
	return nil
}

// Query runs a raw statement and returns all result rows.
func (c *Connector) Query(
	ctx context.Context,
	stmt string,
	values ...interface{},
) ([]map[string]interface{}, error) {
	q := c.session.Query(stmt, values...).WithContext(ctx)
	start := time.Now()
	rows, err := q.Iter().SliceMap()
	if err != nil {
		err = cqlerr.Translate(err)
		sendCounters(c.failScope, "", opRaw, err)
		return nil, err
	}

	sendLatency(c.scope, "", opRaw, time.Since(start))
	sendCounters(c.successScope, "", opRaw, nil)
	return rows, nil
}

// sendLatency records a call latency metric tagged by table and operation.
func sendLatency(scope tally.Scope, table, operation string, d time.Duration) {
	s := scope.Tagged(map[string]string{
		"table":     table,
		"operation": operation,
	})
	s.Timer("execute_latency").Record(d)
}

// sendCounters records a statement outcome. Error values become a
// fixed tag vocabulary so metric backends do not see free-form text.
func sendCounters(scope tally.Scope, table, operation string, err error) {
	errTag := "none"
	if err != nil {
		errTag = cqlerr.Tag(err)
	}
	s := scope.Tagged(map[string]string{
		"table":     table,
		"operation": operation,
		"error":     errTag,
	})
	s.Counter("execute").Inc(1)
}
