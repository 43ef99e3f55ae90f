package casmap

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casmap/casmap/cqlerr"
	"github.com/casmap/casmap/mapping"
)

type jobRun struct {
	mapping.Embed `cql:"name=job_runs, primaryKey=((job_id), run_id)"`
	JobID         string
	RunID         int
	State         string
	Attempts      int
}

type auditEvent struct {
	mapping.Embed `cql:"name=audit_events, primaryKey=((day), seq)"`
	Day           string
	Seq           *int
	Action        string
}

// fakeConnector records calls and plays back canned rows.
type fakeConnector struct {
	lastDef    *mapping.Definition
	created    [][]mapping.Column
	casErr     error
	getRow     map[string]interface{}
	getErr     error
	getColumns []string
	allRows    []map[string]interface{}
	iterRows   [][]mapping.Column
	iterErr    error
	updated    [][]mapping.Column
	updateKeys []mapping.Column
	deleted    [][]mapping.Column
}

func (f *fakeConnector) CreateIfNotExists(_ context.Context, def *mapping.Definition, values []mapping.Column) error {
	f.lastDef = def
	if f.casErr != nil {
		return f.casErr
	}
	f.created = append(f.created, values)
	return nil
}

func (f *fakeConnector) Create(_ context.Context, def *mapping.Definition, values []mapping.Column) error {
	f.lastDef = def
	f.created = append(f.created, values)
	return nil
}

func (f *fakeConnector) Get(_ context.Context, def *mapping.Definition, _ []mapping.Column, columns ...string) (map[string]interface{}, error) {
	f.lastDef = def
	f.getColumns = columns
	return f.getRow, f.getErr
}

func (f *fakeConnector) GetAll(_ context.Context, def *mapping.Definition, _ []mapping.Column) ([]map[string]interface{}, error) {
	f.lastDef = def
	return f.allRows, nil
}

func (f *fakeConnector) GetAllIter(_ context.Context, def *mapping.Definition, _ []mapping.Column) (Iterator, error) {
	f.lastDef = def
	return &sliceIterator{rows: f.iterRows, err: f.iterErr}, nil
}

func (f *fakeConnector) Update(_ context.Context, def *mapping.Definition, values []mapping.Column, keys []mapping.Column) error {
	f.lastDef = def
	f.updated = append(f.updated, values)
	f.updateKeys = keys
	return nil
}

func (f *fakeConnector) Delete(_ context.Context, def *mapping.Definition, keys []mapping.Column) error {
	f.lastDef = def
	f.deleted = append(f.deleted, keys)
	return nil
}

type sliceIterator struct {
	rows   [][]mapping.Column
	err    error
	i      int
	closed bool
}

func (it *sliceIterator) Next() ([]mapping.Column, error) {
	if it.i >= len(it.rows) {
		return nil, it.err
	}
	row := it.rows[it.i]
	it.i++
	return row, nil
}

func (it *sliceIterator) Close() { it.closed = true }

func newTestClient(t *testing.T, conn Connector) *Client {
	t.Helper()
	c, err := NewClient(conn, []mapping.Object{&jobRun{}, &auditEvent{}})
	require.NoError(t, err)
	return c
}

func columnMap(row []mapping.Column) map[string]interface{} {
	m := make(map[string]interface{}, len(row))
	for _, col := range row {
		m[col.Name] = col.Value
	}
	return m
}

func TestNewClientRejectsDuplicateTables(t *testing.T) {
	_, err := NewClient(&fakeConnector{}, []mapping.Object{&jobRun{}, &jobRun{}})
	assert.Error(t, err)
}

func TestClientCreate(t *testing.T) {
	conn := &fakeConnector{}
	c := newTestClient(t, conn)

	err := c.Create(context.Background(), &jobRun{
		JobID: "job-1", RunID: 3, State: "running", Attempts: 1,
	})
	require.NoError(t, err)

	require.Len(t, conn.created, 1)
	assert.Equal(t, "job_runs", conn.lastDef.Name)
	assert.Equal(t, map[string]interface{}{
		"job_id": "job-1", "run_id": 3, "state": "running", "attempts": 1,
	}, columnMap(conn.created[0]))
}

func TestClientCreateIfNotExistsConflict(t *testing.T) {
	conn := &fakeConnector{casErr: cqlerr.ErrAlreadyExists}
	c := newTestClient(t, conn)

	err := c.CreateIfNotExists(context.Background(), &jobRun{JobID: "job-1", RunID: 3})
	assert.ErrorIs(t, err, cqlerr.ErrAlreadyExists)
}

func TestClientCreateUnregisteredObject(t *testing.T) {
	type unknown struct {
		mapping.Embed `cql:"name=unknown, primaryKey=((id))"`
		ID            string
	}
	c := newTestClient(t, &fakeConnector{})

	err := c.Create(context.Background(), &unknown{ID: "x"})
	assert.Error(t, err)
}

func TestClientGet(t *testing.T) {
	conn := &fakeConnector{getRow: map[string]interface{}{
		"job_id": "job-1", "run_id": 3, "state": "done", "attempts": 4,
	}}
	c := newTestClient(t, conn)

	e := &jobRun{JobID: "job-1", RunID: 3}
	require.NoError(t, c.Get(context.Background(), e))

	assert.Equal(t, "done", e.State)
	assert.Equal(t, 4, e.Attempts)
}

func TestClientGetProjection(t *testing.T) {
	conn := &fakeConnector{getRow: map[string]interface{}{"state": "done"}}
	c := newTestClient(t, conn)

	e := &jobRun{JobID: "job-1", RunID: 3}
	require.NoError(t, c.Get(context.Background(), e, "state"))
	assert.Equal(t, []string{"state"}, conn.getColumns)
	assert.Equal(t, "done", e.State)
}

func TestClientGetNotFound(t *testing.T) {
	conn := &fakeConnector{getErr: cqlerr.ErrNotFound}
	c := newTestClient(t, conn)

	err := c.Get(context.Background(), &jobRun{JobID: "job-1", RunID: 3})
	assert.ErrorIs(t, err, cqlerr.ErrNotFound)
}

func TestClientGetIncompletePrimaryKey(t *testing.T) {
	c := newTestClient(t, &fakeConnector{})

	err := c.Get(context.Background(), &auditEvent{Day: "2024-03-01"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete primary key")
}

func TestClientGetAll(t *testing.T) {
	conn := &fakeConnector{allRows: []map[string]interface{}{
		{"job_id": "job-1", "run_id": 1, "state": "done", "attempts": 1},
		{"job_id": "job-1", "run_id": 2, "state": "running", "attempts": 1},
	}}
	c := newTestClient(t, conn)

	objects, err := c.GetAll(context.Background(), &jobRun{JobID: "job-1"})
	require.NoError(t, err)
	require.Len(t, objects, 2)

	first, ok := objects[0].(*jobRun)
	require.True(t, ok)
	assert.Equal(t, 1, first.RunID)
	assert.Equal(t, "done", first.State)

	second := objects[1].(*jobRun)
	assert.Equal(t, 2, second.RunID)
	assert.Equal(t, "running", second.State)
}

func TestClientPartitionReadsRequireFullPartitionKey(t *testing.T) {
	type regionRollup struct {
		mapping.Embed `cql:"name=region_rollups, primaryKey=((region, shard), bucket)"`
		Region        string
		Shard         *int
		Bucket        int
		Total         int
	}
	c, err := NewClient(&fakeConnector{}, []mapping.Object{&regionRollup{}})
	require.NoError(t, err)

	// shard is nil, so the partition key is incomplete
	e := &regionRollup{Region: "eu"}

	_, err = c.GetAll(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete partition key")

	err = c.Each(context.Background(), e, func(mapping.Object) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete partition key")

	_, err = c.Stream(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete partition key")
}

func TestClientUpdate(t *testing.T) {
	conn := &fakeConnector{}
	c := newTestClient(t, conn)

	e := &jobRun{JobID: "job-1", RunID: 3, State: "done", Attempts: 5}
	require.NoError(t, c.Update(context.Background(), e))

	require.Len(t, conn.updated, 1)
	assert.Equal(t, map[string]interface{}{
		"state": "done", "attempts": 5,
	}, columnMap(conn.updated[0]))
	assert.Equal(t, map[string]interface{}{
		"job_id": "job-1", "run_id": 3,
	}, columnMap(conn.updateKeys))
}

func TestClientUpdateSelectedColumns(t *testing.T) {
	conn := &fakeConnector{}
	c := newTestClient(t, conn)

	e := &jobRun{JobID: "job-1", RunID: 3, State: "done", Attempts: 5}
	require.NoError(t, c.Update(context.Background(), e, "state"))

	require.Len(t, conn.updated, 1)
	assert.Equal(t, map[string]interface{}{"state": "done"}, columnMap(conn.updated[0]))
}

func TestClientUpdateRejectsKeyColumn(t *testing.T) {
	c := newTestClient(t, &fakeConnector{})

	err := c.Update(context.Background(), &jobRun{JobID: "job-1", RunID: 3}, "run_id")
	assert.Error(t, err)
}

func TestClientDelete(t *testing.T) {
	conn := &fakeConnector{}
	c := newTestClient(t, conn)

	require.NoError(t, c.Delete(context.Background(), &jobRun{JobID: "job-1", RunID: 3}))
	require.Len(t, conn.deleted, 1)
	assert.Equal(t, map[string]interface{}{
		"job_id": "job-1", "run_id": 3,
	}, columnMap(conn.deleted[0]))
}

func TestClientEach(t *testing.T) {
	conn := &fakeConnector{iterRows: [][]mapping.Column{
		{{Name: "job_id", Value: "job-1"}, {Name: "run_id", Value: 1}, {Name: "state", Value: "done"}},
		{{Name: "job_id", Value: "job-1"}, {Name: "run_id", Value: 2}, {Name: "state", Value: "failed"}},
	}}
	c := newTestClient(t, conn)

	var states []string
	err := c.Each(context.Background(), &jobRun{JobID: "job-1"}, func(o mapping.Object) error {
		states = append(states, o.(*jobRun).State)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"done", "failed"}, states)
}

func TestClientEachStopsOnCallbackError(t *testing.T) {
	conn := &fakeConnector{iterRows: [][]mapping.Column{
		{{Name: "run_id", Value: 1}},
		{{Name: "run_id", Value: 2}},
	}}
	c := newTestClient(t, conn)

	calls := 0
	err := c.Each(context.Background(), &jobRun{JobID: "job-1"}, func(mapping.Object) error {
		calls++
		return fmt.Errorf("stop")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClientRawUnsupported(t *testing.T) {
	c := newTestClient(t, &fakeConnector{})

	err := c.Exec(context.Background(), "TRUNCATE job_runs")
	assert.True(t, errors.Is(err, cqlerr.ErrUnsupported))

	_, err = c.Query(context.Background(), "SELECT * FROM job_runs")
	assert.True(t, errors.Is(err, cqlerr.ErrUnsupported))
}
