package casmap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casmap/casmap/mapping"
)

func TestStreamDeliversPartition(t *testing.T) {
	conn := &fakeConnector{iterRows: [][]mapping.Column{
		{{Name: "job_id", Value: "job-1"}, {Name: "run_id", Value: 1}, {Name: "state", Value: "done"}},
		{{Name: "job_id", Value: "job-1"}, {Name: "run_id", Value: 2}, {Name: "state", Value: "failed"}},
	}}
	c := newTestClient(t, conn)

	s, err := c.Stream(context.Background(), &jobRun{JobID: "job-1"})
	require.NoError(t, err)

	var runs []int
	for o := range s.Objects() {
		runs = append(runs, o.(*jobRun).RunID)
	}
	assert.Equal(t, []int{1, 2}, runs)

	select {
	case err := <-s.Err():
		t.Fatalf("unexpected stream error: %v", err)
	default:
	}
}

func TestStreamPropagatesIteratorError(t *testing.T) {
	conn := &fakeConnector{
		iterRows: [][]mapping.Column{
			{{Name: "run_id", Value: 1}},
		},
		iterErr: assert.AnError,
	}
	c := newTestClient(t, conn)

	s, err := c.Stream(context.Background(), &jobRun{JobID: "job-1"})
	require.NoError(t, err)

	var count int
	for range s.Objects() {
		count++
	}
	assert.Equal(t, 1, count)

	select {
	case err := <-s.Err():
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(time.Second):
		t.Fatal("expected an error on the stream")
	}
}

func TestStreamStopsOnContextCancel(t *testing.T) {
	rows := make([][]mapping.Column, 100)
	for i := range rows {
		rows[i] = []mapping.Column{{Name: "run_id", Value: i}}
	}
	conn := &fakeConnector{iterRows: rows}
	c := newTestClient(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := c.Stream(ctx, &jobRun{JobID: "job-1"})
	require.NoError(t, err)

	<-s.Objects()
	cancel()

	// Drain until the goroutine notices the cancellation and closes up.
	for range s.Objects() {
	}

	select {
	case err := <-s.Err():
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("expected a cancellation error on the stream")
	}
}

func TestStreamUnregisteredObject(t *testing.T) {
	type unknown struct {
		mapping.Embed `cql:"name=unknown, primaryKey=((id))"`
		ID            string
	}
	c := newTestClient(t, &fakeConnector{})

	_, err := c.Stream(context.Background(), &unknown{ID: "x"})
	assert.Error(t, err)
}
