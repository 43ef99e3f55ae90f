package cassandra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"

	"github.com/casmap/casmap/cqlerr"
)

func TestSendLatency(t *testing.T) {
	scope := tally.NewTestScope("", nil)

	sendLatency(scope, "deployments", opGet, 5*time.Millisecond)

	snap := scope.Snapshot()
	timer, ok := snap.Timers()["execute_latency+operation=get,table=deployments"]
	require.True(t, ok, "timer not recorded: %v", snap.Timers())
	require.Len(t, timer.Values(), 1)
	assert.Equal(t, 5*time.Millisecond, timer.Values()[0])
}

func TestSendCounters(t *testing.T) {
	scope := tally.NewTestScope("", nil)

	sendCounters(scope, "deployments", opCas, nil)
	sendCounters(scope, "deployments", opCas, cqlerr.ErrAlreadyExists)
	sendCounters(scope, "deployments", opCas, cqlerr.ErrAlreadyExists)

	snap := scope.Snapshot()
	success, ok := snap.Counters()["execute+error=none,operation=cas,table=deployments"]
	require.True(t, ok, "success counter not recorded: %v", snap.Counters())
	assert.Equal(t, int64(1), success.Value())

	conflict, ok := snap.Counters()["execute+error=already_exists,operation=cas,table=deployments"]
	require.True(t, ok, "failure counter not recorded: %v", snap.Counters())
	assert.Equal(t, int64(2), conflict.Value())
}
