package schema

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casmap/casmap/mapping"
)

type recordingExecutor struct {
	stmts   []string
	failOn  string
	failErr error
}

func (r *recordingExecutor) Exec(_ context.Context, stmt string) error {
	if r.failOn != "" && stmt == r.failOn {
		return r.failErr
	}
	r.stmts = append(r.stmts, stmt)
	return nil
}

type track struct {
	mapping.Embed `cql:"name=tracks, primaryKey=((artist), album, number)"`
	Artist        string
	Album         string
	Number        int
	Title         string
}

func TestCreatorCreateTables(t *testing.T) {
	table, err := mapping.TableFromObject(&track{})
	require.NoError(t, err)

	exec := &recordingExecutor{}
	c := NewCreator(exec, "music")
	err = c.CreateTables(context.Background(), nil, []*mapping.Table{table}, true)
	require.NoError(t, err)

	require.Len(t, exec.stmts, 1)
	assert.Contains(t, exec.stmts[0], "CREATE TABLE IF NOT EXISTS music.tracks")
	assert.Contains(t, exec.stmts[0], "PRIMARY KEY (artist, album, number)")
}

func TestCreatorSkipsExistingTables(t *testing.T) {
	table, err := mapping.TableFromObject(&track{})
	require.NoError(t, err)

	snap := &Keyspace{Name: "music", Tables: map[string]bool{"tracks": true}}
	exec := &recordingExecutor{}
	err = NewCreator(exec, "music").CreateTables(context.Background(), snap, []*mapping.Table{table}, true)
	require.NoError(t, err)
	assert.Empty(t, exec.stmts)
}

func TestCreatorCreateTypesInDependencyOrder(t *testing.T) {
	inner := udtDef(t, "inner", "int")
	holder := udtDef(t, "holder", "frozen<inner>")

	exec := &recordingExecutor{}
	err := NewCreator(exec, "ks").CreateTypes(context.Background(), nil,
		[]*mapping.UDTDefinition{holder, inner}, false)
	require.NoError(t, err)

	require.Len(t, exec.stmts, 2)
	assert.Contains(t, exec.stmts[0], "CREATE TYPE ks.inner")
	assert.Contains(t, exec.stmts[1], "CREATE TYPE ks.holder")
}

func TestDropperDropTypesInDependencyOrder(t *testing.T) {
	inner := udtDef(t, "inner", "int")
	holder := udtDef(t, "holder", "frozen<inner>")

	exec := &recordingExecutor{}
	err := NewDropper(exec, "ks").DropTypes(context.Background(), nil,
		[]*mapping.UDTDefinition{inner, holder}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"DROP TYPE IF EXISTS ks.holder",
		"DROP TYPE IF EXISTS ks.inner",
	}, exec.stmts)
}

func TestDropperDropUnusedTables(t *testing.T) {
	table, err := mapping.TableFromObject(&track{})
	require.NoError(t, err)

	snap := &Keyspace{
		Name:   "music",
		Tables: map[string]bool{"tracks": true, "legacy_tracks": true},
	}
	exec := &recordingExecutor{}
	err = NewDropper(exec, "music").DropTables(context.Background(), snap, []*mapping.Table{table}, true)
	require.NoError(t, err)

	assert.Contains(t, exec.stmts, "DROP TABLE IF EXISTS music.tracks")
	assert.Contains(t, exec.stmts, "DROP TABLE IF EXISTS music.legacy_tracks")
}

func TestRunScript(t *testing.T) {
	exec := &recordingExecutor{}
	err := RunScript(context.Background(), exec, `
CREATE TABLE a (id int PRIMARY KEY);
INSERT INTO a (id) VALUES (1);
`)
	require.NoError(t, err)
	assert.Len(t, exec.stmts, 2)
}

func TestRunScriptStopsOnError(t *testing.T) {
	exec := &recordingExecutor{
		failOn:  "INSERT INTO a (id) VALUES (1);",
		failErr: fmt.Errorf("boom"),
	}
	err := RunScript(context.Background(), exec, `
CREATE TABLE a (id int PRIMARY KEY);
INSERT INTO a (id) VALUES (1);
INSERT INTO a (id) VALUES (2);
`)
	assert.Error(t, err)
	assert.Len(t, exec.stmts, 1)
}
