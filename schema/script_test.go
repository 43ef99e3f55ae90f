package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `
CREATE TABLE a (id int PRIMARY KEY);
INSERT INTO a (id) VALUES (1);
`
	stmts, err := SplitStatements(script)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE a (id int PRIMARY KEY);",
		"INSERT INTO a (id) VALUES (1);",
	}, stmts)
}

func TestSplitStatementsSemicolonInString(t *testing.T) {
	script := `INSERT INTO a (id, note) VALUES (1, 'x; y'); DELETE FROM a WHERE id = 1;`
	stmts, err := SplitStatements(script)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "INSERT INTO a (id, note) VALUES (1, 'x; y');", stmts[0])
}

func TestSplitStatementsComments(t *testing.T) {
	script := `
-- leading comment; with semicolon
CREATE TABLE a (id int PRIMARY KEY); // trailing comment
/* block; comment */
CREATE TABLE b (id int PRIMARY KEY)
`
	stmts, err := SplitStatements(script)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE a (id int PRIMARY KEY);",
		"CREATE TABLE b (id int PRIMARY KEY)",
	}, stmts)
}

func TestSplitStatementsBatch(t *testing.T) {
	script := `
BEGIN BATCH
  INSERT INTO a (id) VALUES (1);
  INSERT INTO a (id) VALUES (2);
APPLY BATCH;
DELETE FROM a WHERE id = 1;
`
	stmts, err := SplitStatements(script)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "BEGIN BATCH")
	assert.Contains(t, stmts[0], "APPLY BATCH;")
	assert.Equal(t, "DELETE FROM a WHERE id = 1;", stmts[1])
}

func TestSplitStatementsDollarQuoted(t *testing.T) {
	script := `INSERT INTO a (id, body) VALUES (1, $$it's; fine$$);`
	stmts, err := SplitStatements(script)
	require.NoError(t, err)
	assert.Equal(t, []string{script}, stmts)
}

func TestSplitStatementsErrors(t *testing.T) {
	_, err := SplitStatements(`INSERT INTO a VALUES ('unterminated`)
	assert.Error(t, err)

	_, err = SplitStatements(`BEGIN BATCH INSERT INTO a (id) VALUES (1);`)
	assert.Error(t, err)
}

func TestSplitStatementsEmpty(t *testing.T) {
	stmts, err := SplitStatements("   \n-- only a comment\n")
	require.NoError(t, err)
	assert.Empty(t, stmts)
}
