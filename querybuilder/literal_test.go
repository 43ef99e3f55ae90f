package querybuilder

import (
	"testing"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	id, err := gocql.ParseUUID("e3a94b81-ebb3-4607-8a65-10a30fab0efd")
	require.NoError(t, err)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		value    interface{}
		expected string
	}{
		{nil, "NULL"},
		{"it's", "'it''s'"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint8(255), "255"},
		{true, "true"},
		{false, "false"},
		{3.5, "3.5"},
		{[]byte{0xde, 0xad}, "0xdead"},
		{ts, "1709294400000"},
		{id, "e3a94b81-ebb3-4607-8a65-10a30fab0efd"},
		{[]string{"a", "b"}, "['a', 'b']"},
		{map[string]int{"k": 1}, "{'k': 1}"},
	}
	for _, tt := range tests {
		got, err := Literal(tt.value)
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestLiteralNilPointer(t *testing.T) {
	var s *string
	got, err := Literal(s)
	assert.NoError(t, err)
	assert.Equal(t, "NULL", got)
}

func TestInline(t *testing.T) {
	stmt, err := Inline("SELECT * FROM t WHERE a = ? AND b = ?", []interface{}{"x", 2})
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = 'x' AND b = 2", stmt)
}

func TestInlineEscapedMarker(t *testing.T) {
	stmt, err := Inline("SELECT '??' AS q FROM t WHERE a = ?", []interface{}{1})
	assert.NoError(t, err)
	assert.Equal(t, "SELECT '?' AS q FROM t WHERE a = 1", stmt)
}

func TestInlineArgCountMismatch(t *testing.T) {
	_, err := Inline("a = ?", nil)
	assert.Error(t, err)

	_, err = Inline("a = ?", []interface{}{1, 2})
	assert.Error(t, err)
}

func TestInlineFromBuilder(t *testing.T) {
	cql, args, err := Update("tasks").
		Set("state", "running").
		Where(Eq{"id": 7}).
		ToCQL()
	require.NoError(t, err)

	stmt, err := Inline(cql, args)
	assert.NoError(t, err)
	assert.Equal(t, "UPDATE tasks SET state = 'running' WHERE id = 7", stmt)
}
