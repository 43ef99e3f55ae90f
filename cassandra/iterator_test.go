package cassandra

import (
	"testing"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casmap/casmap/mapping"
)

type severity int

const sevCritical severity = 2

func (s severity) MarshalText() ([]byte, error) {
	if s == sevCritical {
		return []byte("critical"), nil
	}
	return []byte("normal"), nil
}

func (s *severity) UnmarshalText(text []byte) error {
	if string(text) == "critical" {
		*s = sevCritical
	} else {
		*s = 0
	}
	return nil
}

type alert struct {
	mapping.Embed `cql:"name=alerts, primaryKey=((id))"`
	ID            gocql.UUID
	Message       string
	Count         int
	Acked         bool
	Severity      severity
	RaisedAt      time.Time
	Payload       []byte
	Labels        map[string]string
	Threshold     *float64
}

func alertDef(t *testing.T) *mapping.Definition {
	t.Helper()
	table, err := mapping.TableFromObject(&alert{})
	require.NoError(t, err)
	return &table.Definition
}

func TestScanTargetTypes(t *testing.T) {
	def := alertDef(t)
	columns := def.ColumnNames()
	targets := scanTargets(def, columns)
	require.Len(t, targets, len(columns))

	byName := map[string]interface{}{}
	for i, name := range columns {
		byName[name] = targets[i]
	}

	assert.IsType(t, (**gocql.UUID)(nil), byName["id"])
	assert.IsType(t, (**string)(nil), byName["message"])
	assert.IsType(t, (**int)(nil), byName["count"])
	assert.IsType(t, (**bool)(nil), byName["acked"])
	// text-marshaled types travel as strings
	assert.IsType(t, (**string)(nil), byName["severity"])
	assert.IsType(t, (**time.Time)(nil), byName["raised_at"])
	assert.IsType(t, (**[]byte)(nil), byName["payload"])
	assert.IsType(t, (*map[string]string)(nil), byName["labels"])
	// pointer fields scan as their element type
	assert.IsType(t, (**float64)(nil), byName["threshold"])
}

func TestScanTargetUnknownColumn(t *testing.T) {
	def := alertDef(t)
	targets := scanTargets(def, []string{"writetime"})
	require.Len(t, targets, 1)
	assert.IsType(t, (*interface{})(nil), targets[0])
}

func TestRowFromTargets(t *testing.T) {
	msg := "disk full"
	count := 4
	acked := true

	pmsg, pcount, packed := &msg, &count, &acked
	var missing *string
	labels := map[string]string{"host": "db-1"}

	columns := []string{"message", "count", "acked", "note", "labels"}
	targets := []interface{}{&pmsg, &pcount, &packed, &missing, &labels}

	row := rowFromTargets(columns, targets)
	require.Len(t, row, 5)

	assert.Equal(t, mapping.Column{Name: "message", Value: "disk full"}, row[0])
	assert.Equal(t, mapping.Column{Name: "count", Value: 4}, row[1])
	assert.Equal(t, mapping.Column{Name: "acked", Value: true}, row[2])
	// NULL columns collapse to nil values
	assert.Equal(t, mapping.Column{Name: "note", Value: nil}, row[3])
	assert.Equal(t, mapping.Column{Name: "labels", Value: labels}, row[4])
}
