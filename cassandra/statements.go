package cassandra

import (
	"github.com/casmap/casmap/mapping"
	"github.com/casmap/casmap/querybuilder"
)

// splitRow separates a row into parallel name and value lists; the
// order is load-bearing because values bind positionally.
func splitRow(row []mapping.Column) (names []string, values []interface{}) {
	for _, col := range row {
		names = append(names, col.Name)
		values = append(values, col.Value)
	}
	return names, values
}

// eqKeys builds the WHERE predicate matching every key column.
func eqKeys(keys []mapping.Column) querybuilder.Eq {
	eq := make(querybuilder.Eq, len(keys))
	for _, col := range keys {
		eq[col.Name] = col.Value
	}
	return eq
}

func insertStmt(
	def *mapping.Definition,
	row []mapping.Column,
	ifNotExists bool,
) (string, []interface{}, error) {
	names, values := splitRow(row)

	b := querybuilder.Insert(def.Name).
		Columns(names...).
		Values(values...)
	if ifNotExists {
		b = b.IfNotExist()
	}
	return b.ToCQL()
}

func selectStmt(
	def *mapping.Definition,
	keys []mapping.Column,
	columns []string,
	limit uint64,
) (string, []interface{}, error) {
	b := querybuilder.Select(columns...).
		From(def.Name).
		Where(eqKeys(keys))
	if limit > 0 {
		b = b.Limit(limit)
	}
	return b.ToCQL()
}

func updateStmt(
	def *mapping.Definition,
	values []mapping.Column,
	keys []mapping.Column,
) (string, []interface{}, error) {
	b := querybuilder.Update(def.Name)
	for _, col := range values {
		b = b.Set(col.Name, col.Value)
	}
	return b.Where(eqKeys(keys)).ToCQL()
}

func deleteStmt(
	def *mapping.Definition,
	keys []mapping.Column,
) (string, []interface{}, error) {
	return querybuilder.Delete(def.Name).
		Where(eqKeys(keys)).
		ToCQL()
}
