package querybuilder

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lann/builder"
)

type updateData struct {
	PlaceholderFormat PlaceholderFormat
	Table             string
	SetClauses        []setClause
	SetClausesAdd     []setClause // collections, +
	SetClausesRemove  []setClause // collections, -
	WhereParts        []Sqlizer
	IfOnlyParts       []Sqlizer
	IfExists          bool
	Usings            exprs
}

type setClause struct {
	column string
	value  interface{}
}

var (
	// ErrMalformedSetClause indicates that the update is missing a set clause
	ErrMalformedSetClause = errors.New("update statements must have at least one Set clause")

	// ErrMissingTable indicates that the statement is missing a target table
	ErrMissingTable = errors.New("statement must specify a table")
)

func (d *updateData) ToCQL() (sqlStr string, args []interface{}, err error) {
	if len(d.Table) == 0 {
		err = ErrMissingTable
		return
	}
	if len(d.SetClauses) == 0 && len(d.SetClausesAdd) == 0 && len(d.SetClausesRemove) == 0 {
		err = ErrMalformedSetClause
		return
	}

	sql := &bytes.Buffer{}

	sql.WriteString("UPDATE ")
	sql.WriteString(d.Table)

	if len(d.Usings) > 0 {
		sql.WriteString(" USING ")
		args, _ = d.Usings.AppendToSQL(sql, " ", args)
	}

	sql.WriteString(" SET ")
	setSqls := make([]string, 0, len(d.SetClauses)+len(d.SetClausesAdd)+len(d.SetClausesRemove))
	for _, clause := range d.SetClauses {
		var valSQL string
		e, isExpr := clause.value.(expr)
		if isExpr {
			valSQL = e.sql
			args = append(args, e.args...)
		} else {
			valSQL = "?"
			args = append(args, clause.value)
		}
		setSqls = append(setSqls, fmt.Sprintf("%s = %s", clause.column, valSQL))
	}
	for _, clause := range d.SetClausesAdd { // SET emails = emails + ?
		args = append(args, clause.value)
		setSqls = append(setSqls, fmt.Sprintf("%s = %s + ?", clause.column, clause.column))
	}
	for _, clause := range d.SetClausesRemove { // SET emails = emails - ?
		args = append(args, clause.value)
		setSqls = append(setSqls, fmt.Sprintf("%s = %s - ?", clause.column, clause.column))
	}
	sql.WriteString(strings.Join(setSqls, ", "))

	if len(d.WhereParts) > 0 {
		sql.WriteString(" WHERE ")
		args, err = appendToSQL(d.WhereParts, sql, " AND ", args)
		if err != nil {
			return
		}
	}

	if d.IfExists {
		sql.WriteString(" IF EXISTS")
	} else if len(d.IfOnlyParts) > 0 {
		sql.WriteString(" IF ")
		args, err = appendToSQL(d.IfOnlyParts, sql, " AND ", args)
		if err != nil {
			return
		}
	}

	format := d.PlaceholderFormat
	if format == nil {
		format = Question
	}
	sqlStr, err = format.ReplacePlaceholders(sql.String())
	return
}

func (d updateData) GetResource() string {
	return d.Table
}

func (d updateData) GetWhereParts() []Sqlizer {
	return d.WhereParts
}

func (d updateData) GetColumns() []Sqlizer {
	return nil
}

// UpdateBuilder builds CQL UPDATE statements.
type UpdateBuilder builder.Builder

func init() {
	builder.Register(UpdateBuilder{}, updateData{})
}

// PlaceholderFormat sets the bind-marker style for the statement.
func (b UpdateBuilder) PlaceholderFormat(f PlaceholderFormat) UpdateBuilder {
	return builder.Set(b, "PlaceholderFormat", f).(UpdateBuilder)
}

// ToCQL renders the statement into a string and bound args.
func (b UpdateBuilder) ToCQL() (string, []interface{}, error) {
	data := builder.GetStruct(b).(updateData)
	return data.ToCQL()
}

// StmtType returns the kind of statement this builder produces.
func (b UpdateBuilder) StmtType() StmtType {
	return UpdateStmtType
}

// GetData returns the underlying statement data.
func (b UpdateBuilder) GetData() StatementAccessor {
	return builder.GetStruct(b).(updateData)
}

// Table sets the table to be updated.
func (b UpdateBuilder) Table(table string) UpdateBuilder {
	return builder.Set(b, "Table", table).(UpdateBuilder)
}

// Set adds a SET clause to the statement.
func (b UpdateBuilder) Set(column string, value interface{}) UpdateBuilder {
	return builder.Append(b, "SetClauses", setClause{column: column, value: value}).(UpdateBuilder)
}

// Add appends a value to a collection column.
func (b UpdateBuilder) Add(column string, value interface{}) UpdateBuilder {
	return builder.Append(b, "SetClausesAdd", setClause{column: column, value: value}).(UpdateBuilder)
}

// Remove discards a value from a collection column.
func (b UpdateBuilder) Remove(column string, value interface{}) UpdateBuilder {
	return builder.Append(b, "SetClausesRemove", setClause{column: column, value: value}).(UpdateBuilder)
}

// SetMap calls Set for each key/value pair in clauses, in sorted key
// order.
func (b UpdateBuilder) SetMap(clauses map[string]interface{}) UpdateBuilder {
	keys := make([]string, 0, len(clauses))
	for key := range clauses {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b = b.Set(key, clauses[key])
	}
	return b
}

// Where adds WHERE expressions to the statement.
//
// See SelectBuilder.Where for more information.
func (b UpdateBuilder) Where(pred interface{}, args ...interface{}) UpdateBuilder {
	return builder.Append(b, "WhereParts", newWherePart(pred, args...)).(UpdateBuilder)
}

// IfOnly adds a lightweight-transaction IF condition to the statement.
func (b UpdateBuilder) IfOnly(pred interface{}, rest ...interface{}) UpdateBuilder {
	return builder.Append(b, "IfOnlyParts", newWherePart(pred, rest...)).(UpdateBuilder)
}

// IfExists applies the update only when the row exists.
func (b UpdateBuilder) IfExists() UpdateBuilder {
	return builder.Set(b, "IfExists", true).(UpdateBuilder)
}

// IsCAS reports whether the statement carries a compare-and-set part.
func (b UpdateBuilder) IsCAS() bool {
	data := builder.GetStruct(b).(updateData)
	return data.IfExists || len(data.IfOnlyParts) > 0
}

// Using adds a USING expression (TTL, TIMESTAMP) to the statement.
func (b UpdateBuilder) Using(sql string, args ...interface{}) UpdateBuilder {
	return builder.Append(b, "Usings", expression(sql, args...)).(UpdateBuilder)
}
