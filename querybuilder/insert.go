package querybuilder

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/lann/builder"
)

type insertData struct {
	PlaceholderFormat PlaceholderFormat
	Into              string
	Columns           []string
	Values            []interface{}
	Usings            exprs
	IfNotExist        bool
}

func (d *insertData) ToCQL() (sqlStr string, args []interface{}, err error) {
	if len(d.Into) == 0 {
		err = fmt.Errorf("insert statements must specify a table")
		return
	}
	if len(d.Values) == 0 {
		err = fmt.Errorf("insert statements must have at least one set of values")
		return
	}

	sql := &bytes.Buffer{}

	sql.WriteString("INSERT INTO ")
	sql.WriteString(d.Into)
	sql.WriteString(" ")

	if len(d.Columns) > 0 {
		sql.WriteString("(")
		sql.WriteString(strings.Join(d.Columns, ","))
		sql.WriteString(") ")
	}

	sql.WriteString("VALUES ")

	valueStrings := make([]string, len(d.Values))
	for v, val := range d.Values {
		e, isExpr := val.(expr)
		if isExpr {
			valueStrings[v] = e.sql
			args = append(args, e.args...)
		} else {
			valueStrings[v] = "?"
			args = append(args, val)
		}
	}
	fmt.Fprintf(sql, "(%s)", strings.Join(valueStrings, ","))

	if d.IfNotExist {
		sql.WriteString(" IF NOT EXISTS")
	}

	if len(d.Usings) > 0 {
		sql.WriteString(" USING ")
		args, _ = d.Usings.AppendToSQL(sql, " ", args)
	}

	format := d.PlaceholderFormat
	if format == nil {
		format = Question
	}
	sqlStr, err = format.ReplacePlaceholders(sql.String())
	return
}

func (d insertData) GetResource() string {
	return d.Into
}

func (d insertData) GetWhereParts() []Sqlizer {
	return nil
}

func (d insertData) GetColumns() []Sqlizer {
	return nil
}

// InsertBuilder builds CQL INSERT statements.
type InsertBuilder builder.Builder

func init() {
	builder.Register(InsertBuilder{}, insertData{})
}

// PlaceholderFormat sets the bind-marker style for the statement.
func (b InsertBuilder) PlaceholderFormat(f PlaceholderFormat) InsertBuilder {
	return builder.Set(b, "PlaceholderFormat", f).(InsertBuilder)
}

// ToCQL renders the statement into a string and bound args.
func (b InsertBuilder) ToCQL() (string, []interface{}, error) {
	data := builder.GetStruct(b).(insertData)
	return data.ToCQL()
}

// StmtType returns the kind of statement this builder produces.
func (b InsertBuilder) StmtType() StmtType {
	return InsertStmtType
}

// GetData returns the underlying statement data.
func (b InsertBuilder) GetData() StatementAccessor {
	return builder.GetStruct(b).(insertData)
}

// Into sets the table the statement inserts into.
func (b InsertBuilder) Into(from string) InsertBuilder {
	return builder.Set(b, "Into", from).(InsertBuilder)
}

// Columns adds insert columns to the statement.
func (b InsertBuilder) Columns(columns ...string) InsertBuilder {
	return builder.Extend(b, "Columns", columns).(InsertBuilder)
}

// Values adds a row of values to the statement.
func (b InsertBuilder) Values(values ...interface{}) InsertBuilder {
	return builder.Extend(b, "Values", values).(InsertBuilder)
}

// Using adds a USING expression (TTL, TIMESTAMP) to the statement.
func (b InsertBuilder) Using(sql string, args ...interface{}) InsertBuilder {
	return builder.Append(b, "Usings", expression(sql, args...)).(InsertBuilder)
}

// IfNotExist performs the insert only when the row does not exist.
func (b InsertBuilder) IfNotExist() InsertBuilder {
	return builder.Set(b, "IfNotExist", true).(InsertBuilder)
}

// IsCAS reports whether the statement carries a compare-and-set part.
func (b InsertBuilder) IsCAS() bool {
	return builder.GetStruct(b).(insertData).IfNotExist
}

// SetMap sets columns and values from a map of column name to value,
// replacing any previously set columns and values. Columns render in
// sorted order.
func (b InsertBuilder) SetMap(clauses map[string]interface{}) InsertBuilder {
	cols := make([]string, 0, len(clauses))
	for col := range clauses {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	vals := make([]interface{}, 0, len(clauses))
	for _, col := range cols {
		vals = append(vals, clauses[col])
	}

	b = builder.Set(b, "Columns", cols).(InsertBuilder)
	b = builder.Set(b, "Values", vals).(InsertBuilder)
	return b
}
