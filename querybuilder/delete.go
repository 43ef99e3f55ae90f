package querybuilder

import (
	"bytes"
	"strings"

	"github.com/lann/builder"
)

type deleteData struct {
	PlaceholderFormat PlaceholderFormat
	From              string
	Columns           []string
	WhereParts        []Sqlizer
	IfOnlyParts       []Sqlizer
	IfExists          bool
	Usings            exprs
}

func (d *deleteData) ToCQL() (sqlStr string, args []interface{}, err error) {
	if len(d.From) == 0 {
		err = ErrMissingTable
		return
	}

	sql := &bytes.Buffer{}

	sql.WriteString("DELETE ")

	if len(d.Columns) > 0 {
		sql.WriteString(strings.Join(d.Columns, ", "))
		sql.WriteString(" ")
	}

	sql.WriteString("FROM ")
	sql.WriteString(d.From)

	if len(d.Usings) > 0 {
		sql.WriteString(" USING ")
		args, _ = d.Usings.AppendToSQL(sql, " ", args)
	}

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

func (d deleteData) GetResource() string {
	return d.From
}

func (d deleteData) GetWhereParts() []Sqlizer {
	return d.WhereParts
}

func (d deleteData) GetColumns() []Sqlizer {
	return nil
}

// DeleteBuilder builds CQL DELETE statements.
type DeleteBuilder builder.Builder

func init() {
	builder.Register(DeleteBuilder{}, deleteData{})
}

// PlaceholderFormat sets the bind-marker style for the statement.
func (b DeleteBuilder) PlaceholderFormat(f PlaceholderFormat) DeleteBuilder {
	return builder.Set(b, "PlaceholderFormat", f).(DeleteBuilder)
}

// ToCQL renders the statement into a string and bound args.
func (b DeleteBuilder) ToCQL() (string, []interface{}, error) {
	data := builder.GetStruct(b).(deleteData)
	return data.ToCQL()
}

// StmtType returns the kind of statement this builder produces.
func (b DeleteBuilder) StmtType() StmtType {
	return DeleteStmtType
}

// GetData returns the underlying statement data.
func (b DeleteBuilder) GetData() StatementAccessor {
	return builder.GetStruct(b).(deleteData)
}

// From sets the table the statement deletes from.
func (b DeleteBuilder) From(from string) DeleteBuilder {
	return builder.Set(b, "From", from).(DeleteBuilder)
}

// Columns restricts the delete to the named columns instead of the
// whole row.
func (b DeleteBuilder) Columns(columns ...string) DeleteBuilder {
	return builder.Extend(b, "Columns", columns).(DeleteBuilder)
}

// Where adds WHERE expressions to the statement.
//
// See SelectBuilder.Where for more information.
func (b DeleteBuilder) Where(pred interface{}, args ...interface{}) DeleteBuilder {
	return builder.Append(b, "WhereParts", newWherePart(pred, args...)).(DeleteBuilder)
}

// IfOnly adds a lightweight-transaction IF condition to the statement.
func (b DeleteBuilder) IfOnly(pred interface{}, rest ...interface{}) DeleteBuilder {
	return builder.Append(b, "IfOnlyParts", newWherePart(pred, rest...)).(DeleteBuilder)
}

// IfExists applies the delete only when the row exists.
func (b DeleteBuilder) IfExists() DeleteBuilder {
	return builder.Set(b, "IfExists", true).(DeleteBuilder)
}

// IsCAS reports whether the statement carries a compare-and-set part.
func (b DeleteBuilder) IsCAS() bool {
	data := builder.GetStruct(b).(deleteData)
	return data.IfExists || len(data.IfOnlyParts) > 0
}

// Using adds a USING expression (TIMESTAMP) to the statement.
func (b DeleteBuilder) Using(sql string, args ...interface{}) DeleteBuilder {
	return builder.Append(b, "Usings", expression(sql, args...)).(DeleteBuilder)
}
