package querybuilder

import (
	"io"

	"github.com/lann/builder"
)

func newBuilder() builder.Builder { return builder.EmptyBuilder }

// Sqlizer is anything that can render itself into a CQL fragment with
// bound arguments.
type Sqlizer interface {
	ToCQL() (string, []interface{}, error)
}

// StmtType identifies the kind of statement a builder produces.
type StmtType int

const (
	// UnknownStmtType is the zero value.
	UnknownStmtType StmtType = iota
	// SelectStmtType is a SELECT statement.
	SelectStmtType
	// InsertStmtType is an INSERT statement.
	InsertStmtType
	// UpdateStmtType is an UPDATE statement.
	UpdateStmtType
	// DeleteStmtType is a DELETE statement.
	DeleteStmtType
)

// Statement is the builder surface the execution layer works against.
type Statement interface {
	Sqlizer
	StmtType() StmtType
	IsCAS() bool
	GetData() StatementAccessor
}

// StatementAccessor provides access to statement internals without
// rendering the statement.
type StatementAccessor interface {
	// GetResource returns the table the statement operates on.
	GetResource() string
	// GetWhereParts returns the statement's WHERE clause parts.
	GetWhereParts() []Sqlizer
	// GetColumns returns the selected columns; nil for non-select
	// statements.
	GetColumns() []Sqlizer
}

// Select starts a SelectBuilder over the given result columns.
func Select(columns ...string) SelectBuilder {
	return SelectBuilder(newBuilder()).Columns(columns...)
}

// Insert starts an InsertBuilder targeting the given table.
func Insert(into string) InsertBuilder {
	return InsertBuilder(newBuilder()).Into(into)
}

// Update starts an UpdateBuilder targeting the given table.
func Update(table string) UpdateBuilder {
	return UpdateBuilder(newBuilder()).Table(table)
}

// Delete starts a DeleteBuilder targeting the given table.
func Delete(from string) DeleteBuilder {
	return DeleteBuilder(newBuilder()).From(from)
}

// appendToSQL renders parts into w separated by sep, collecting their
// arguments.
func appendToSQL(parts []Sqlizer, w io.Writer, sep string, args []interface{}) ([]interface{}, error) {
	for i, p := range parts {
		partSQL, partArgs, err := p.ToCQL()
		if err != nil {
			return nil, err
		} else if len(partSQL) == 0 {
			continue
		}

		if i > 0 {
			if _, err := io.WriteString(w, sep); err != nil {
				return nil, err
			}
		}
		if _, err := io.WriteString(w, partSQL); err != nil {
			return nil, err
		}
		args = append(args, partArgs...)
	}
	return args, nil
}
