package querybuilder

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/lann/builder"
)

type selectData struct {
	PlaceholderFormat PlaceholderFormat
	Distinct          bool
	Columns           []Sqlizer
	From              string
	WhereParts        []Sqlizer
	OrderBys          []string
	Limit             string
	AllowFiltering    bool
	PageSize          int
	PagingState       []byte
}

func (d *selectData) ToCQL() (sqlStr string, args []interface{}, err error) {
	if len(d.Columns) == 0 {
		err = fmt.Errorf("select statements must have at least one result column")
		return
	}

	sql := &bytes.Buffer{}

	sql.WriteString("SELECT ")

	if d.Distinct {
		sql.WriteString("DISTINCT ")
	}

	args, err = appendToSQL(d.Columns, sql, ", ", args)
	if err != nil {
		return
	}

	if len(d.From) > 0 {
		sql.WriteString(" FROM ")
		sql.WriteString(d.From)
	}

	if len(d.WhereParts) > 0 {
		sql.WriteString(" WHERE ")
		args, err = appendToSQL(d.WhereParts, sql, " AND ", args)
		if err != nil {
			return
		}
	}

	if len(d.OrderBys) > 0 {
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(d.OrderBys, ", "))
	}

	if len(d.Limit) > 0 {
		sql.WriteString(" LIMIT ")
		sql.WriteString(d.Limit)
	}

	if d.AllowFiltering {
		sql.WriteString(" ALLOW FILTERING")
	}

	format := d.PlaceholderFormat
	if format == nil {
		format = Question
	}
	sqlStr, err = format.ReplacePlaceholders(sql.String())
	return
}

func (d selectData) GetResource() string {
	return d.From
}

func (d selectData) GetWhereParts() []Sqlizer {
	return d.WhereParts
}

func (d selectData) GetColumns() []Sqlizer {
	return d.Columns
}

// SelectBuilder builds CQL SELECT statements.
type SelectBuilder builder.Builder

func init() {
	builder.Register(SelectBuilder{}, selectData{})
}

// PlaceholderFormat sets the bind-marker style for the query.
func (b SelectBuilder) PlaceholderFormat(f PlaceholderFormat) SelectBuilder {
	return builder.Set(b, "PlaceholderFormat", f).(SelectBuilder)
}

// ToCQL renders the query into a statement string and bound args.
func (b SelectBuilder) ToCQL() (string, []interface{}, error) {
	data := builder.GetStruct(b).(selectData)
	return data.ToCQL()
}

// StmtType returns the kind of statement this builder produces.
func (b SelectBuilder) StmtType() StmtType {
	return SelectStmtType
}

// IsCAS reports whether the statement carries a compare-and-set part.
func (b SelectBuilder) IsCAS() bool {
	return false
}

// GetData returns the underlying statement data.
func (b SelectBuilder) GetData() StatementAccessor {
	return builder.GetStruct(b).(selectData)
}

// Distinct marks the query as DISTINCT.
func (b SelectBuilder) Distinct() SelectBuilder {
	return builder.Set(b, "Distinct", true).(SelectBuilder)
}

// Columns adds result columns to the query.
func (b SelectBuilder) Columns(columns ...string) SelectBuilder {
	parts := make([]interface{}, 0, len(columns))
	for _, str := range columns {
		parts = append(parts, newPart(str))
	}
	return builder.Extend(b, "Columns", parts).(SelectBuilder)
}

// Column adds a single result column, optionally with arguments for
// embedded markers.
func (b SelectBuilder) Column(column interface{}, args ...interface{}) SelectBuilder {
	return builder.Append(b, "Columns", newPart(column, args...)).(SelectBuilder)
}

// From sets the table the query selects from.
func (b SelectBuilder) From(from string) SelectBuilder {
	return builder.Set(b, "From", from).(SelectBuilder)
}

// Where adds WHERE expressions to the query.
//
// pred can be a string with optional args, an Eq/NotEq/Lt/Gt-style
// condition, or a map of column to value.
func (b SelectBuilder) Where(pred interface{}, args ...interface{}) SelectBuilder {
	return builder.Append(b, "WhereParts", newWherePart(pred, args...)).(SelectBuilder)
}

// OrderBy adds ORDER BY expressions to the query.
func (b SelectBuilder) OrderBy(orderBys ...string) SelectBuilder {
	return builder.Extend(b, "OrderBys", orderBys).(SelectBuilder)
}

// Limit sets a LIMIT clause on the query.
func (b SelectBuilder) Limit(limit uint64) SelectBuilder {
	return builder.Set(b, "Limit", strconv.FormatUint(limit, 10)).(SelectBuilder)
}

// AllowFiltering appends ALLOW FILTERING to the query.
func (b SelectBuilder) AllowFiltering() SelectBuilder {
	return builder.Set(b, "AllowFiltering", true).(SelectBuilder)
}

// PageSize caps the number of rows fetched per page at execution time.
func (b SelectBuilder) PageSize(pageSize int) SelectBuilder {
	return builder.Set(b, "PageSize", pageSize).(SelectBuilder)
}

// GetPageSize returns the configured page size, zero when unset.
func (b SelectBuilder) GetPageSize() int {
	return builder.GetStruct(b).(selectData).PageSize
}

// PagingState resumes the query from a previously returned page state.
func (b SelectBuilder) PagingState(state []byte) SelectBuilder {
	return builder.Set(b, "PagingState", state).(SelectBuilder)
}

// GetPagingState returns the configured paging state, nil when unset.
func (b SelectBuilder) GetPagingState() []byte {
	return builder.GetStruct(b).(selectData).PagingState
}

// part is a raw column fragment with optional arguments.
type part struct {
	pred interface{}
	args []interface{}
}

func newPart(pred interface{}, args ...interface{}) Sqlizer {
	return &part{pred, args}
}

func (p part) ToCQL() (string, []interface{}, error) {
	switch pred := p.pred.(type) {
	case string:
		return pred, p.args, nil
	case Sqlizer:
		if len(p.args) > 0 {
			return "", nil, fmt.Errorf("expected zero arguments with a Sqlizer column")
		}
		return pred.ToCQL()
	default:
		return "", nil, fmt.Errorf("expected string or Sqlizer, not %T", pred)
	}
}
