package querybuilder

import (
	"database/sql/driver"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
)

type expr struct {
	sql  string
	args []interface{}
}

// expression builds a raw CQL fragment with positional arguments.
func expression(sql string, args ...interface{}) expr {
	return expr{sql: sql, args: args}
}

func (e expr) ToCQL() (string, []interface{}, error) {
	return e.sql, e.args, nil
}

type exprs []expr

func (es exprs) AppendToSQL(w io.Writer, sep string, args []interface{}) ([]interface{}, error) {
	for i, e := range es {
		if i > 0 {
			if _, err := io.WriteString(w, sep); err != nil {
				return nil, err
			}
		}
		if _, err := io.WriteString(w, e.sql); err != nil {
			return nil, err
		}
		args = append(args, e.args...)
	}
	return args, nil
}

// Eq is a map of column to value rendered as "column = ?". A slice value
// renders as IN, a nil value as IS NULL.
type Eq map[string]interface{}

func (eq Eq) toCQL(useNot bool) (string, []interface{}, error) {
	var (
		exprs []string
		args  = []interface{}{}
	)

	keys := make([]string, 0, len(eq))
	for key := range eq {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := eq[key]

		if v, ok := val.(driver.Valuer); ok {
			dv, err := v.Value()
			if err != nil {
				return "", nil, err
			}
			val = dv
		}

		var e string
		switch {
		case val == nil:
			if useNot {
				e = fmt.Sprintf("%s IS NOT NULL", key)
			} else {
				e = fmt.Sprintf("%s IS NULL", key)
			}
		case isListType(val):
			valVal := reflect.ValueOf(val)
			opr := "IN"
			if useNot {
				opr = "NOT IN"
			}
			if valVal.Len() == 0 {
				e = fmt.Sprintf("%s %s (NULL)", key, opr)
			} else {
				for i := 0; i < valVal.Len(); i++ {
					args = append(args, valVal.Index(i).Interface())
				}
				e = fmt.Sprintf("%s %s (%s)", key, opr, Placeholders(valVal.Len()))
			}
		default:
			opr := "="
			if useNot {
				opr = "<>"
			}
			e = fmt.Sprintf("%s %s ?", key, opr)
			args = append(args, val)
		}
		exprs = append(exprs, e)
	}
	return strings.Join(exprs, " AND "), args, nil
}

func (eq Eq) ToCQL() (string, []interface{}, error) {
	return eq.toCQL(false)
}

// NotEq renders as "column <> ?"; see Eq for slice and nil handling.
type NotEq Eq

func (neq NotEq) ToCQL() (string, []interface{}, error) {
	return Eq(neq).toCQL(true)
}

func isListType(val interface{}) bool {
	if _, ok := val.([]byte); ok {
		return false
	}
	t := reflect.TypeOf(val)
	return t.Kind() == reflect.Array || t.Kind() == reflect.Slice
}

type comparison map[string]interface{}

func (c comparison) toCQL(opr string) (string, []interface{}, error) {
	var (
		exprs []string
		args  []interface{}
	)

	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := c[key]

		if v, ok := val.(driver.Valuer); ok {
			dv, err := v.Value()
			if err != nil {
				return "", nil, err
			}
			val = dv
		}

		switch {
		case val == nil:
			return "", nil, fmt.Errorf("cannot use null with %s operator", opr)
		case isListType(val):
			return "", nil, fmt.Errorf("cannot use list with %s operator", opr)
		default:
			exprs = append(exprs, fmt.Sprintf("%s %s ?", key, opr))
			args = append(args, val)
		}
	}
	return strings.Join(exprs, " AND "), args, nil
}

// Lt renders as "column < ?".
type Lt map[string]interface{}

func (lt Lt) ToCQL() (string, []interface{}, error) {
	return comparison(lt).toCQL("<")
}

// LtOrEq renders as "column <= ?".
type LtOrEq Lt

func (lte LtOrEq) ToCQL() (string, []interface{}, error) {
	return comparison(lte).toCQL("<=")
}

// Gt renders as "column > ?".
type Gt Lt

func (gt Gt) ToCQL() (string, []interface{}, error) {
	return comparison(gt).toCQL(">")
}

// GtOrEq renders as "column >= ?".
type GtOrEq Lt

func (gte GtOrEq) ToCQL() (string, []interface{}, error) {
	return comparison(gte).toCQL(">=")
}

type conj []Sqlizer

func (c conj) join(sep string) (string, []interface{}, error) {
	var (
		sqlParts []string
		args     []interface{}
	)
	for _, s := range c {
		partSQL, partArgs, err := s.ToCQL()
		if err != nil {
			return "", nil, err
		}
		if partSQL != "" {
			sqlParts = append(sqlParts, partSQL)
			args = append(args, partArgs...)
		}
	}
	var sql string
	if len(sqlParts) > 0 {
		sql = fmt.Sprintf("(%s)", strings.Join(sqlParts, sep))
	}
	return sql, args, nil
}

// And joins its parts with AND.
type And conj

func (a And) ToCQL() (string, []interface{}, error) {
	return conj(a).join(" AND ")
}

// Or joins its parts with OR.
type Or conj

func (o Or) ToCQL() (string, []interface{}, error) {
	return conj(o).join(" OR ")
}

type wherePart struct {
	pred interface{}
	args []interface{}
}

func newWherePart(pred interface{}, args ...interface{}) Sqlizer {
	return &wherePart{pred: pred, args: args}
}

func (p wherePart) ToCQL() (string, []interface{}, error) {
	switch pred := p.pred.(type) {
	case nil:
		return "", nil, nil
	case Sqlizer:
		return pred.ToCQL()
	case map[string]interface{}:
		return Eq(pred).ToCQL()
	case string:
		return pred, p.args, nil
	default:
		return "", nil, fmt.Errorf("expected string-keyed map or string, not %T", pred)
	}
}
