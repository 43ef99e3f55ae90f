package querybuilder

import (
	"bytes"
	"fmt"
	"strings"
)

// PlaceholderFormat rewrites the positional ? markers a builder emits
// into the bind-marker style the target expects.
type PlaceholderFormat interface {
	ReplacePlaceholders(sql string) (string, error)
}

var (
	// Question leaves ? markers untouched.
	Question = questionFormat{}

	// Dollar rewrites ? markers into $1, $2, ...
	Dollar = dollarFormat{}

	// Named rewrites ? markers into :v0, :v1, ... for use with named
	// binding; pair with NamedArgs.
	Named = namedFormat{}
)

type questionFormat struct{}

func (questionFormat) ReplacePlaceholders(sql string) (string, error) {
	return sql, nil
}

type dollarFormat struct{}

func (dollarFormat) ReplacePlaceholders(sql string) (string, error) {
	return replacePositional(sql, func(buf *bytes.Buffer, i int) {
		fmt.Fprintf(buf, "$%d", i+1)
	})
}

type namedFormat struct{}

func (namedFormat) ReplacePlaceholders(sql string) (string, error) {
	return replacePositional(sql, func(buf *bytes.Buffer, i int) {
		fmt.Fprintf(buf, ":v%d", i)
	})
}

// replacePositional walks sql rewriting each unescaped ? through write;
// ?? escapes to a literal ?.
func replacePositional(sql string, write func(*bytes.Buffer, int)) (string, error) {
	buf := &bytes.Buffer{}
	i := 0
	for {
		p := strings.Index(sql, "?")
		if p == -1 {
			break
		}

		if len(sql[p:]) > 1 && sql[p:p+2] == "??" {
			buf.WriteString(sql[:p])
			buf.WriteString("?")
			sql = sql[p+2:]
		} else {
			buf.WriteString(sql[:p])
			write(buf, i)
			i++
			sql = sql[p+1:]
		}
	}
	buf.WriteString(sql)
	return buf.String(), nil
}

// NamedArgs converts a positional argument slice into the v0..vN map
// matching the Named placeholder format.
func NamedArgs(args []interface{}) map[string]interface{} {
	named := make(map[string]interface{}, len(args))
	for i, a := range args {
		named[fmt.Sprintf("v%d", i)] = a
	}
	return named
}

// Placeholders returns a comma-separated list of count ? markers.
func Placeholders(count int) string {
	if count < 1 {
		return ""
	}
	return strings.Repeat(",?", count)[1:]
}
