package querybuilder

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"net"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

// Inline substitutes each positional ? marker in stmt with the CQL
// literal form of the corresponding argument. ?? escapes to a literal ?.
// It fails when the marker and argument counts disagree.
func Inline(stmt string, args []interface{}) (string, error) {
	var sb strings.Builder
	argIdx := 0
	for {
		p := strings.Index(stmt, "?")
		if p == -1 {
			break
		}
		if len(stmt[p:]) > 1 && stmt[p:p+2] == "??" {
			sb.WriteString(stmt[:p])
			sb.WriteString("?")
			stmt = stmt[p+2:]
			continue
		}
		if argIdx >= len(args) {
			return "", fmt.Errorf("statement has more markers than arguments (%d)", len(args))
		}
		lit, err := Literal(args[argIdx])
		if err != nil {
			return "", err
		}
		sb.WriteString(stmt[:p])
		sb.WriteString(lit)
		argIdx++
		stmt = stmt[p+1:]
	}
	if argIdx != len(args) {
		return "", fmt.Errorf("statement has %d markers for %d arguments", argIdx, len(args))
	}
	sb.WriteString(stmt)
	return sb.String(), nil
}

// Literal renders a single value as a CQL literal.
func Literal(v interface{}) (string, error) {
	if v == nil {
		return "NULL", nil
	}

	switch val := v.(type) {
	case string:
		return quoteString(val), nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case []byte:
		return "0x" + hex.EncodeToString(val), nil
	case time.Time:
		return strconv.FormatInt(val.UnixMilli(), 10), nil
	case gocql.UUID:
		return val.String(), nil
	case uuid.UUID:
		return val.String(), nil
	case *inf.Dec:
		return val.String(), nil
	case *big.Int:
		return val.String(), nil
	case net.IP:
		return quoteString(val.String()), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "NULL", nil
		}
		return Literal(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return quoteString(rv.String()), nil
	case reflect.Slice, reflect.Array:
		return listLiteral(rv)
	case reflect.Map:
		return mapLiteral(rv)
	}
	return "", fmt.Errorf("no CQL literal form for %T", v)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func listLiteral(rv reflect.Value) (string, error) {
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		lit, err := Literal(rv.Index(i).Interface())
		if err != nil {
			return "", err
		}
		parts[i] = lit
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func mapLiteral(rv reflect.Value) (string, error) {
	parts := make([]string, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		k, err := Literal(key.Interface())
		if err != nil {
			return "", err
		}
		v, err := Literal(rv.MapIndex(key).Interface())
		if err != nil {
			return "", err
		}
		parts = append(parts, k+": "+v)
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}", nil
}
