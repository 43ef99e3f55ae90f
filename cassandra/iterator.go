package cassandra

import (
	"encoding"
	"math/big"
	"reflect"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
	"gopkg.in/inf.v0"

	"github.com/casmap/casmap"
	"github.com/casmap/casmap/cqlerr"
	"github.com/casmap/casmap/mapping"
)

// iterator walks a partition query row by row, scanning each row into
// targets typed after the mapped columns.
type iterator struct {
	cqlIter      *gocql.Iter
	def          *mapping.Definition
	columns      []string
	successScope tally.Scope
	failScope    tally.Scope
}

var _ casmap.Iterator = (*iterator)(nil)

func newIterator(
	def *mapping.Definition,
	columns []string,
	successScope tally.Scope,
	failScope tally.Scope,
	cqlIter *gocql.Iter,
) *iterator {
	return &iterator{
		cqlIter:      cqlIter,
		def:          def,
		columns:      columns,
		successScope: successScope,
		failScope:    failScope,
	}
}

// Next scans the next row, returning nil at the end of the results.
func (it *iterator) Next() ([]mapping.Column, error) {
	targets := scanTargets(it.def, it.columns)
	if it.cqlIter.Scan(targets...) {
		return rowFromTargets(it.columns, targets), nil
	}
	// Either end-of-results or error.
	if err := it.cqlIter.Close(); err != nil {
		err = cqlerr.Translate(err)
		sendCounters(it.failScope, it.def.Name, opGetIter, err)
		return nil, err
	}
	sendCounters(it.successScope, it.def.Name, opGetIter, nil)
	return nil, nil
}

func (it *iterator) Close() {
	it.cqlIter.Close()
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	uuidType     = reflect.TypeOf(gocql.UUID{})
	durationType = reflect.TypeOf(gocql.Duration{})
	decimalType  = reflect.TypeOf(inf.Dec{})
	varintType   = reflect.TypeOf(big.Int{})

	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// scanTargets allocates one scan destination per column, typed after
// the mapped struct field so the driver decodes into the right shape.
// Basic kinds get double pointers so NULL survives the round trip.
func scanTargets(def *mapping.Definition, columns []string) []interface{} {
	targets := make([]interface{}, len(columns))

	for i, column := range columns {
		typ, ok := def.ColumnToType[column]
		if !ok {
			var value interface{}
			targets[i] = &value
			continue
		}
		for typ.Kind() == reflect.Ptr {
			typ = typ.Elem()
		}

		switch typ {
		case timeType:
			var value *time.Time
			targets[i] = &value
			continue
		case uuidType:
			var value *gocql.UUID
			targets[i] = &value
			continue
		case durationType, decimalType, varintType:
			targets[i] = reflect.New(typ).Interface()
			continue
		}

		// Types stored as text marshal through encoding.TextMarshaler.
		if reflect.PtrTo(typ).Implements(textUnmarshalerType) {
			var value *string
			targets[i] = &value
			continue
		}

		switch typ.Kind() {
		case reflect.String:
			var value *string
			targets[i] = &value
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
			var value *int
			targets[i] = &value
		case reflect.Int64, reflect.Uint64:
			var value *int64
			targets[i] = &value
		case reflect.Bool:
			var value *bool
			targets[i] = &value
		case reflect.Float32:
			var value *float32
			targets[i] = &value
		case reflect.Float64:
			var value *float64
			targets[i] = &value
		case reflect.Slice:
			if typ.Elem().Kind() == reflect.Uint8 {
				var value *[]byte
				targets[i] = &value
			} else {
				targets[i] = reflect.New(typ).Interface()
			}
		case reflect.Map:
			targets[i] = reflect.New(typ).Interface()
		case reflect.Struct:
			// User-defined types decode into a column map; the
			// converter assembles the struct.
			var value map[string]interface{}
			targets[i] = &value
		default:
			log.WithFields(log.Fields{
				"type":   typ.Kind(),
				"column": column,
			}).Info("no scan target for column type")
			var value interface{}
			targets[i] = &value
		}
	}

	return targets
}

// rowFromTargets turns scanned destinations back into columns,
// collapsing double pointers so NULL becomes a nil value.
func rowFromTargets(columns []string, targets []interface{}) []mapping.Column {
	row := make([]mapping.Column, 0, len(columns))

	for i, name := range columns {
		column := mapping.Column{Name: name}

		switch rv := targets[i].(type) {
		case **string:
			column.Value = deref(*rv)
		case **int:
			column.Value = deref(*rv)
		case **int64:
			column.Value = deref(*rv)
		case **bool:
			column.Value = deref(*rv)
		case **float32:
			column.Value = deref(*rv)
		case **float64:
			column.Value = deref(*rv)
		case **[]byte:
			column.Value = deref(*rv)
		case **time.Time:
			column.Value = deref(*rv)
		case **gocql.UUID:
			column.Value = deref(*rv)
		default:
			elem := reflect.ValueOf(targets[i]).Elem()
			if elem.IsValid() {
				column.Value = elem.Interface()
			}
		}
		row = append(row, column)
	}

	return row
}

// deref unwraps the nullable double-pointer scan targets.
func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
