package mapping

import (
	"encoding"
	"fmt"
	"math/big"
	"net"
	"reflect"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

var (
	timeType        = reflect.TypeOf(time.Time{})
	durationType    = reflect.TypeOf(time.Duration(0))
	gocqlUUIDType   = reflect.TypeOf(gocql.UUID{})
	uuidType        = reflect.TypeOf(uuid.UUID{})
	decimalType     = reflect.TypeOf(inf.Dec{})
	bigIntType      = reflect.TypeOf(big.Int{})
	ipType          = reflect.TypeOf(net.IP{})
	byteSliceType   = reflect.TypeOf([]byte(nil))
	udtMarkerType   = reflect.TypeOf((*UDT)(nil)).Elem()
	textMarshaler   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshaler = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// CQLTypeOf infers the CQL type for a Go type. Pointers map as their
// element type; nested structs embedding the UDT marker map as frozen
// user-defined types; types implementing encoding.TextMarshaler map as text
// (the enum idiom). Unsupported kinds return a descriptive error.
func CQLTypeOf(t reflect.Type) (*TypeInfo, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t {
	case timeType:
		return &TypeInfo{Name: "timestamp"}, nil
	case durationType:
		return &TypeInfo{Name: "duration"}, nil
	case gocqlUUIDType, uuidType:
		return &TypeInfo{Name: "uuid"}, nil
	case decimalType:
		return &TypeInfo{Name: "decimal"}, nil
	case bigIntType:
		return &TypeInfo{Name: "varint"}, nil
	case ipType:
		return &TypeInfo{Name: "inet"}, nil
	case byteSliceType:
		return &TypeInfo{Name: "blob"}, nil
	}

	if t.Implements(udtMarkerType) {
		name, _, err := udtNameOf(t)
		if err != nil {
			return nil, err
		}
		return &TypeInfo{Name: "udt", UDTName: name, Frozen: true}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return &TypeInfo{Name: "text"}, nil
	case reflect.Bool:
		return &TypeInfo{Name: "boolean"}, nil
	case reflect.Int8:
		return &TypeInfo{Name: "tinyint"}, nil
	case reflect.Int16:
		return &TypeInfo{Name: "smallint"}, nil
	case reflect.Int32, reflect.Int, reflect.Uint32:
		return &TypeInfo{Name: "int"}, nil
	case reflect.Int64, reflect.Uint64, reflect.Uint:
		return &TypeInfo{Name: "bigint"}, nil
	case reflect.Float32:
		return &TypeInfo{Name: "float"}, nil
	case reflect.Float64:
		return &TypeInfo{Name: "double"}, nil
	case reflect.Slice:
		elem, err := CQLTypeOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return &TypeInfo{Name: "list", Params: []*TypeInfo{elem}}, nil
	case reflect.Map:
		key, err := CQLTypeOf(t.Key())
		if err != nil {
			return nil, err
		}
		val, err := CQLTypeOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return &TypeInfo{Name: "map", Params: []*TypeInfo{key, val}}, nil
	case reflect.Struct:
		// Enum-style value types serialize as text.
		if t.Implements(textMarshaler) || reflect.PtrTo(t).Implements(textMarshaler) {
			return &TypeInfo{Name: "text"}, nil
		}
	}

	return nil, fmt.Errorf("no CQL type mapping for Go type %s", t)
}

// FromDriverType converts driver type metadata into a TypeInfo. Collection,
// tuple and UDT types recurse into their element types.
func FromDriverType(ti gocql.TypeInfo) *TypeInfo {
	if ti == nil {
		return &TypeInfo{Name: "unknown"}
	}
	switch ti.Type() {
	case gocql.TypeList, gocql.TypeSet, gocql.TypeMap:
		if ct, ok := ti.(gocql.CollectionType); ok {
			switch ct.Type() {
			case gocql.TypeList:
				return &TypeInfo{Name: "list", Params: []*TypeInfo{FromDriverType(ct.Elem)}}
			case gocql.TypeSet:
				return &TypeInfo{Name: "set", Params: []*TypeInfo{FromDriverType(ct.Elem)}}
			case gocql.TypeMap:
				return &TypeInfo{Name: "map", Params: []*TypeInfo{
					FromDriverType(ct.Key), FromDriverType(ct.Elem)}}
			}
		}
	case gocql.TypeTuple:
		if tt, ok := ti.(gocql.TupleTypeInfo); ok {
			params := make([]*TypeInfo, len(tt.Elems))
			for i, e := range tt.Elems {
				params[i] = FromDriverType(e)
			}
			return &TypeInfo{Name: "tuple", Params: params}
		}
	case gocql.TypeUDT:
		if ut, ok := ti.(gocql.UDTTypeInfo); ok {
			return &TypeInfo{Name: "udt", UDTName: ut.Name, Keyspace: ut.Keyspace}
		}
	}
	return &TypeInfo{Name: driverTypeName(ti.Type())}
}

func driverTypeName(t gocql.Type) string {
	switch t {
	case gocql.TypeAscii:
		return "ascii"
	case gocql.TypeBigInt:
		return "bigint"
	case gocql.TypeBlob:
		return "blob"
	case gocql.TypeBoolean:
		return "boolean"
	case gocql.TypeCounter:
		return "counter"
	case gocql.TypeDecimal:
		return "decimal"
	case gocql.TypeDouble:
		return "double"
	case gocql.TypeFloat:
		return "float"
	case gocql.TypeInt:
		return "int"
	case gocql.TypeText:
		return "text"
	case gocql.TypeTimestamp:
		return "timestamp"
	case gocql.TypeUUID:
		return "uuid"
	case gocql.TypeVarchar:
		return "varchar"
	case gocql.TypeVarint:
		return "varint"
	case gocql.TypeTimeUUID:
		return "timeuuid"
	case gocql.TypeInet:
		return "inet"
	case gocql.TypeDate:
		return "date"
	case gocql.TypeDuration:
		return "duration"
	case gocql.TypeTime:
		return "time"
	case gocql.TypeSmallInt:
		return "smallint"
	case gocql.TypeTinyInt:
		return "tinyint"
	case gocql.TypeList:
		return "list"
	case gocql.TypeMap:
		return "map"
	case gocql.TypeSet:
		return "set"
	case gocql.TypeTuple:
		return "tuple"
	case gocql.TypeUDT:
		return "udt"
	case gocql.TypeCustom:
		return "custom"
	default:
		return "unknown"
	}
}
