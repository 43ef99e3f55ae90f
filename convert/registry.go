// Package convert translates between mapped Go values and the column
// values the driver understands. A Converter applies registered custom
// conversions, the enum text idiom and user-defined-type bridging on top of
// the structural mapping in package mapping.
package convert

import (
	"fmt"
	"reflect"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"
)

// ValueConverter converts one Go type to and from its driver
// representation.
type ValueConverter interface {
	// GoType is the mapped struct field type this converter owns.
	GoType() reflect.Type
	// ToColumn converts a field value into a driver-marshalable value.
	ToColumn(v interface{}) (interface{}, error)
	// FromColumn converts a driver-returned value back to the field type.
	FromColumn(v interface{}) (interface{}, error)
}

// Registry holds custom value converters keyed by Go type. The zero value
// is unusable; construct with NewRegistry, which installs the built-in
// conversions.
type Registry struct {
	byType map[reflect.Type]ValueConverter
}

// NewRegistry returns a registry with the built-in converters installed:
// google/uuid UUIDs and time.Duration.
func NewRegistry() *Registry {
	r := &Registry{byType: map[reflect.Type]ValueConverter{}}
	r.Register(uuidConverter{})
	r.Register(durationConverter{})
	return r
}

// Register installs a converter, replacing any previous converter for the
// same Go type.
func (r *Registry) Register(c ValueConverter) {
	r.byType[c.GoType()] = c
}

// Lookup returns the converter for a Go type.
func (r *Registry) Lookup(t reflect.Type) (ValueConverter, bool) {
	c, ok := r.byType[t]
	return c, ok
}

// uuidConverter maps github.com/google/uuid values onto the driver's UUID
// representation.
type uuidConverter struct{}

func (uuidConverter) GoType() reflect.Type { return reflect.TypeOf(uuid.UUID{}) }

func (uuidConverter) ToColumn(v interface{}) (interface{}, error) {
	u, ok := v.(uuid.UUID)
	if !ok {
		return nil, fmt.Errorf("expected uuid.UUID, got %T", v)
	}
	return gocql.UUID(u), nil
}

func (uuidConverter) FromColumn(v interface{}) (interface{}, error) {
	switch u := v.(type) {
	case gocql.UUID:
		return uuid.UUID(u), nil
	case [16]byte:
		return uuid.UUID(u), nil
	case string:
		parsed, err := uuid.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID %q: %w", u, err)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("cannot read UUID from %T", v)
	}
}

// durationConverter maps time.Duration onto the CQL duration type.
type durationConverter struct{}

func (durationConverter) GoType() reflect.Type { return reflect.TypeOf(time.Duration(0)) }

func (durationConverter) ToColumn(v interface{}) (interface{}, error) {
	d, ok := v.(time.Duration)
	if !ok {
		return nil, fmt.Errorf("expected time.Duration, got %T", v)
	}
	return gocql.Duration{Nanoseconds: int64(d)}, nil
}

func (durationConverter) FromColumn(v interface{}) (interface{}, error) {
	switch d := v.(type) {
	case gocql.Duration:
		const day = 24 * time.Hour
		return time.Duration(d.Nanoseconds) +
			time.Duration(d.Days)*day +
			time.Duration(d.Months)*30*day, nil
	case int64:
		return time.Duration(d), nil
	case time.Duration:
		return d, nil
	default:
		return nil, fmt.Errorf("cannot read duration from %T", v)
	}
}
