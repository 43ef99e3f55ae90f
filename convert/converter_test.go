package convert_test

import (
	"testing"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casmap/casmap/convert"
	"github.com/casmap/casmap/mapping"
)

type status string

const (
	statusActive status = "active"
	statusClosed status = "closed"
)

type tier int

func (t tier) MarshalText() ([]byte, error) {
	switch t {
	case 1:
		return []byte("gold"), nil
	default:
		return []byte("standard"), nil
	}
}

func (t *tier) UnmarshalText(b []byte) error {
	if string(b) == "gold" {
		*t = 1
	} else {
		*t = 0
	}
	return nil
}

type homeAddress struct {
	mapping.UDTEmbed `cql:"name=address"`
	Street           string `column:"name=street"`
	City             string `column:"name=city"`
}

type customer struct {
	mapping.Embed `cql:"name=customers, primaryKey=((id))"`
	ID            uuid.UUID     `column:"name=id"`
	Name          string        `column:"name=name"`
	Status        status        `column:"name=status"`
	Tier          tier          `column:"name=tier,type=text"`
	SignedUp      time.Time     `column:"name=signed_up"`
	Session       time.Duration `column:"name=session"`
	Home          homeAddress   `column:"name=home"`
	Offices       []homeAddress `column:"name=offices"`
	Note          *string       `column:"name=note"`
}

func newCustomerTable(t *testing.T) *mapping.Table {
	t.Helper()
	table, err := mapping.TableFromObject(&customer{})
	require.NoError(t, err)
	return table
}

func TestWriteConvertsRegisteredTypes(t *testing.T) {
	table := newCustomerTable(t)
	conv := convert.New(nil)

	id := uuid.MustParse("c37b3620-9d6c-4e8a-9d26-6e6f04b2e011")
	e := &customer{
		ID:       id,
		Name:     "n",
		Status:   statusActive,
		Tier:     1,
		Session:  90 * time.Second,
		SignedUp: time.Unix(100, 0),
	}
	row, err := conv.Write(e, table, "id", "name", "status", "tier", "session")
	require.NoError(t, err)
	require.Len(t, row, 5)

	assert.Equal(t, gocql.UUID(id), row[0].Value)
	assert.Equal(t, "n", row[1].Value)
	// string-kind enums pass through as their underlying string
	assert.Equal(t, statusActive, row[2].Value)
	// int-kind enums with MarshalText stored as text
	assert.Equal(t, "gold", row[3].Value)
	assert.Equal(t, gocql.Duration{Nanoseconds: int64(90 * time.Second)}, row[4].Value)
}

func TestWriteWrapsUDTs(t *testing.T) {
	table := newCustomerTable(t)
	conv := convert.New(nil)

	e := &customer{
		Home:    homeAddress{Street: "1 Main", City: "Z"},
		Offices: []homeAddress{{Street: "2 Side"}},
	}
	row, err := conv.Write(e, table, "home", "offices")
	require.NoError(t, err)

	udt, ok := row[0].Value.(*convert.UDTValue)
	require.True(t, ok, "UDT fields wrap as driver marshalers, got %T", row[0].Value)
	assert.Equal(t, homeAddress{Street: "1 Main", City: "Z"}, udt.Interface())

	list, ok := row[1].Value.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	_, ok = list[0].(*convert.UDTValue)
	assert.True(t, ok)
}

func TestWriteKeySkipsNilAndConverts(t *testing.T) {
	table := newCustomerTable(t)
	conv := convert.New(nil)

	id := uuid.New()
	row, err := conv.WriteKey(&customer{ID: id}, table)
	require.NoError(t, err)
	require.Len(t, row, 1)
	assert.Equal(t, "id", row[0].Name)
	assert.Equal(t, gocql.UUID(id), row[0].Value)
}

func TestReadAppliesConversions(t *testing.T) {
	table := newCustomerTable(t)
	conv := convert.New(nil)

	id := uuid.New()
	signed := time.Unix(200, 0).UTC()
	e := &customer{}
	err := conv.Read(map[string]interface{}{
		"id":        gocql.UUID(id),
		"name":      "acme",
		"status":    "closed",
		"tier":      "gold",
		"signed_up": signed,
		"session":   gocql.Duration{Nanoseconds: int64(time.Minute)},
		"home":      map[string]interface{}{"street": "1 Main", "city": "Z"},
		"offices": []map[string]interface{}{
			{"street": "2 Side"},
		},
		"note":     "hello",
		"ignored":  "no such column",
	}, e, table)
	require.NoError(t, err)

	assert.Equal(t, id, e.ID)
	assert.Equal(t, "acme", e.Name)
	assert.Equal(t, statusClosed, e.Status)
	assert.Equal(t, tier(1), e.Tier)
	assert.Equal(t, signed, e.SignedUp)
	assert.Equal(t, time.Minute, e.Session)
	assert.Equal(t, homeAddress{Street: "1 Main", City: "Z"}, e.Home)
	require.Len(t, e.Offices, 1)
	assert.Equal(t, "2 Side", e.Offices[0].Street)
	require.NotNil(t, e.Note)
	assert.Equal(t, "hello", *e.Note)
}

func TestReadPointerCollectionsOfUDTs(t *testing.T) {
	type company struct {
		mapping.Embed `cql:"name=companies, primaryKey=((id))"`
		ID            string                  `column:"name=id"`
		Offices       []*homeAddress          `column:"name=offices"`
		Sites         map[string]*homeAddress `column:"name=sites"`
	}
	table, err := mapping.TableFromObject(&company{})
	require.NoError(t, err)

	e := &company{}
	err = convert.New(nil).Read(map[string]interface{}{
		"id": "c1",
		"offices": []map[string]interface{}{
			{"street": "1 Main", "city": "Z"},
			{"street": "2 Side"},
		},
		"sites": map[string]interface{}{
			"hq": map[string]interface{}{"street": "3 High"},
		},
	}, e, table)
	require.NoError(t, err)

	require.Len(t, e.Offices, 2)
	require.NotNil(t, e.Offices[0])
	assert.Equal(t, homeAddress{Street: "1 Main", City: "Z"}, *e.Offices[0])
	assert.Equal(t, "2 Side", e.Offices[1].Street)

	require.NotNil(t, e.Sites["hq"])
	assert.Equal(t, "3 High", e.Sites["hq"].Street)
}

func TestReadMapOfValueUDTs(t *testing.T) {
	type branch struct {
		mapping.Embed `cql:"name=branches, primaryKey=((id))"`
		ID            string                 `column:"name=id"`
		Sites         map[string]homeAddress `column:"name=sites"`
	}
	table, err := mapping.TableFromObject(&branch{})
	require.NoError(t, err)

	e := &branch{}
	err = convert.New(nil).Read(map[string]interface{}{
		"id": "b1",
		"sites": map[string]interface{}{
			"hq": map[string]interface{}{"street": "3 High", "city": "Y"},
		},
	}, e, table)
	require.NoError(t, err)

	assert.Equal(t, homeAddress{Street: "3 High", City: "Y"}, e.Sites["hq"])
}

func TestReadNullColumn(t *testing.T) {
	table := newCustomerTable(t)
	conv := convert.New(nil)

	note := "x"
	e := &customer{Note: &note}
	err := conv.Read(map[string]interface{}{"note": nil}, e, table)
	require.NoError(t, err)
	assert.Nil(t, e.Note)
}

func TestReadWidensDriverNumerics(t *testing.T) {
	type counters struct {
		mapping.Embed `cql:"name=counters, primaryKey=((id))"`
		ID            string `column:"name=id"`
		Small         uint32 `column:"name=small"`
		Big           uint64 `column:"name=big"`
	}
	table, err := mapping.TableFromObject(&counters{})
	require.NoError(t, err)

	e := &counters{}
	// the driver hands back int and int64 for CQL int and bigint
	err = convert.New(nil).Read(map[string]interface{}{
		"id":    "k",
		"small": int(7),
		"big":   int64(9),
	}, e, table)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), e.Small)
	assert.Equal(t, uint64(9), e.Big)
}

func TestUDTValueMarshalUnknownFieldIsNull(t *testing.T) {
	u, err := convert.WrapUDT(&homeAddress{Street: "s"}, nil)
	require.NoError(t, err)

	// fields absent from the struct write null regardless of type info
	data, err := u.MarshalUDT("not_a_field", nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestWrapUDTNil(t *testing.T) {
	var addr *homeAddress
	_, err := convert.WrapUDT(addr, nil)
	assert.Error(t, err)
}
