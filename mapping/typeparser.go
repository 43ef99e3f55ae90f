package mapping

import (
	"fmt"
	"strings"
)

// TypeInfo is the parsed form of a CQL type string.
type TypeInfo struct {
	// Name is the base type: "text", "int", "list", "map", "udt", ...
	Name string
	// Frozen reports a frozen<...> wrapper.
	Frozen bool
	// Params holds element types for collections and tuples.
	Params []*TypeInfo
	// UDTName and Keyspace identify user-defined types.
	UDTName  string
	Keyspace string
}

// cqlPrimitives is the set of native CQL types. Any other bare identifier
// parses as a user-defined type.
var cqlPrimitives = map[string]bool{
	"ascii": true, "bigint": true, "blob": true, "boolean": true,
	"counter": true, "date": true, "decimal": true, "double": true,
	"duration": true, "float": true, "inet": true, "int": true,
	"smallint": true, "text": true, "time": true, "timestamp": true,
	"timeuuid": true, "tinyint": true, "uuid": true, "varchar": true,
	"varint": true,
}

// IsPrimitive reports whether name is a native CQL type.
func IsPrimitive(name string) bool { return cqlPrimitives[name] }

// ParseType parses a CQL type string such as "map<text, frozen<address>>"
// into structured type information.
func ParseType(s string) (*TypeInfo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty CQL type")
	}
	p := &typeScanner{src: s}
	ti, err := p.scanType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing input %q in CQL type %q", p.src[p.pos:], s)
	}
	return ti, nil
}

type typeScanner struct {
	src string
	pos int
}

func (p *typeScanner) scanType() (*TypeInfo, error) {
	if p.word("frozen") {
		if !p.symbol('<') {
			return nil, fmt.Errorf("expected '<' after frozen at %d", p.pos)
		}
		inner, err := p.scanType()
		if err != nil {
			return nil, err
		}
		if !p.symbol('>') {
			return nil, fmt.Errorf("unterminated frozen<> at %d", p.pos)
		}
		inner.Frozen = true
		return inner, nil
	}

	name := p.identifier()
	if name == "" {
		return nil, fmt.Errorf("expected type name at %d", p.pos)
	}
	ti := &TypeInfo{Name: strings.ToLower(name)}

	switch ti.Name {
	case "list", "set":
		if !p.symbol('<') {
			return nil, fmt.Errorf("expected '<' after %s at %d", ti.Name, p.pos)
		}
		elem, err := p.scanType()
		if err != nil {
			return nil, fmt.Errorf("%s element: %w", ti.Name, err)
		}
		if !p.symbol('>') {
			return nil, fmt.Errorf("unterminated %s<> at %d", ti.Name, p.pos)
		}
		ti.Params = []*TypeInfo{elem}

	case "map":
		if !p.symbol('<') {
			return nil, fmt.Errorf("expected '<' after map at %d", p.pos)
		}
		key, err := p.scanType()
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		if !p.symbol(',') {
			return nil, fmt.Errorf("expected ',' in map<> at %d", p.pos)
		}
		val, err := p.scanType()
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		if !p.symbol('>') {
			return nil, fmt.Errorf("unterminated map<> at %d", p.pos)
		}
		ti.Params = []*TypeInfo{key, val}

	case "tuple":
		if !p.symbol('<') {
			return nil, fmt.Errorf("expected '<' after tuple at %d", p.pos)
		}
		for {
			elem, err := p.scanType()
			if err != nil {
				return nil, fmt.Errorf("tuple element: %w", err)
			}
			ti.Params = append(ti.Params, elem)
			if p.symbol('>') {
				break
			}
			if !p.symbol(',') {
				return nil, fmt.Errorf("expected ',' or '>' in tuple at %d", p.pos)
			}
		}

	default:
		if p.symbol('.') {
			// keyspace-qualified UDT
			udt := p.identifier()
			if udt == "" {
				return nil, fmt.Errorf("expected UDT name after '.' at %d", p.pos)
			}
			ti.Keyspace = name
			ti.Name = "udt"
			ti.UDTName = udt
		} else if !IsPrimitive(ti.Name) {
			ti.UDTName = name
			ti.Name = "udt"
		}
	}
	return ti, nil
}

func (p *typeScanner) identifier() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentRune(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeScanner) symbol(ch byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ch {
		p.pos++
		return true
	}
	return false
}

// word consumes the keyword if it appears next and is not a prefix of a
// longer identifier.
func (p *typeScanner) word(kw string) bool {
	p.skipSpace()
	end := p.pos + len(kw)
	if end > len(p.src) || !strings.EqualFold(p.src[p.pos:end], kw) {
		return false
	}
	if end < len(p.src) && isIdentRune(p.src[end]) {
		return false
	}
	p.pos = end
	return true
}

func (p *typeScanner) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func isIdentRune(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' ||
		ch >= '0' && ch <= '9' || ch == '_'
}

// String renders the type back to its CQL form.
func (t *TypeInfo) String() string {
	var b strings.Builder
	if t.Frozen {
		b.WriteString("frozen<")
	}
	switch t.Name {
	case "list", "set":
		b.WriteString(t.Name)
		b.WriteByte('<')
		if len(t.Params) > 0 {
			b.WriteString(t.Params[0].String())
		}
		b.WriteByte('>')
	case "map":
		b.WriteString("map<")
		if len(t.Params) > 1 {
			b.WriteString(t.Params[0].String())
			b.WriteString(", ")
			b.WriteString(t.Params[1].String())
		}
		b.WriteByte('>')
	case "tuple":
		b.WriteString("tuple<")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		b.WriteByte('>')
	case "udt":
		if t.Keyspace != "" {
			b.WriteString(t.Keyspace)
			b.WriteByte('.')
		}
		b.WriteString(t.UDTName)
	default:
		b.WriteString(t.Name)
	}
	if t.Frozen {
		b.WriteByte('>')
	}
	return b.String()
}

// IsCollection reports whether the type is a list, set or map.
func (t *TypeInfo) IsCollection() bool {
	switch t.Name {
	case "list", "set", "map":
		return true
	}
	return false
}

// ReferencedUDTs returns the names of all user-defined types reachable from
// this type, including through collections, tuples and frozen wrappers.
func (t *TypeInfo) ReferencedUDTs() []string {
	var names []string
	if t.Name == "udt" {
		names = append(names, t.UDTName)
	}
	for _, p := range t.Params {
		names = append(names, p.ReferencedUDTs()...)
	}
	return names
}
