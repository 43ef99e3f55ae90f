package schema

import (
	"sort"

	"github.com/casmap/casmap/mapping"
)

// SortTypesForDrop orders user-defined types so that every type appears
// before the types it references, including references through
// collections and frozen wrappers. Dropping in the returned order never
// breaks a dependency. Unknown references are ignored.
func SortTypesForDrop(types []*mapping.UDTDefinition) []*mapping.UDTDefinition {
	byName := make(map[string]*mapping.UDTDefinition, len(types))
	names := make([]string, 0, len(types))
	for _, t := range types {
		byName[t.Name] = t
		names = append(names, t.Name)
	}
	sort.Strings(names)

	// Reverse-postorder DFS over the reference graph: dependents surface
	// before the types they depend on.
	var (
		ordered []*mapping.UDTDefinition
		visited = make(map[string]bool, len(types))
		visit   func(name string)
	)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		def, ok := byName[name]
		if !ok {
			return
		}
		for _, ref := range def.ReferencedUDTs() {
			visit(ref)
		}
		ordered = append(ordered, def)
	}
	for _, name := range names {
		visit(name)
	}

	// Postorder puts dependencies first; dropping needs the reverse.
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered
}

// SortTypesForCreate orders user-defined types so that every referenced
// type is created before the types referencing it.
func SortTypesForCreate(types []*mapping.UDTDefinition) []*mapping.UDTDefinition {
	ordered := SortTypesForDrop(types)
	out := make([]*mapping.UDTDefinition, len(ordered))
	for i, t := range ordered {
		out[len(ordered)-1-i] = t
	}
	return out
}
