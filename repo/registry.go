package repo

import (
	"github.com/casmap/casmap"
	"github.com/casmap/casmap/mapping"
)

// Registry wires object types to a shared client at startup. It builds
// the client from a connector and the full set of mapped objects, and
// repositories are then constructed against it with For.
type Registry struct {
	client *casmap.Client
}

// NewRegistry registers the objects with a fresh client.
func NewRegistry(conn casmap.Connector, objects []mapping.Object, opts ...casmap.Option) (*Registry, error) {
	client, err := casmap.NewClient(conn, objects, opts...)
	if err != nil {
		return nil, err
	}
	return &Registry{client: client}, nil
}

// Client returns the underlying client for callers that need the
// untyped surface.
func (r *Registry) Client() *casmap.Client { return r.client }

// For constructs a typed repository from the registry's client.
func For[T mapping.Object](r *Registry) (*Repository[T], error) {
	return NewRepository[T](r.client)
}
