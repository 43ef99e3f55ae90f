// Package repo layers typed repositories over a client. A Repository
// binds one mapped object type to Save/Find/Delete operations so
// callers never handle mapping.Object directly; a Registry constructs
// and hands out repositories for every registered type.
package repo

import (
	"context"
	"errors"

	"github.com/casmap/casmap"
	"github.com/casmap/casmap/cqlerr"
	"github.com/casmap/casmap/mapping"
)

// Repository exposes typed persistence operations for one object type.
type Repository[T mapping.Object] struct {
	client *casmap.Client
}

// NewRepository binds a repository to the client. The object type must
// already be registered with the client.
func NewRepository[T mapping.Object](client *casmap.Client) (*Repository[T], error) {
	var zero T
	if _, err := client.Table(zero); err != nil {
		return nil, err
	}
	return &Repository[T]{client: client}, nil
}

// Save inserts the object, overwriting any row with the same primary key.
func (r *Repository[T]) Save(ctx context.Context, e T) error {
	return r.client.Create(ctx, e)
}

// SaveIfNotExists inserts the object only when no row with its primary
// key exists; cqlerr.ErrAlreadyExists reports a conflict.
func (r *Repository[T]) SaveIfNotExists(ctx context.Context, e T) error {
	return r.client.CreateIfNotExists(ctx, e)
}

// FindByKey populates the object from the row matching its primary
// key; cqlerr.ErrNotFound reports an absent row.
func (r *Repository[T]) FindByKey(ctx context.Context, e T) error {
	return r.client.Get(ctx, e)
}

// FindAllByPartition fetches every row in the object's partition. The
// object must carry values for all partition key columns.
func (r *Repository[T]) FindAllByPartition(ctx context.Context, e T) ([]T, error) {
	objects, err := r.client.GetAll(ctx, e)
	if err != nil {
		return nil, err
	}
	results := make([]T, 0, len(objects))
	for _, o := range objects {
		results = append(results, o.(T))
	}
	return results, nil
}

// DeleteByKey removes the row matching the object's primary key.
func (r *Repository[T]) DeleteByKey(ctx context.Context, e T) error {
	return r.client.Delete(ctx, e)
}

// Exists reports whether a row with the object's primary key exists.
func (r *Repository[T]) Exists(ctx context.Context, e T) (bool, error) {
	table, err := r.client.Table(e)
	if err != nil {
		return false, err
	}
	keyCols := table.KeyColumnNames()
	err = r.client.Get(ctx, e, keyCols[:1]...)
	if errors.Is(err, cqlerr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Stream delivers the object's partition row by row on a channel.
func (r *Repository[T]) Stream(ctx context.Context, e T) (<-chan T, <-chan error, error) {
	stream, err := r.client.Stream(ctx, e)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan T)
	go func() {
		defer close(out)
		for o := range stream.Objects() {
			select {
			case out <- o.(T):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, stream.Err(), nil
}
