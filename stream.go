package casmap

import (
	"context"

	"github.com/casmap/casmap/mapping"
)

// Stream is the streaming counterpart of GetAll: objects arrive on a
// channel as rows are fetched instead of being collected up front.
type Stream struct {
	objects <-chan mapping.Object
	errs    <-chan error
}

// Objects returns the result channel. It closes when the partition is
// exhausted, the context is cancelled, or an error occurs.
func (s *Stream) Objects() <-chan mapping.Object { return s.objects }

// Err returns the error channel. At most one error is sent, after
// which the object channel closes.
func (s *Stream) Err() <-chan error { return s.errs }

// Stream iterates the object's partition in a background goroutine and
// delivers each row as a freshly populated object. Cancel the context
// to stop early.
func (c *Client) Stream(ctx context.Context, e mapping.Object) (*Stream, error) {
	table, err := c.Table(e)
	if err != nil {
		return nil, err
	}
	keyRow, err := c.partitionKey(e, table)
	if err != nil {
		return nil, err
	}

	iter, err := c.connector.GetAllIter(ctx, &table.Definition, keyRow)
	if err != nil {
		return nil, err
	}

	objects := make(chan mapping.Object)
	errs := make(chan error, 1)

	go func() {
		defer close(objects)
		defer iter.Close()

		for {
			row, err := iter.Next()
			if err != nil {
				errs <- err
				return
			}
			if row == nil {
				return
			}
			obj := newObject(table)
			if err := c.converter.ReadColumns(row, obj, table); err != nil {
				errs <- err
				return
			}
			select {
			case objects <- obj:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return &Stream{objects: objects, errs: errs}, nil
}
