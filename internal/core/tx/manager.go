// Package tx declares the transaction boundary used by the storage backends.
package tx

import (
	"context"
)

// Manager runs fn in a read-write transaction. The context passed to fn
// carries the transaction. An error returned by fn rolls back; nested calls
// join the transaction already in ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions, used by list queries so that
// COUNT and the page SELECT observe the same snapshot.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
