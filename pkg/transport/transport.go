// Package transport defines how the viewer talks to a graph data store.
package transport

import (
	"context"

	"github.com/cicdguard/backend/pkg/common"
	"github.com/cicdguard/backend/pkg/cypher"
)

// Transport executes a statement and returns the graph envelope.
//
// Implementations report failures as *common.TransportError when the store
// could not be reached or answered with a non-2xx status, and as
// *common.QueryFailedError when the store rejected the statement.
type Transport interface {
	Execute(ctx context.Context, stmt cypher.Statement) (*common.Envelope, error)
	Close() error
}

// Func adapts a plain function to a Transport.
type Func func(ctx context.Context, stmt cypher.Statement) (*common.Envelope, error)

// Execute calls f(ctx, stmt).
func (f Func) Execute(ctx context.Context, stmt cypher.Statement) (*common.Envelope, error) {
	return f(ctx, stmt)
}

// Close does nothing.
func (f Func) Close() error { return nil }
