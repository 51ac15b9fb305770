package filter

import (
	"context"
	"sync"

	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/logger"
)

// Reloader redraws a view from a statement. The render controller
// implements it. Begin fixes the order of a request among all others and
// returns the function that runs it.
type Reloader interface {
	Begin(stmt cypher.Statement) func(ctx context.Context, stabilize bool) error
}

// Manager owns the filter state of one view and reloads the view whenever
// the state changes.
type Manager struct {
	mu       sync.Mutex
	state    State
	fallback cypher.Statement
	reloader Reloader
}

// NewManager creates a Manager with no active terms. fallback is the query
// used when nothing is filtered.
func NewManager(reloader Reloader, fallback cypher.Statement) *Manager {
	return &Manager{
		reloader: reloader,
		fallback: fallback,
	}
}

// State returns a snapshot of the active terms.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Query returns the statement the current state resolves to.
func (m *Manager) Query() cypher.Statement {
	return m.State().SynthesizeAll(m.fallback)
}

// Reload redraws the view from the current state. The request is ordered
// against concurrent AddTerm and RemoveTerm calls by the state it reads.
func (m *Manager) Reload(ctx context.Context, stabilize bool) error {
	m.mu.Lock()
	run := m.reloader.Begin(m.state.SynthesizeAll(m.fallback))
	m.mu.Unlock()

	return run(ctx, stabilize)
}

// AddTerm activates a term and reloads the view. Adding an active term is a
// no-op and does not reload. The returned boolean reports whether the term
// was added.
func (m *Manager) AddTerm(ctx context.Context, c Category, value string) (bool, error) {
	return m.mutate(ctx, func(s State) (State, bool) {
		return s.With(NewTerm(c, value))
	}, "add", c, value)
}

// RemoveTerm deactivates a term and reloads the view. Removing an inactive
// term is a no-op.
func (m *Manager) RemoveTerm(ctx context.Context, c Category, value string) (bool, error) {
	return m.mutate(ctx, func(s State) (State, bool) {
		return s.Without(c, value)
	}, "remove", c, value)
}

func (m *Manager) mutate(
	ctx context.Context,
	apply func(State) (State, bool),
	op string,
	c Category,
	value string,
) (bool, error) {
	m.mu.Lock()
	next, changed := apply(m.state)
	if !changed {
		m.mu.Unlock()
		return false, nil
	}
	m.state = next
	// numbered under the lock so reloads start in state order
	run := m.reloader.Begin(next.SynthesizeAll(m.fallback))
	m.mu.Unlock()

	logger.Debug("[Filter] State changed", "op", op, "category", c, "term", value, "active", next.Len())

	return true, run(ctx, true)
}
