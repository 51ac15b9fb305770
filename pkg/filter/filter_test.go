package filter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cicdguard/backend/pkg/cypher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fallback = cypher.WholeGraph(2000)

type reloadCall struct {
	stmt      cypher.Statement
	stabilize bool
}

type recordingReloader struct {
	calls []reloadCall
	err   error
}

func (r *recordingReloader) Begin(stmt cypher.Statement) func(ctx context.Context, stabilize bool) error {
	return func(ctx context.Context, stabilize bool) error {
		r.calls = append(r.calls, reloadCall{stmt: stmt, stabilize: stabilize})
		return r.err
	}
}

// orderedReloader records statements in the order their requests were
// numbered. The run of the first request waits for hold to close.
type orderedReloader struct {
	mu    sync.Mutex
	begun []cypher.Statement
	hold  chan struct{}
}

func (r *orderedReloader) Begin(stmt cypher.Statement) func(ctx context.Context, stabilize bool) error {
	r.mu.Lock()
	r.begun = append(r.begun, stmt)
	n := len(r.begun)
	r.mu.Unlock()

	return func(ctx context.Context, stabilize bool) error {
		if n == 1 {
			<-r.hold
		}
		return nil
	}
}

func (r *orderedReloader) last() cypher.Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.begun[len(r.begun)-1]
}

func (r *orderedReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.begun)
}

func TestSynthesizeQueryExactText(t *testing.T) {
	s := State{}
	s, _ = s.With(NewTerm(Jenkins, "Node"))
	s, _ = s.With(NewTerm(Jenkins, "Job"))

	got := s.SynthesizeQuery(Jenkins, fallback)

	want := "MATCH (n:`Jenkins_Node`) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r" +
		" UNION " +
		"MATCH (n:`Jenkins_Job`) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r"
	assert.Equal(t, want, got.Text)
	assert.Nil(t, got.Parameters)
}

func TestSynthesizeQueryEmptyCategoryFallsBack(t *testing.T) {
	s, _ := State{}.With(NewTerm(Github, "Repository"))

	assert.Equal(t, fallback, s.SynthesizeQuery(Jenkins, fallback))
	assert.Equal(t, fallback, State{}.SynthesizeAll(fallback))
}

func TestAddRemoveRoundTrip(t *testing.T) {
	before := State{}.SynthesizeQuery(Github, fallback)

	s, added := State{}.With(NewTerm(Github, "Repo"))
	require.True(t, added)
	assert.NotEqual(t, before, s.SynthesizeQuery(Github, fallback))

	s, removed := s.Without(Github, "Repo")
	require.True(t, removed)
	assert.Equal(t, before, s.SynthesizeQuery(Github, fallback))
	assert.Equal(t, 0, s.Len())
}

func TestStateIsAValue(t *testing.T) {
	base, _ := State{}.With(NewTerm(Action, "Step"))
	next, _ := base.With(NewTerm(Action, "Runner"))

	assert.Len(t, base.Terms(Action), 1)
	assert.Len(t, next.Terms(Action), 2)

	removed, _ := next.Without(Action, "Step")
	assert.Len(t, next.Terms(Action), 2)
	assert.Equal(t, []Term{NewTerm(Action, "Runner")}, removed.Terms(Action))
}

func TestWithRejectsDuplicates(t *testing.T) {
	s, _ := State{}.With(NewTerm(JFrog, "User"))
	s2, changed := s.With(NewTerm(JFrog, "User"))
	assert.False(t, changed)
	assert.Equal(t, 1, s2.Len())

	// same value in another family is a different chip
	s3, changed := s.With(NewTerm(Jenkins, "User"))
	assert.True(t, changed)
	assert.Equal(t, 2, s3.Len())
}

func TestSynthesizeAllOrdersByCategoryThenInsertion(t *testing.T) {
	s := State{}
	s, _ = s.With(NewTerm(Github, "Repository"))
	s, _ = s.With(NewTerm(Jenkins, "Job"))
	s, _ = s.With(NewTerm(Github, "Organization"))

	got := s.SynthesizeAll(fallback).Text
	want := "MATCH (n:`Jenkins_Job`) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r UNION " +
		"MATCH (n:`Github_Repository`) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r UNION " +
		"MATCH (n:`Github_Organization`) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r"
	assert.Equal(t, want, got)
}

func TestManagerReloadsOnChangeOnly(t *testing.T) {
	r := &recordingReloader{}
	m := NewManager(r, fallback)
	ctx := context.Background()

	added, err := m.AddTerm(ctx, Jenkins, "Node")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = m.AddTerm(ctx, Jenkins, "Node")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := m.RemoveTerm(ctx, Jenkins, "Plugin")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = m.RemoveTerm(ctx, Jenkins, "Node")
	require.NoError(t, err)
	assert.True(t, removed)

	require.Len(t, r.calls, 2)
	assert.Equal(t, "MATCH (n:`Jenkins_Node`) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r", r.calls[0].stmt.Text)
	assert.True(t, r.calls[0].stabilize)
	assert.Equal(t, fallback, r.calls[1].stmt)
	assert.True(t, r.calls[1].stabilize)
	assert.Equal(t, fallback, m.Query())
}

func TestManagerKeepsStateWhenReloadFails(t *testing.T) {
	r := &recordingReloader{err: errors.New("boom")}
	m := NewManager(r, fallback)

	added, err := m.AddTerm(context.Background(), Action, "Workflow")
	assert.True(t, added)
	assert.Error(t, err)
	assert.True(t, m.State().Has(Action, "Workflow"))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("jfrog")
	require.NoError(t, err)
	assert.Equal(t, JFrog, c)

	_, err = ParseCategory("gitlab")
	assert.Error(t, err)
}

func TestMenuFollowsCategoryOrder(t *testing.T) {
	menu := Menu()
	require.Len(t, menu, 4)
	assert.Equal(t, Jenkins, menu[0].Category)
	assert.Equal(t, []string{"Repository", "Organization"}, menu[2].Terms)
}

func TestLatestRequestMatchesStateUnderConcurrentChanges(t *testing.T) {
	r := &orderedReloader{hold: make(chan struct{})}
	m := NewManager(r, fallback)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := m.AddTerm(ctx, Jenkins, "A")
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return r.count() == 1 }, time.Second, time.Millisecond)

	// the first reload is still running while the second change lands
	_, err := m.AddTerm(ctx, Jenkins, "B")
	require.NoError(t, err)
	close(r.hold)
	wg.Wait()

	assert.Equal(t, m.Query(), r.last())
	assert.Contains(t, r.last().Text, "Jenkins_B")
}

func TestManagerReloadUsesCurrentState(t *testing.T) {
	r := &recordingReloader{}
	m := NewManager(r, fallback)
	ctx := context.Background()

	require.NoError(t, m.Reload(ctx, false))
	_, err := m.AddTerm(ctx, Github, "Repository")
	require.NoError(t, err)
	require.NoError(t, m.Reload(ctx, true))

	require.Len(t, r.calls, 3)
	assert.Equal(t, fallback, r.calls[0].stmt)
	assert.False(t, r.calls[0].stabilize)
	assert.Equal(t, m.Query(), r.calls[2].stmt)
	assert.True(t, r.calls[2].stabilize)
}
