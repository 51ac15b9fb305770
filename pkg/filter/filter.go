// Package filter holds the active filter terms of a view and turns them
// into queries.
package filter

import (
	"fmt"
	"slices"

	"github.com/cicdguard/backend/pkg/cypher"
)

// Category is a filter family. Each family maps to a label prefix in the
// data store, e.g. Jenkins_Job.
type Category string

const (
	Jenkins Category = "jenkins"
	Action  Category = "action"
	Github  Category = "github"
	JFrog   Category = "jfrog"
)

// Categories lists every family in the order chips and queries use.
var Categories = []Category{Jenkins, Action, Github, JFrog}

var labelPrefixes = map[Category]string{
	Jenkins: "Jenkins",
	Action:  "Action",
	Github:  "Github",
	JFrog:   "JFrog",
}

// ParseCategory validates a category name.
func ParseCategory(name string) (Category, error) {
	c := Category(name)
	if _, ok := labelPrefixes[c]; !ok {
		return "", fmt.Errorf("unknown filter category %q", name)
	}
	return c, nil
}

// Label returns the data store label a term selects, e.g. Jenkins_Node.
func (c Category) Label(term string) string {
	return labelPrefixes[c] + "_" + term
}

// Term is one active filter chip.
type Term struct {
	Category     Category `json:"category"`
	Value        string   `json:"value"`
	DisplayLabel string   `json:"displayLabel"`
}

// NewTerm builds a term whose display label is its value.
func NewTerm(c Category, value string) Term {
	return Term{Category: c, Value: value, DisplayLabel: value}
}

// State is the ordered set of active terms per category. It is a value:
// With and Without return a new State and leave the receiver untouched.
type State struct {
	terms map[Category][]Term
}

// Terms returns the active terms of one category in insertion order.
func (s State) Terms(c Category) []Term {
	return slices.Clone(s.terms[c])
}

// All returns every active term, grouped by category in Categories order.
func (s State) All() []Term {
	var out []Term
	for _, c := range Categories {
		out = append(out, s.terms[c]...)
	}
	return out
}

// Len returns the number of active terms.
func (s State) Len() int {
	n := 0
	for _, terms := range s.terms {
		n += len(terms)
	}
	return n
}

// Has reports whether the (category, value) pair is active.
func (s State) Has(c Category, value string) bool {
	return s.index(c, value) >= 0
}

func (s State) index(c Category, value string) int {
	return slices.IndexFunc(s.terms[c], func(t Term) bool { return t.Value == value })
}

func (s State) clone() State {
	next := State{terms: make(map[Category][]Term, len(s.terms))}
	for c, terms := range s.terms {
		next.terms[c] = slices.Clone(terms)
	}
	return next
}

// With appends t unless the same (category, value) pair is already active.
// The boolean reports whether the state changed.
func (s State) With(t Term) (State, bool) {
	if s.Has(t.Category, t.Value) {
		return s, false
	}
	next := s.clone()
	next.terms[t.Category] = append(next.terms[t.Category], t)
	return next, true
}

// Without removes the (category, value) pair. The boolean reports whether
// the state changed.
func (s State) Without(c Category, value string) (State, bool) {
	i := s.index(c, value)
	if i < 0 {
		return s, false
	}
	next := s.clone()
	next.terms[c] = slices.Delete(next.terms[c], i, i+1)
	if len(next.terms[c]) == 0 {
		delete(next.terms, c)
	}
	return next, true
}

func termQuery(t Term) *cypher.Query {
	return cypher.Match(cypher.Node{Var: "n", Label: t.Category.Label(t.Value)}).
		OptionalMatch(cypher.Path{From: cypher.Node{Var: "n"}, Rel: "r", To: cypher.Node{Var: "m"}}).
		Return("n", "r")
}

func union(terms []Term, fallback cypher.Statement) cypher.Statement {
	if len(terms) == 0 {
		return fallback
	}
	parts := make([]*cypher.Query, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, termQuery(t))
	}
	return cypher.Union(parts...)
}

// SynthesizeQuery builds the union of one sub-query per active term of the
// category. With no active terms it returns fallback, exactly as if the
// category had never been filtered.
func (s State) SynthesizeQuery(c Category, fallback cypher.Statement) cypher.Statement {
	return union(s.terms[c], fallback)
}

// SynthesizeAll builds the union over the active terms of every category.
func (s State) SynthesizeAll(fallback cypher.Statement) cypher.Statement {
	return union(s.All(), fallback)
}
