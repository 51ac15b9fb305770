// Package cypher builds the small set of read queries the viewer issues.
//
// Queries are assembled from typed clauses instead of string concatenation.
// Labels are always emitted as quoted identifiers and values travel as
// parameters, so user supplied terms cannot change the shape of a query.
package cypher

import (
	"maps"
	"strconv"
	"strings"
)

// UnionToken joins the parts of a union. It is the only separator ever
// placed between two queries.
const UnionToken = " UNION "

// Statement is a rendered query together with its parameters.
type Statement struct {
	Text       string         `json:"statement"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// IsZero reports whether the statement holds no query text.
func (s Statement) IsZero() bool {
	return strings.TrimSpace(s.Text) == ""
}

// Node is a node pattern such as (n) or (n:`Label`).
type Node struct {
	Var   string
	Label string
}

func (n Node) render(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(n.Var)
	if n.Label != "" {
		b.WriteByte(':')
		b.WriteString(QuoteIdentifier(n.Label))
	}
	b.WriteByte(')')
}

// Path is a directed single hop pattern (from)-[rel]->(to).
type Path struct {
	From Node
	Rel  string
	To   Node
}

func (p Path) render(b *strings.Builder) {
	p.From.render(b)
	b.WriteString("-[")
	b.WriteString(p.Rel)
	b.WriteString("]->")
	p.To.render(b)
}

// Pattern is anything that can appear after MATCH.
type Pattern interface {
	render(b *strings.Builder)
}

// Condition is a boolean expression used in a WHERE clause.
type Condition interface {
	render(b *strings.Builder)
}

// PropertyNotEquals renders var.key <> $param.
type PropertyNotEquals struct {
	Var   string
	Key   string
	Param string
}

func (c PropertyNotEquals) render(b *strings.Builder) {
	b.WriteString(c.Var)
	b.WriteByte('.')
	b.WriteString(QuoteIdentifier(c.Key))
	b.WriteString(" <> $")
	b.WriteString(c.Param)
}

type clause struct {
	keyword string
	pattern Pattern
	cond    Condition
	items   []string
	param   string
}

// Query is a single read query. The zero value is not useful; start with
// Match.
type Query struct {
	clauses []clause
	params  map[string]any
}

// Match starts a query with a MATCH clause.
func Match(p Pattern) *Query {
	return &Query{
		clauses: []clause{{keyword: "MATCH", pattern: p}},
		params:  map[string]any{},
	}
}

// OptionalMatch appends an OPTIONAL MATCH clause.
func (q *Query) OptionalMatch(p Pattern) *Query {
	q.clauses = append(q.clauses, clause{keyword: "OPTIONAL MATCH", pattern: p})
	return q
}

// Where appends a WHERE clause.
func (q *Query) Where(c Condition) *Query {
	q.clauses = append(q.clauses, clause{keyword: "WHERE", cond: c})
	return q
}

// Return appends a RETURN clause listing the given variables.
func (q *Query) Return(vars ...string) *Query {
	q.clauses = append(q.clauses, clause{keyword: "RETURN", items: vars})
	return q
}

// Limit appends LIMIT $name and binds the value.
func (q *Query) Limit(name string, value int) *Query {
	q.clauses = append(q.clauses, clause{keyword: "LIMIT", param: name})
	q.params[name] = value
	return q
}

// Param binds a parameter referenced by a condition.
func (q *Query) Param(name string, value any) *Query {
	q.params[name] = value
	return q
}

// String renders the query text.
func (q *Query) String() string {
	var b strings.Builder
	for i, c := range q.clauses {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.keyword)
		b.WriteByte(' ')
		switch {
		case c.pattern != nil:
			c.pattern.render(&b)
		case c.cond != nil:
			c.cond.render(&b)
		case c.param != "":
			b.WriteByte('$')
			b.WriteString(c.param)
		default:
			b.WriteString(strings.Join(c.items, ","))
		}
	}
	return b.String()
}

// Build renders the query as a statement.
func (q *Query) Build() Statement {
	return Union(q)
}

// Union joins queries with UnionToken. Parameters of all parts are merged;
// parts sharing a parameter name must bind the same value. A union of zero
// queries is the zero Statement.
func Union(parts ...*Query) Statement {
	if len(parts) == 0 {
		return Statement{}
	}
	texts := make([]string, 0, len(parts))
	params := map[string]any{}
	for _, p := range parts {
		texts = append(texts, p.String())
		maps.Copy(params, p.params)
	}
	if len(params) == 0 {
		params = nil
	}
	return Statement{
		Text:       strings.Join(texts, UnionToken),
		Parameters: params,
	}
}

// QuoteIdentifier quotes a label, relationship type or property key.
// Embedded backticks are doubled.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Inline renders the statement with its parameters substituted as
// literals. It exists for backends that cannot bind parameters inside a
// query body. Parameter references inside quoted identifiers are left
// alone; unknown parameters are kept verbatim.
func Inline(s Statement) string {
	if len(s.Parameters) == 0 {
		return s.Text
	}
	var b strings.Builder
	b.Grow(len(s.Text))
	quoted := false
	for i := 0; i < len(s.Text); i++ {
		c := s.Text[i]
		if c == '`' {
			quoted = !quoted
			b.WriteByte(c)
			continue
		}
		if quoted || c != '$' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(s.Text) && isParamByte(s.Text[j]) {
			j++
		}
		v, ok := s.Parameters[s.Text[i+1:j]]
		if !ok || j == i+1 {
			b.WriteByte(c)
			continue
		}
		b.WriteString(literal(v))
		i = j - 1
	}
	return b.String()
}

func isParamByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func literal(v any) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case string:
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(val) + "'"
	case bool:
		return strconv.FormatBool(val)
	default:
		return "null"
	}
}

// WholeGraph is the bounded "everything" query: every node with its
// outgoing relationships, capped at limit rows.
func WholeGraph(limit int) Statement {
	return Match(Node{Var: "n"}).
		OptionalMatch(Path{From: Node{Var: "n"}, Rel: "r", To: Node{Var: "m"}}).
		Return("n", "r").
		Limit("limit", limit).
		Build()
}
