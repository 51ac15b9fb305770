package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Envelope is the response of a graph query as returned by the data store.
// It mirrors the transactional result format: one result set per statement,
// each holding a list of graph fragments.
//
// Errors is populated when the data store rejected a statement; a non-empty
// Errors list means the Results must not be trusted.
type Envelope struct {
	Results []Result      `json:"results"`
	Errors  []StatusError `json:"errors,omitempty"`
}

// Result is the outcome of a single statement.
type Result struct {
	Columns []string   `json:"columns,omitempty"`
	Data    []Fragment `json:"data"`
}

// Fragment is one row of a result set in graph representation.
type Fragment struct {
	Graph *FragmentGraph `json:"graph"`
}

// FragmentGraph holds the nodes and relationships that appear in a row.
type FragmentGraph struct {
	Nodes         []RawNode `json:"nodes"`
	Relationships []RawEdge `json:"relationships"`
}

// RawNode is a node exactly as the data store returned it. The first label
// is the primary type of the node.
type RawNode struct {
	ID         ID             `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// PrimaryLabel returns the first label or an empty string.
func (n RawNode) PrimaryLabel() string {
	if len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// RawEdge is a relationship exactly as the data store returned it.
type RawEdge struct {
	ID         ID             `json:"id"`
	Type       string         `json:"type"`
	StartNode  ID             `json:"startNode"`
	EndNode    ID             `json:"endNode"`
	Properties map[string]any `json:"properties"`
}

// StatusError is an error reported by the data store inside a response.
type StatusError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ID is an opaque identifier. Data stores send ids either as strings or as
// integers; both decode into the same textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// PropertyString returns the textual form of a property. Missing keys and
// nil values read as an empty string; numbers and booleans are formatted.
func PropertyString(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
