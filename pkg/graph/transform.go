// Package graph turns query results into the visual graph model drawn by
// the canvas.
package graph

import (
	"fmt"

	"github.com/cicdguard/backend/pkg/common"
)

const (
	edgeCurve = "curve"
	edgeColor = "#3971ac"
	edgeSize  = 15
)

// Model is one renderable graph. Nodes and edges are unique by id.
type Model struct {
	Nodes []VisualNode `json:"nodes"`
	Edges []VisualEdge `json:"edges"`
}

// VisualNode is a node as drawn. It carries the original labels and
// properties for inspection; positions are owned by the canvas.
type VisualNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
	Style
}

// PrimaryLabel returns the label that drives styling and the hover label.
func (n VisualNode) PrimaryLabel() string {
	if len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// VisualEdge is a relationship as drawn.
type VisualEdge struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	CurveType  string         `json:"curveType"`
	Color      string         `json:"color"`
	Size       int            `json:"size"`
}

// Transform converts an envelope into a deduplicated Model. The first
// occurrence of an id wins and later ones are dropped. A malformed envelope
// fails the whole call with a *common.DataShapeError.
func Transform(env *common.Envelope) (*Model, error) {
	if err := validate(env); err != nil {
		return nil, err
	}

	model := &Model{
		Nodes: []VisualNode{},
		Edges: []VisualEdge{},
	}
	nodesSeen := make(map[common.ID]struct{})
	edgesSeen := make(map[common.ID]struct{})

	for _, result := range env.Results {
		for _, fragment := range result.Data {
			for _, node := range fragment.Graph.Nodes {
				if _, ok := nodesSeen[node.ID]; ok {
					continue
				}
				nodesSeen[node.ID] = struct{}{}
				model.Nodes = append(model.Nodes, VisualNode{
					ID:         string(node.ID),
					Labels:     node.Labels,
					Properties: node.Properties,
					Style:      DeriveStyle(node.PrimaryLabel(), node.Properties),
				})
			}
		}
	}

	for _, result := range env.Results {
		for _, fragment := range result.Data {
			for _, edge := range fragment.Graph.Relationships {
				if _, ok := edgesSeen[edge.ID]; ok {
					continue
				}
				edgesSeen[edge.ID] = struct{}{}
				model.Edges = append(model.Edges, VisualEdge{
					ID:         string(edge.ID),
					Source:     string(edge.StartNode),
					Target:     string(edge.EndNode),
					Type:       edge.Type,
					Properties: edge.Properties,
					CurveType:  edgeCurve,
					Color:      edgeColor,
					Size:       edgeSize,
				})
			}
		}
	}

	return model, nil
}

// validate walks the whole envelope before anything is built so a bad
// fragment never yields a partial graph.
func validate(env *common.Envelope) error {
	if env == nil || len(env.Results) == 0 {
		return &common.DataShapeError{Path: "results", Reason: "missing"}
	}
	for i, result := range env.Results {
		if result.Data == nil {
			return &common.DataShapeError{Path: fmt.Sprintf("results[%d].data", i), Reason: "missing"}
		}
		for j, fragment := range result.Data {
			path := fmt.Sprintf("results[%d].data[%d]", i, j)
			if fragment.Graph == nil {
				return &common.DataShapeError{Path: path + ".graph", Reason: "missing"}
			}
			for k, node := range fragment.Graph.Nodes {
				nodePath := fmt.Sprintf("%s.graph.nodes[%d]", path, k)
				if node.ID == "" {
					return &common.DataShapeError{Path: nodePath + ".id", Reason: "missing"}
				}
				if len(node.Labels) == 0 {
					return &common.DataShapeError{Path: nodePath + ".labels", Reason: "missing or empty"}
				}
				if node.Properties == nil {
					return &common.DataShapeError{Path: nodePath + ".properties", Reason: "missing"}
				}
			}
			for k, edge := range fragment.Graph.Relationships {
				edgePath := fmt.Sprintf("%s.graph.relationships[%d]", path, k)
				if edge.ID == "" {
					return &common.DataShapeError{Path: edgePath + ".id", Reason: "missing"}
				}
				if edge.StartNode == "" || edge.EndNode == "" {
					return &common.DataShapeError{Path: edgePath, Reason: "missing endpoint"}
				}
			}
		}
	}
	return nil
}
