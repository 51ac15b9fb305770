package render

import "github.com/cicdguard/backend/pkg/graph"

// Canvas is the live visualization instance of a view. Only the Controller
// mutates it.
type Canvas interface {
	// Clear drops the current model.
	Clear()
	// Load draws a new model. Positions are seeded by the canvas.
	Load(model *graph.Model)
	// SetNodeAppearance changes transient presentation state of one node.
	SetNodeAppearance(nodeID string, size int, label string)
	// Refresh redraws.
	Refresh()
	// StartLayout starts the force-directed layout simulation.
	StartLayout()
	// StopLayout stops it.
	StopLayout()
	// Notify shows a non-blocking message to the user.
	Notify(level, message string)
}

// Inspector shows the property bag of a node next to the canvas.
type Inspector interface {
	Inspect(nodeID string, properties map[string]any)
}

// EventType names an interaction reported by the canvas.
type EventType string

const (
	OverNode        EventType = "overNode"
	ClickNode       EventType = "clickNode"
	OutNode         EventType = "outNode"
	OverEdge        EventType = "overEdge"
	OutEdge         EventType = "outEdge"
	ClickEdge       EventType = "clickEdge"
	DoubleClickEdge EventType = "doubleClickEdge"
	RightClickEdge  EventType = "rightClickEdge"
	StartDrag       EventType = "startdrag"
	Drag            EventType = "drag"
	Drop            EventType = "drop"
	DragEnd         EventType = "dragend"
)

// Event is one interaction on the canvas.
type Event struct {
	Type   EventType `json:"type"`
	NodeID string    `json:"node,omitempty"`
	EdgeID string    `json:"edge,omitempty"`
}

// Observer receives reload outcomes. Metrics collectors implement it.
type Observer interface {
	ReloadStarted()
	ReloadRendered(seconds float64, nodes, edges int)
	ReloadDiscarded()
	ReloadFailed(kind string)
}

type nopObserver struct{}

func (nopObserver) ReloadStarted()                   {}
func (nopObserver) ReloadRendered(float64, int, int) {}
func (nopObserver) ReloadDiscarded()                 {}
func (nopObserver) ReloadFailed(string)              {}
