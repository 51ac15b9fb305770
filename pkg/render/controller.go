// Package render owns the live canvas of a view: it reloads the graph from
// a statement, guards against stale responses and reacts to interaction
// events.
package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cicdguard/backend/pkg/common"
	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/graph"
	"github.com/cicdguard/backend/pkg/logger"
	"github.com/cicdguard/backend/pkg/transport"
)

// DefaultStabilizeFor is the wall-clock budget of a stabilization pass.
const DefaultStabilizeFor = 200 * time.Millisecond

// Controller reloads one canvas. Reload may be called concurrently; the
// response of the most recently started request that succeeds is the one
// displayed, older responses arriving later are dropped.
//
// A Controller should be created using NewController.
type Controller struct {
	transport    transport.Transport
	canvas       Canvas
	inspector    Inspector
	observer     Observer
	fallback     cypher.Statement
	stabilizeFor time.Duration

	seq atomic.Uint64

	mu            sync.Mutex
	rendered      uint64
	model         *graph.Model
	nodes         map[string]graph.VisualNode
	layoutTimer   *time.Timer
	layoutRunning bool
}

// NewControllerParams configures a Controller.
//
// Fallback is drawn when Reload receives an empty statement. StabilizeFor
// defaults to DefaultStabilizeFor. Observer may be nil.
type NewControllerParams struct {
	Transport    transport.Transport
	Canvas       Canvas
	Inspector    Inspector
	Observer     Observer
	Fallback     cypher.Statement
	StabilizeFor time.Duration
}

// NewController creates a Controller drawing onto params.Canvas.
func NewController(params NewControllerParams) *Controller {
	observer := params.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	stabilizeFor := params.StabilizeFor
	if stabilizeFor <= 0 {
		stabilizeFor = DefaultStabilizeFor
	}
	return &Controller{
		transport:    params.Transport,
		canvas:       params.Canvas,
		inspector:    params.Inspector,
		observer:     observer,
		fallback:     params.Fallback,
		stabilizeFor: stabilizeFor,
		model:        &graph.Model{Nodes: []graph.VisualNode{}, Edges: []graph.VisualEdge{}},
		nodes:        map[string]graph.VisualNode{},
	}
}

// Reload queries the data store and redraws the canvas. On any error the
// canvas keeps the previous graph and the user is notified; the error is
// returned for the caller to report. With stabilize set, a time-boxed
// layout pass runs after the load.
func (c *Controller) Reload(ctx context.Context, stmt cypher.Statement, stabilize bool) error {
	return c.Begin(stmt)(ctx, stabilize)
}

// Begin numbers a reload of stmt and returns the function that performs
// it. Requests are ordered by the call to Begin, so callers that derive
// stmt from shared state call Begin while still holding the lock that
// guards that state.
func (c *Controller) Begin(stmt cypher.Statement) func(ctx context.Context, stabilize bool) error {
	if stmt.IsZero() {
		stmt = c.fallback
	}
	id := c.seq.Add(1)
	c.observer.ReloadStarted()

	return func(ctx context.Context, stabilize bool) error {
		return c.run(ctx, id, stmt, stabilize)
	}
}

func (c *Controller) run(ctx context.Context, id uint64, stmt cypher.Statement, stabilize bool) error {
	start := time.Now()
	logger.Debug("[Render] Reload started", "request", id, "stabilize", stabilize)

	env, err := c.transport.Execute(ctx, stmt)
	if err != nil {
		return c.fail(id, err)
	}
	model, err := graph.Transform(env)
	if err != nil {
		return c.fail(id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id < c.rendered {
		c.observer.ReloadDiscarded()
		logger.Debug("[Render] Dropped stale response", "request", id, "rendered", c.rendered)
		return nil
	}

	if c.layoutTimer != nil {
		c.layoutTimer.Stop()
		c.layoutTimer = nil
	}
	if c.layoutRunning {
		c.canvas.StopLayout()
		c.layoutRunning = false
	}

	c.canvas.Clear()
	c.canvas.Load(model)
	c.rendered = id
	c.model = model
	c.nodes = make(map[string]graph.VisualNode, len(model.Nodes))
	for _, n := range model.Nodes {
		c.nodes[n.ID] = n
	}

	if stabilize {
		c.canvas.StartLayout()
		c.layoutRunning = true
		c.layoutTimer = time.AfterFunc(c.stabilizeFor, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.rendered == id && c.layoutRunning {
				c.canvas.StopLayout()
				c.layoutRunning = false
			}
		})
	}

	c.observer.ReloadRendered(time.Since(start).Seconds(), len(model.Nodes), len(model.Edges))
	logger.Info("[Render] Graph loaded", "request", id, "nodes", len(model.Nodes), "edges", len(model.Edges))

	return nil
}

// fail reports err for request id. A request superseded by a graph that is
// already drawn is dropped like a stale response.
func (c *Controller) fail(id uint64, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id < c.rendered {
		c.observer.ReloadDiscarded()
		logger.Debug("[Render] Dropped stale failure", "request", id, "rendered", c.rendered, "err", err)
		return nil
	}

	kind := ErrorKind(err)
	c.observer.ReloadFailed(kind)
	logger.Error("[Render] Reload failed, keeping previous graph", "request", id, "kind", kind, "err", err)
	c.canvas.Notify("error", err.Error())

	return err
}

// ErrorKind classifies a reload error for logs and metrics.
func ErrorKind(err error) string {
	var transportErr *common.TransportError
	var shapeErr *common.DataShapeError
	var queryErr *common.QueryFailedError
	switch {
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &shapeErr):
		return "data_shape"
	case errors.As(err, &queryErr):
		return "query_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}

// Snapshot returns the displayed model and the id of the request that
// produced it. The model must not be modified.
func (c *Controller) Snapshot() (*graph.Model, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model, c.rendered
}

// WithSnapshot calls fn with the displayed model while holding the
// controller lock, so no canvas update runs until fn returns. fn must not
// call back into the controller.
func (c *Controller) WithSnapshot(fn func(model *graph.Model, rendered uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.model, c.rendered)
}

// HandleEvent reacts to an interaction on the canvas. Only presentation
// state changes; the model is never touched.
func (c *Controller) HandleEvent(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case OverNode, ClickNode:
		node, ok := c.nodes[ev.NodeID]
		if !ok {
			return
		}
		c.canvas.SetNodeAppearance(node.ID, node.MaxSize, node.PrimaryLabel())
		if c.inspector != nil {
			c.inspector.Inspect(node.ID, node.Properties)
		}
		c.canvas.Refresh()
	case OutNode:
		node, ok := c.nodes[ev.NodeID]
		if !ok {
			return
		}
		c.canvas.SetNodeAppearance(node.ID, node.MinSize, "")
		c.canvas.Refresh()
	case OverEdge, OutEdge, ClickEdge, DoubleClickEdge, RightClickEdge:
		logger.Debug("[Render] Edge event", "type", ev.Type, "edge", ev.EdgeID)
	case StartDrag, Drag, Drop, DragEnd:
		logger.Debug("[Render] Drag event", "type", ev.Type, "node", ev.NodeID)
	default:
		logger.Warn("[Render] Unknown event", "type", ev.Type)
	}
}
