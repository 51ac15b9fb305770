// Package view keeps the open graph views. A view is one canvas with its
// own filter state and render controller.
package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cicdguard/backend/internal/canvas"
	"github.com/cicdguard/backend/internal/util"
	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/filter"
	"github.com/cicdguard/backend/pkg/graph"
	"github.com/cicdguard/backend/pkg/logger"
	"github.com/cicdguard/backend/pkg/render"
	"github.com/cicdguard/backend/pkg/transport"

	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned for unknown view ids.
var ErrNotFound = errors.New("view not found")

// View wires a filter manager to a render controller drawing on a hub.
type View struct {
	ID         string
	CreatedAt  time.Time
	Filters    *filter.Manager
	Controller *render.Controller
	Hub        *canvas.Hub
}

// Reload redraws the view from its current filter state.
func (v *View) Reload(ctx context.Context, stabilize bool) error {
	return v.Filters.Reload(ctx, stabilize)
}

// Greet sends what a newly connected browser needs to show the current
// graph. No canvas update can run in between, so a load broadcast after
// the greeting always carries a newer graph.
func (v *View) Greet(send func(canvas.Message)) {
	v.Controller.WithSnapshot(func(model *graph.Model, _ uint64) {
		send(canvas.Message{Type: canvas.MessageClear})
		send(canvas.Message{Type: canvas.MessageLoad, Graph: model})
	})
}

// Gauge tracks the number of open views.
type Gauge interface {
	Set(float64)
}

// RegistryParams configures a Registry. Observer and Gauge may be nil.
type RegistryParams struct {
	Transport    transport.Transport
	Observer     render.Observer
	Gauge        Gauge
	Fallback     cypher.Statement
	StabilizeFor time.Duration
}

// Registry holds the open views by id.
type Registry struct {
	params RegistryParams

	mu    sync.RWMutex
	views map[string]*View
}

// NewRegistry creates an empty registry.
func NewRegistry(params RegistryParams) *Registry {
	return &Registry{
		params: params,
		views:  make(map[string]*View),
	}
}

// Create opens a new view. The view starts empty; callers reload it.
func (r *Registry) Create() (*View, error) {
	id, err := util.NewID()
	if err != nil {
		return nil, err
	}

	hub := canvas.NewHub(id)
	controller := render.NewController(render.NewControllerParams{
		Transport:    r.params.Transport,
		Canvas:       hub,
		Inspector:    hub,
		Observer:     r.params.Observer,
		Fallback:     r.params.Fallback,
		StabilizeFor: r.params.StabilizeFor,
	})
	v := &View{
		ID:         id,
		CreatedAt:  time.Now(),
		Filters:    filter.NewManager(controller, r.params.Fallback),
		Controller: controller,
		Hub:        hub,
	}

	r.mu.Lock()
	r.views[id] = v
	count := len(r.views)
	r.mu.Unlock()

	r.setGauge(count)
	logger.Info("[View] Opened", "view", id)

	return v, nil
}

// Get returns the view with the given id.
func (r *Registry) Get(id string) (*View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// Delete closes a view and disconnects its browsers.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	v, ok := r.views[id]
	if ok {
		delete(r.views, id)
	}
	count := len(r.views)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	v.Hub.Close()
	r.setGauge(count)
	logger.Info("[View] Closed", "view", id)
	return nil
}

// List returns the open views.
func (r *Registry) List() []*View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	return views
}

// ReloadAll reloads every open view concurrently. A failing view does not
// stop the others; the first error is returned.
func (r *Registry) ReloadAll(ctx context.Context, stabilize bool) error {
	var g errgroup.Group
	g.SetLimit(8)
	for _, v := range r.List() {
		g.Go(func() error {
			return v.Reload(ctx, stabilize)
		})
	}
	return g.Wait()
}

// Close closes every view.
func (r *Registry) Close() {
	for _, v := range r.List() {
		_ = r.Delete(v.ID)
	}
}

func (r *Registry) setGauge(count int) {
	if r.params.Gauge != nil {
		r.params.Gauge.Set(float64(count))
	}
}
