package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Node names.
const (
	NodeLoadContext       = "load_context"
	NodeExtractPrinciples = "extract_principles"
	NodeGenerateRoutine   = "generate_routine"
	NodeSaveRoutine       = "save_routine"
	NodeHandleError       = "handle_error"
	NodeLegacyRegister    = "legacy_register"
	NodeLegacyQuery       = "legacy_query"
	End                   = "__end__"
)

const DefaultMaxSteps = 16

// NodeFunc takes the state by value and returns the updated state.
type NodeFunc func(ctx context.Context, st State) State

// Router picks the next node. It only reads the state.
type Router func(st State) string

// Graph is a fixed set of nodes with one router per node.
type Graph struct {
	entry    string
	nodes    map[string]NodeFunc
	routers  map[string]Router
	maxSteps int
	logger   *slog.Logger
	now      func() time.Time
}

// New wires the coaching graph over d.
func New(d Deps) *Graph {
	d = d.withDefaults()
	n := &nodes{d: d}
	return &Graph{
		entry: NodeLoadContext,
		nodes: map[string]NodeFunc{
			NodeLoadContext:       n.loadContext,
			NodeExtractPrinciples: n.extractPrinciples,
			NodeGenerateRoutine:   n.generateRoutine,
			NodeSaveRoutine:       n.saveRoutine,
			NodeHandleError:       n.handleError,
			NodeLegacyRegister:    n.legacyRegister,
			NodeLegacyQuery:       n.legacyQuery,
		},
		routers: map[string]Router{
			NodeLoadContext:       routeAfterLoad,
			NodeExtractPrinciples: onSuccess(NodeGenerateRoutine),
			NodeGenerateRoutine:   onSuccess(NodeSaveRoutine),
			NodeSaveRoutine:       onSuccess(End),
			NodeLegacyRegister:    onSuccess(End),
			NodeLegacyQuery:       onSuccess(End),
			NodeHandleError:       func(State) string { return End },
		},
		maxSteps: DefaultMaxSteps,
		logger:   d.Logger,
		now:      d.Now,
	}
}

func routeAfterLoad(st State) string {
	if st.Failed() {
		return NodeHandleError
	}
	switch st.RequestType {
	case RequestCreateRoutine:
		return NodeExtractPrinciples
	case RequestLogExercise:
		return NodeLegacyRegister
	case RequestQueryHistory:
		return NodeLegacyQuery
	}
	return NodeHandleError
}

func onSuccess(next string) Router {
	return func(st State) string {
		if st.Failed() {
			return NodeHandleError
		}
		return next
	}
}

// Run takes req through the graph and returns the final state. The returned
// state always carries a response.
func (g *Graph) Run(ctx context.Context, req Request) State {
	if req.TurnID == "" {
		req.TurnID = uuid.NewString()
	}
	st := newState(req, g.now())
	log := g.logger.With("turn_id", st.TurnID, "user_id", st.UserID)
	log.Info("turn started", "request_type", st.RequestType)

	current := g.entry
	for steps := 0; current != End; steps++ {
		if steps >= g.maxSteps && current != NodeHandleError {
			st = st.Fail(KindInternal, "graph", fmt.Sprintf("step limit of %d transitions exceeded at %s", g.maxSteps, current))
			current = NodeHandleError
		}
		node, ok := g.nodes[current]
		if !ok {
			st = st.Fail(KindInternal, "graph", fmt.Sprintf("no node named %q", current))
			current = NodeHandleError
			node = g.nodes[current]
		}

		log.Debug("node enter", "node", current, "step", st.Step)
		st = node(ctx, st)
		log.Debug("node exit", "node", current, "step", st.Step)
		if current == NodeHandleError {
			break
		}
		if st.Failed() {
			log.Error("node failed", "node", current, "kind", st.Kind, "err", st.Error)
		}

		route, ok := g.routers[current]
		if !ok {
			st = st.Fail(KindInternal, "graph", fmt.Sprintf("no route out of %q", current))
			current = NodeHandleError
			continue
		}
		current = route(st)
	}

	if st.Response == "" {
		st = st.Fail(KindInternal, "graph", "flow ended without a response")
		st = g.nodes[NodeHandleError](ctx, st)
	}
	if err := st.Validate(); err != nil {
		log.Error("invalid final state", "err", err)
	}
	log.Info("turn finished", "step", st.Step, "kind", st.Kind, "elapsed_ms", g.now().Sub(st.StartedAt).Milliseconds())
	return st
}
