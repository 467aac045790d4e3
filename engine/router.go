package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/graph"
	"github.com/hupe1980/campaignmesh/logging"
)

// DefaultMaxDeliveries bounds the number of deliveries a single run may perform.
const DefaultMaxDeliveries = 100

// Drop reasons reported to CallbackOnDrop.
const (
	DropUnknownRecipient = "unknown_recipient"
	DropNoSuccessor      = "no_successor"
	DropNoGraph          = "no_graph"
)

// Options configures a Router.
type Options struct {
	// Logger receives routing diagnostics. Defaults to NoOp.
	Logger logging.Logger

	// MaxDeliveries limits deliveries between ResetBudget calls. Zero disables the limit.
	MaxDeliveries int

	// Callbacks holds routing lifecycle hooks. Defaults to an empty manager.
	Callbacks *CallbackManager
}

// Router delivers messages between the nodes of a workflow graph. It
// implements core.Dispatcher and is constructed before the agents so it can
// be injected into them; the graph is attached afterwards with SetGraph.
type Router struct {
	mu        sync.RWMutex
	graph     *graph.Graph
	logger    logging.Logger
	limiter   *core.DeliveryLimiter
	callbacks *CallbackManager
}

// NewRouter creates a Router without a graph.
func NewRouter(optFns ...func(o *Options)) *Router {
	opts := Options{
		Logger:        logging.NoOpLogger{},
		MaxDeliveries: DefaultMaxDeliveries,
		Callbacks:     NewCallbackManager(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	return &Router{
		logger:    logging.OrNoOp(opts.Logger),
		limiter:   core.NewDeliveryLimiter(opts.MaxDeliveries),
		callbacks: opts.Callbacks,
	}
}

// SetGraph registers the graph whose nodes the router delivers to.
func (r *Router) SetGraph(g *graph.Graph) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graph = g
}

// Graph returns the registered graph, or nil.
func (r *Router) Graph() *graph.Graph {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.graph
}

// Callbacks exposes the callback manager for registration.
func (r *Router) Callbacks() *CallbackManager { return r.callbacks }

// ResetBudget clears the delivery counter. Controllers call it at the start of every run.
func (r *Router) ResetBudget() { r.limiter.Reset() }

// Deliveries returns the number of deliveries since the last ResetBudget.
func (r *Router) Deliveries() int { return r.limiter.Count() }

// Route delivers msg from sender to recipient. Unknown recipients are logged
// and dropped without error. The recipient core.Broadcast delivers to every
// graph node except sender.
func (r *Router) Route(ctx context.Context, sender, recipient string, msg core.Message) error {
	g := r.Graph()
	if g == nil {
		r.logger.Error("No graph registered, dropping message", "sender", sender, "recipient", recipient, "kind", msg.Kind())
		return r.drop(ctx, sender, recipient, msg, DropNoGraph)
	}

	if recipient == core.Broadcast {
		return r.broadcast(ctx, g, sender, msg)
	}

	target, ok := g.Node(recipient)
	if !ok {
		r.logger.Error("Unknown recipient, dropping message", "sender", sender, "recipient", recipient, "kind", msg.Kind())
		return r.drop(ctx, sender, recipient, msg, DropUnknownRecipient)
	}

	return r.deliver(ctx, target, sender, msg)
}

// Process delivers msg to the first successor of sender in the graph.
func (r *Router) Process(ctx context.Context, sender string, msg core.Message) error {
	g := r.Graph()
	if g == nil {
		r.logger.Error("No graph registered, dropping message", "sender", sender, "kind", msg.Kind())
		return r.drop(ctx, sender, "", msg, DropNoGraph)
	}

	next, ok := g.FirstSuccessor(sender)
	if !ok {
		r.logger.Warn("No successor, dropping message", "sender", sender, "kind", msg.Kind())
		return r.drop(ctx, sender, "", msg, DropNoSuccessor)
	}

	return r.Route(ctx, sender, next, msg)
}

func (r *Router) broadcast(ctx context.Context, g *graph.Graph, sender string, msg core.Message) error {
	for _, a := range g.Agents() {
		if a.Name() == sender {
			continue
		}
		if err := r.deliver(ctx, a, sender, msg); err != nil {
			return err
		}
	}
	return nil
}

// deliveryError marks an error already reported to CallbackOnError, so
// enclosing deliveries of a nested chain pass it on without reporting it again.
type deliveryError struct{ err error }

func (e *deliveryError) Error() string { return e.err.Error() }

func (e *deliveryError) Unwrap() error { return e.err }

func (r *Router) deliver(ctx context.Context, target core.Agent, sender string, msg core.Message) error {
	cbCtx := &CallbackContext{Sender: sender, Recipient: target.Name(), Message: msg}

	if err := ctx.Err(); err != nil {
		return r.fail(ctx, cbCtx, err)
	}

	if err := r.limiter.Increment(); err != nil {
		r.logger.Error("Delivery limit exceeded", "sender", sender, "recipient", target.Name(), "error", err)
		return r.fail(ctx, cbCtx, err)
	}

	if err := r.callbacks.ExecuteCallbacks(ctx, CallbackBeforeDeliver, cbCtx); err != nil {
		return r.fail(ctx, cbCtx, fmt.Errorf("before deliver callback: %w", err))
	}

	logging.LogRoute(r.logger, sender, target.Name(), string(msg.Kind()), true)

	if err := target.ReceiveMessage(ctx, sender, msg); err != nil {
		return r.fail(ctx, cbCtx, err)
	}

	if err := r.callbacks.ExecuteCallbacks(ctx, CallbackAfterDeliver, cbCtx); err != nil {
		return r.fail(ctx, cbCtx, fmt.Errorf("after deliver callback: %w", err))
	}
	return nil
}

// fail reports err to CallbackOnError unless a nested delivery already did.
func (r *Router) fail(ctx context.Context, cbCtx *CallbackContext, err error) error {
	var de *deliveryError
	if errors.As(err, &de) {
		return err
	}
	cbCtx.Err = err
	if cbErr := r.callbacks.ExecuteCallbacks(ctx, CallbackOnError, cbCtx); cbErr != nil {
		r.logger.Warn("Error callback failed", "recipient", cbCtx.Recipient, "error", cbErr)
	}
	return &deliveryError{err: err}
}

// drop reports a message that could not be routed. Drops never fail the
// sender, so OnDrop callback errors are only logged.
func (r *Router) drop(ctx context.Context, sender, recipient string, msg core.Message, reason string) error {
	logging.LogRoute(r.logger, sender, recipient, string(msg.Kind()), false)

	cbCtx := &CallbackContext{Sender: sender, Recipient: recipient, Message: msg, Reason: reason}
	if err := r.callbacks.ExecuteCallbacks(ctx, CallbackOnDrop, cbCtx); err != nil {
		r.logger.Warn("Drop callback failed", "sender", sender, "recipient", recipient, "reason", reason, "error", err)
	}
	return nil
}

var _ core.Dispatcher = (*Router)(nil)
