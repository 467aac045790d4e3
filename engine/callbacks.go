package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/campaignmesh/core"
)

// CallbackType defines the specific routing points where callbacks can be executed.
//
// Callbacks provide a mechanism for hooking into the router without modifying
// its logic. Each type represents a point in the life of a single message:
//   - BeforeDeliver/AfterDeliver: Around a recipient's ReceiveMessage
//   - OnDrop: When a message is discarded (unknown recipient, no successor)
//   - OnError: When a delivery returns an error
//
// Callbacks are executed synchronously and can abort a delivery by returning an error.
type CallbackType string

const (
	// CallbackBeforeDeliver is triggered before a recipient receives a message.
	CallbackBeforeDeliver CallbackType = "before_deliver"

	// CallbackAfterDeliver is triggered after a recipient finished reacting.
	CallbackAfterDeliver CallbackType = "after_deliver"

	// CallbackOnDrop is triggered when a message cannot be delivered.
	CallbackOnDrop CallbackType = "on_drop"

	// CallbackOnError is triggered once per failed chain, for the delivery
	// where the error originated.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext describes the message a callback is executed for.
type CallbackContext struct {
	// Sender is the name of the sending agent (or "user").
	Sender string

	// Recipient is the resolved recipient. For drops it is the requested name.
	Recipient string

	// Message is the envelope being routed.
	Message core.Message

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType

	// Reason explains a drop ("unknown_recipient", "no_successor").
	Reason string

	// Err is set for CallbackOnError.
	Err error

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for routing lifecycle hooks.
//
// Implementations should be fast since callbacks run synchronously on the
// delivery path. Callbacks that return errors terminate the associated delivery.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	// Returning an error will terminate the associated delivery.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	dropCounter := NewFunctionCallback(
//	    CallbackOnDrop,
//	    func(ctx context.Context, callbackCtx *CallbackContext) error {
//	        dropped.Inc()
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager keeps a registry of callbacks per type and executes them in
// registration order. The first callback returning an error stops execution.
//
// Registration and execution are safe for concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback to the manager for its type.
//
// Example:
//
//	manager := NewCallbackManager()
//	manager.RegisterCallback(loggingCallback)
//	manager.RegisterCallback(metricsCallback)
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all registered callbacks for the specified type.
// It returns the first error returned by any callback.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := append([]Callback(nil), cm.callbacks[callbackType]...)
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType
	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return err
		}
	}

	return nil
}

// LoggingCallback forwards routing lifecycle events to a logging function.
//
// Example:
//
//	callback := NewLoggingCallback(CallbackOnDrop, func(m string) { log.Print(m) })
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the routing event. If no logger function is configured the
// callback silently succeeds.
func (c *LoggingCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	if c.logger != nil {
		message := fmt.Sprintf("[%s] %s -> %s (%s)",
			c.callbackType, callbackCtx.Sender, callbackCtx.Recipient, callbackCtx.Message.Kind())
		if callbackCtx.Reason != "" {
			message += " reason=" + callbackCtx.Reason
		}
		c.logger(message)
	}
	return nil
}
