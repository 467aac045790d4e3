// Package engine implements message routing between the agents of a workflow graph.
//
// The Router is the single Dispatcher shared by every agent of a run. It
// delivers messages synchronously on the caller's stack, so routing a message
// returns only after the recipient, and everything the recipient sent in
// turn, has finished reacting.
//
// # Routing Modes
//
// Explicit routing:
//   - Route(sender, recipient, msg) delivers to the named node
//   - Unknown recipients are logged and dropped; the sender sees no error
//   - The wildcard recipient "all_agents" fans out to every node except the
//     sender, in node insertion order
//
// Implicit routing:
//   - Process(sender, msg) delivers to the first successor of sender only
//   - A sender without successors results in a logged drop
//
// # Error Handling
//
//   - Errors returned by a recipient's ReceiveMessage propagate to the caller
//   - Every delivery is counted against a per-run DeliveryLimiter; exceeding
//     it aborts the chain with core.ErrDeliveryLimitExceeded
//   - Before and after deliver callbacks returning an error abort the chain
//   - A failed chain reports to CallbackOnError once, naming the recipient
//     where the error originated; enclosing deliveries pass the error on
//   - OnDrop callback errors are logged and never reach the sender
//
// # Callbacks
//
// The CallbackManager exposes hooks before and after each delivery, when
// a message is dropped and when a chain fails. The metrics package
// registers its counters here.
//
//	router := engine.NewRouter(func(o *engine.Options) {
//	    o.Logger = logger
//	    o.Callbacks.RegisterCallback(engine.NewLoggingCallback(engine.CallbackOnDrop, log.Println))
//	})
package engine
