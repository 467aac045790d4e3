// Package agent contains the five campaign agents and the BaseAgent plumbing
// they share.
//
// Every agent is constructed with the core.Dispatcher it sends through, so an
// agent is never observable in a half-wired state. A nil dispatcher is valid:
// sends become no-ops recorded as "no_router" events, which lets an agent be
// exercised standalone in tests.
//
// Reactions are synchronous. ReceiveMessage switches exhaustively over the
// sealed core.Payload union; task bodies are switched the same way inside
// each agent's Act. Expected failures (an unreachable research service, a
// missing profile) are turned into events and sentinel values. Only contract
// violations such as a Task without a body are returned as errors.
//
// Topology:
//
//	planner -> researcher -> strategist -> writer -> feedback -> planner
//
// The planner decomposes a goal into research, strategy and content_creation
// subtasks and dispatches them one at a time; results flow back to it as
// core.TaskResult messages.
package agent
