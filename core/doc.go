// Package core provides the foundational domain types and interfaces used by
// campaignmesh. It defines the core abstractions for:
//
//   - Agents (named units that react to messages and forward results)
//   - Dispatchers (the routing capability injected into every agent)
//   - Messages (an immutable envelope around a sealed Payload union)
//   - Events (append-only diagnostic records kept per agent)
//   - Campaign records exchanged between agents (findings, strategies, drafts)
//   - Onboarding profiles and the ProfileStore persistence contract
//
// Implementation concerns (routing, concrete agents, persistence backends)
// live in sibling packages. core only depends on the standard library and uuid.
package core
