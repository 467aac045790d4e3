// Package session keeps workflow runs addressable by id between requests.
//
// Runs live in memory only; in-flight workflow state is not persisted across
// restarts. Add other backends here without changing callers, which only
// need Put, Get and List.
package session
