// Package model defines the provider-agnostic abstraction for text generation
// used by campaignmesh agents and analysis helpers.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement Model in sub-packages so higher
// layers remain decoupled from vendor SDKs. Complete drains a generation into
// a single string for prompt-in, text-out call sites.
package model
