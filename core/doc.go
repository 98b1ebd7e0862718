// Package core provides the foundational domain types used by Convoloop. It
// defines the core abstractions for:
//
//   - Messages (immutable conversational records with tool-call payloads)
//   - ConversationState (per-thread append-only history plus run metadata)
//   - StreamEvents (advisory progress notifications with non-blocking sinks)
//   - The error taxonomy shared across the orchestration loop
//
// The package intentionally keeps implementation concerns (persistence,
// providers, orchestration) out of scope, exposing small types so the
// surrounding packages can stay decoupled.
package core
