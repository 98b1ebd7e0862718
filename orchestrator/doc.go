// Package orchestrator drives the conversational tool-calling loop. It
// implements the stage state machine
//
//	Entry -> Reasoning -> {ToolExecution -> Reasoning}* -> Response
//
// with a mandatory iteration cap, bounded-retry policy with exponential
// backoff for transient provider failures, per-stage timeouts, bounded
// parallel tool execution and non-blocking progress streaming. The
// orchestrator owns no global state: the provider, tool registry, memory
// manager and event sink are injected at construction.
package orchestrator
