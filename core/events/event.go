// Package events defines the structured state-change notifications the
// staking pool emits for downstream subscribers (RPC websocket feed,
// indexers, the audit trail).
package events

import "gtonstaking/core/types"

// Event represents a structured state change emitted by the pool.
type Event interface {
	EventType() string
	// Event converts the payload into the generic, JSON-friendly shape
	// used by every downstream consumer (websocket feed, audit trail).
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding everything. Useful when a
// component wants to optionally expose events without a nil check at every
// call site.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}
