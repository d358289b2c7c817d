package events

import "rewardmint/core/types"

// Event represents a structured state change emitted by the contract.
type Event interface {
	EventType() string
}

// Renderer is implemented by events that can render themselves into the
// attribute form consumed by off-chain indexers.
type Renderer interface {
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
