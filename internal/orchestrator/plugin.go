// Package orchestrator binds the chat dispatch surface to retrieval, LLM
// generation and feedback capture (spec §4.7), generalizing the teacher's
// chat-pipeline plugin chain (EventManager/Plugin/PluginError) to the
// answer-a-question flow.
package orchestrator

import (
	"context"

	"github.com/beacon-labs/wikimind/internal/types"
)

// Plugin handles one or more pipeline event types.
type Plugin interface {
	OnEvent(ctx context.Context, eventType types.EventType, state *types.AnswerState, next func() *PluginError) *PluginError
	ActivationEvents() []types.EventType
}

// EventManager builds and drives the per-event plugin chains.
type EventManager struct {
	listeners map[types.EventType][]Plugin
	handlers  map[types.EventType]func(context.Context, types.EventType, *types.AnswerState) *PluginError
}

// NewEventManager creates an empty EventManager.
func NewEventManager() *EventManager {
	return &EventManager{
		listeners: make(map[types.EventType][]Plugin),
		handlers:  make(map[types.EventType]func(context.Context, types.EventType, *types.AnswerState) *PluginError),
	}
}

// Register adds a plugin and rebuilds the handler chain for every event type
// it activates.
func (e *EventManager) Register(plugin Plugin) {
	for _, eventType := range plugin.ActivationEvents() {
		e.listeners[eventType] = append(e.listeners[eventType], plugin)
		e.handlers[eventType] = e.buildHandler(e.listeners[eventType])
	}
}

func (e *EventManager) buildHandler(plugins []Plugin) func(context.Context, types.EventType, *types.AnswerState) *PluginError {
	next := func(context.Context, types.EventType, *types.AnswerState) *PluginError { return nil }
	for i := len(plugins) - 1; i >= 0; i-- {
		current := plugins[i]
		prevNext := next
		next = func(ctx context.Context, eventType types.EventType, state *types.AnswerState) *PluginError {
			return current.OnEvent(ctx, eventType, state, func() *PluginError {
				return prevNext(ctx, eventType, state)
			})
		}
	}
	return next
}

// Trigger invokes the handler chain registered for eventType, if any.
func (e *EventManager) Trigger(ctx context.Context, eventType types.EventType, state *types.AnswerState) *PluginError {
	if handler, ok := e.handlers[eventType]; ok {
		return handler(ctx, eventType, state)
	}
	return nil
}

// PluginError carries a machine-readable error type alongside the original error.
type PluginError struct {
	Err         error
	Description string
	ErrorType   string
}

func (p *PluginError) clone() *PluginError {
	return &PluginError{Description: p.Description, ErrorType: p.ErrorType}
}

// WithError attaches err to a copy of p.
func (p *PluginError) WithError(err error) *PluginError {
	pp := p.clone()
	pp.Err = err
	return pp
}

// Predefined plugin errors for the documented failure points (spec §4.7, §9).
var (
	ErrDuplicate = &PluginError{Description: "duplicate inbound event", ErrorType: "duplicate"}
	ErrRetrieve  = &PluginError{Description: "retrieval failed", ErrorType: "retrieve_failed"}
	ErrGenerate  = &PluginError{Description: "LLM generation failed", ErrorType: "generate_failed"}
	ErrEmit      = &PluginError{Description: "failed to post answer", ErrorType: "emit_failed"}
)
