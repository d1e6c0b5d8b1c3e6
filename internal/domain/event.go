package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies the kind of event being published.
type EventType string

const (
	EventSearchStarted  EventType = "search.started"
	EventQuerySent      EventType = "search.query.sent"
	EventResultsFound   EventType = "search.results.found"
	EventPageProcessed  EventType = "search.page.processed"
	EventSearchComplete EventType = "search.completed"
	EventSearchFailed   EventType = "search.failed"

	EventPageFetchStarted  EventType = "page.fetch.started"
	EventPageFetchComplete EventType = "page.fetch.completed"
	EventPageFetchFailed   EventType = "page.fetch.failed"

	EventCitation EventType = "search.citation"
)

// Progress status values carried in StatusPayload.
const (
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusError      = "error"
)

// Event is the envelope published on the event bus.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// StatusPayload describes request progress for observers. Shapes follow the
// status events of the upstream search tool protocol.
type StatusPayload struct {
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Done        bool     `json:"done"`
	Action      string   `json:"action,omitempty"`
	URLs        []string `json:"urls,omitempty"`
}

// CitationPayload pairs normalized content with its source, emitted once per
// successful result when citations are enabled.
type CitationPayload struct {
	Document []string           `json:"document"`
	Metadata []CitationMetadata `json:"metadata"`
	Source   CitationSource     `json:"source"`
}

// CitationMetadata identifies the origin URL of a cited document.
type CitationMetadata struct {
	Source string `json:"source"`
}

// CitationSource names the cited page.
type CitationSource struct {
	Name string `json:"name"`
}

// EventHandler is a callback invoked when an event is received.
type EventHandler func(ctx context.Context, event Event)

// EventBus provides a publish/subscribe mechanism for progress and citation
// events. It is a best-effort side channel: publishing must never block the
// pipeline and a nil or failing bus must not affect results.
type EventBus interface {
	// Publish sends an event to all matching subscribers.
	Publish(ctx context.Context, event Event)
	// Subscribe registers a handler for a specific event type.
	// Returns an unsubscribe function.
	Subscribe(eventType EventType, handler EventHandler) func()
	// SubscribeAll registers a handler that receives every event.
	// Returns an unsubscribe function.
	SubscribeAll(handler EventHandler) func()
	// Close drains in-flight handlers and prevents new publishes.
	Close()
}
