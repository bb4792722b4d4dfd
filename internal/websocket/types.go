package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/dataveil/dataveil/internal/scan"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeDetection represents a sensitive-data detection event
	EventTypeDetection EventType = "detection"
	// EventTypeSystemStatus represents a system status event
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// DetectionEvent is the live-feed projection of an audit event. Matched
// literals are deliberately not included; subscribers see what categories
// fired, not the sensitive values themselves.
type DetectionEvent struct {
	Identity     string   `json:"identity"`
	Action       string   `json:"action"`
	Severity     string   `json:"severity"`
	PatternNames []string `json:"pattern_names"`
	FileNames    string   `json:"file_names,omitempty"`
}

// NewDetectionEvent builds the live-feed event from an audit event
func NewDetectionEvent(event scan.Event) Event {
	return Event{
		Type:      EventTypeDetection,
		Timestamp: event.Timestamp,
		Data: DetectionEvent{
			Identity:     event.Identity,
			Action:       string(event.Action),
			Severity:     string(event.Severity),
			PatternNames: event.Matches.Names(),
			FileNames:    event.FileNames,
		},
	}
}

// SystemStatusEvent represents system status information
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	ActivePatterns   int    `json:"active_patterns"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
	Message  string `json:"message,omitempty"`
}

// ClientMessage represents messages sent from clients to server
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SubscriptionRequest represents a client subscription request
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID           string
	Conn         *websocket.Conn
	Send         chan Event
	Subscription *SubscriptionRequest
	ConnectedAt  time.Time
	LastPing     time.Time
	IP           string
	UserAgent    string
}
