package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// SubscriptionFilters defines what slice of the change stream a client
// receives. An empty Company means unscoped (bootstrap-admin clients); an
// empty collection list means every collection. UserID identifies the
// subscriber for events targeted at specific participants; both UserID and
// Company come from the token, never from the client.
type SubscriptionFilters struct {
	Collections []string `json:"collections,omitempty"`
	Company     string   `json:"company,omitempty"`
	UserID      string   `json:"-"`
}

// ChangeEvent is one store mutation fanned out to live subscribers. Views
// re-fetch and re-render on receipt; the event itself carries the changed
// document for cheap incremental updates. A non-empty Participants list
// restricts delivery to those user IDs regardless of any other filter;
// chat messages and notifications are published this way.
type ChangeEvent struct {
	Collection   string                 `json:"collection"` // "trips", "cars", "users", "companies", "notifications"
	Action       string                 `json:"action"`     // "create", "update", "delete"
	DocumentID   string                 `json:"documentId"`
	Company      string                 `json:"company,omitempty"`
	Participants []string               `json:"-"`
	Data         map[string]interface{} `json:"data,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
	Priority     string                 `json:"priority"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Filters  SubscriptionFilters
	Send     chan ChangeEvent
	LastPing time.Time
	IsActive bool
}

// WebSocketManager interface defines the contract for WebSocket management
type WebSocketManager interface {
	RegisterClient(clientID string, conn *websocket.Conn, filters SubscriptionFilters) error
	UnregisterClient(clientID string) error
	BroadcastChange(event ChangeEvent) error
	BroadcastBatch(events []ChangeEvent) error
	GetConnectedClients() int
	Start() error
	Stop() error
	GetClientStats() ClientStats
}

// ClientStats provides statistics about connected clients
type ClientStats struct {
	TotalClients    int `json:"totalClients"`
	ActiveClients   int `json:"activeClients"`
	InactiveClients int `json:"inactiveClients"`
}

// Watched collections
const (
	CollectionUsers         = "users"
	CollectionCompanies     = "companies"
	CollectionCars          = "cars"
	CollectionTrips         = "trips"
	CollectionNotifications = "notifications"
	CollectionChat          = "chat"
)

// Change actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Message types for WebSocket communication
const (
	MessageTypeChangeEvent = "change_event"
	MessageTypeBatchUpdate = "batch_update"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeError       = "error"
)

// Priority levels for message handling
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)
