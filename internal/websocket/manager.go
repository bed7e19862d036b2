package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager implements the WebSocketManager interface
type Manager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan ChangeEvent
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	done       chan struct{}
}

// NewManager creates a new WebSocket manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ChangeEvent, 1000), // Buffer for bursts of store mutations
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// In production, implement proper origin checking
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
	}
}

// Start begins the WebSocket manager's main loop
func (m *Manager) Start() error {
	go m.run()
	log.Println("WebSocket manager started")
	return nil
}

// Stop gracefully shuts down the WebSocket manager
func (m *Manager) Stop() error {
	close(m.done)

	// Close all client connections
	m.mutex.Lock()
	for _, client := range m.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	m.mutex.Unlock()

	log.Println("WebSocket manager stopped")
	return nil
}

// run is the main event loop for the WebSocket manager
func (m *Manager) run() {
	ticker := time.NewTicker(30 * time.Second) // Health check interval
	defer ticker.Stop()

	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			m.mutex.Unlock()
			log.Printf("Client %s registered", client.ID)
			go m.handleClient(client)

		case client := <-m.unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client.ID]; ok {
				delete(m.clients, client.ID)
				close(client.Send)
				if client.Conn != nil {
					client.Conn.Close()
				}
			}
			m.mutex.Unlock()
			log.Printf("Client %s unregistered", client.ID)

		case event := <-m.broadcast:
			m.broadcastToClients(event)

		case <-ticker.C:
			m.healthCheck()

		case <-m.done:
			return
		}
	}
}

// RegisterClient registers a new WebSocket client
func (m *Manager) RegisterClient(clientID string, conn *websocket.Conn, filters SubscriptionFilters) error {
	client := &Client{
		ID:       clientID,
		Conn:     conn,
		Filters:  filters,
		Send:     make(chan ChangeEvent, 256),
		LastPing: time.Now(),
		IsActive: true,
	}

	m.register <- client
	return nil
}

// UnregisterClient removes a WebSocket client and releases its channel.
func (m *Manager) UnregisterClient(clientID string) error {
	m.mutex.RLock()
	client, exists := m.clients[clientID]
	m.mutex.RUnlock()

	if exists {
		m.unregister <- client
	}
	return nil
}

// BroadcastChange sends a single change event to relevant clients
func (m *Manager) BroadcastChange(event ChangeEvent) error {
	select {
	case m.broadcast <- event:
		return nil
	default:
		return fmt.Errorf("broadcast channel full, dropping %s event for %s", event.Collection, event.DocumentID)
	}
}

// BroadcastBatch sends multiple change events, highest priority first
func (m *Manager) BroadcastBatch(events []ChangeEvent) error {
	priorityOrder := map[string]int{
		PriorityCritical: 0,
		PriorityHigh:     1,
		PriorityMedium:   2,
		PriorityLow:      3,
	}

	// Process critical and high priority events first
	for _, event := range events {
		if priorityOrder[event.Priority] <= 1 {
			select {
			case m.broadcast <- event:
			default:
				log.Printf("Dropping high priority event for %s/%s due to full channel", event.Collection, event.DocumentID)
			}
		}
	}

	for _, event := range events {
		if priorityOrder[event.Priority] > 1 {
			select {
			case m.broadcast <- event:
			default:
				log.Printf("Dropping event for %s/%s due to full channel", event.Collection, event.DocumentID)
			}
		}
	}

	return nil
}

// GetConnectedClients returns the number of connected clients
func (m *Manager) GetConnectedClients() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// GetClientStats returns detailed client statistics
func (m *Manager) GetClientStats() ClientStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := ClientStats{
		TotalClients: len(m.clients),
	}

	for _, client := range m.clients {
		if client.IsActive {
			stats.ActiveClients++
		} else {
			stats.InactiveClients++
		}
	}

	return stats
}

// GetUpgrader returns the WebSocket upgrader for external use
func (m *Manager) GetUpgrader() *websocket.Upgrader {
	return &m.upgrader
}

// broadcastToClients sends an event to all clients whose filters match
func (m *Manager) broadcastToClients(event ChangeEvent) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, client := range m.clients {
		if m.shouldSendToClient(client, event) {
			select {
			case client.Send <- event:
			default:
				// Client's send channel is full, mark as inactive
				client.IsActive = false
				log.Printf("Client %s send channel full, marking as inactive", client.ID)
			}
		}
	}
}

// shouldSendToClient applies the event's participant targeting, then the
// client's company scope and collection list. Targeted events go only to
// the named users; company scope is mandatory for everything else: a
// scoped client never sees another company's events. The collection list
// is an additional narrowing filter.
func (m *Manager) shouldSendToClient(client *Client, event ChangeEvent) bool {
	filters := client.Filters

	if len(event.Participants) > 0 {
		targeted := false
		for _, userID := range event.Participants {
			if userID != "" && userID == filters.UserID {
				targeted = true
				break
			}
		}
		if !targeted {
			return false
		}
	}

	if filters.Company != "" && event.Company != "" && filters.Company != event.Company {
		return false
	}

	if len(filters.Collections) == 0 {
		return true
	}

	for _, collection := range filters.Collections {
		if collection == event.Collection {
			return true
		}
	}

	return false
}

// handleClient manages individual client connections
func (m *Manager) handleClient(client *Client) {
	defer func() {
		m.unregister <- client
	}()

	// Set up ping/pong handlers for connection health
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.LastPing = time.Now()
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Start goroutine to handle outgoing messages
	go m.writeMessages(client)

	// Handle incoming messages (mainly pings and filter updates)
	for {
		var message map[string]interface{}
		err := client.Conn.ReadJSON(&message)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for client %s: %v", client.ID, err)
			}
			break
		}

		// Handle collection-filter updates; the company scope and user
		// identity from the token are not client-updatable.
		if msgType, ok := message["type"].(string); ok && msgType == "update_filters" {
			if filtersData, ok := message["filters"]; ok {
				filtersJSON, _ := json.Marshal(filtersData)
				var newFilters SubscriptionFilters
				if err := json.Unmarshal(filtersJSON, &newFilters); err == nil {
					newFilters.Company = client.Filters.Company
					newFilters.UserID = client.Filters.UserID
					client.Filters = newFilters
					log.Printf("Updated filters for client %s", client.ID)
				}
			}
		}
	}
}

// writeMessages handles outgoing messages to a client
func (m *Manager) writeMessages(client *Client) {
	ticker := time.NewTicker(54 * time.Second) // Send ping every 54 seconds
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(map[string]interface{}{
				"type": MessageTypeChangeEvent,
				"data": event,
			}); err != nil {
				log.Printf("Error writing message to client %s: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Error sending ping to client %s: %v", client.ID, err)
				return
			}
		}
	}
}

// healthCheck monitors client connections and removes inactive ones
func (m *Manager) healthCheck() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	for clientID, client := range m.clients {
		// Remove clients that haven't responded to ping in 90 seconds
		if now.Sub(client.LastPing) > 90*time.Second {
			log.Printf("Client %s timed out, removing", clientID)
			delete(m.clients, clientID)
			close(client.Send)
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
	}
}
