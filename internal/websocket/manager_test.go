package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	manager := NewManager()

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.clients)
	assert.NotNil(t, manager.register)
	assert.NotNil(t, manager.unregister)
	assert.NotNil(t, manager.broadcast)
}

func TestManagerStartStop(t *testing.T) {
	manager := NewManager()

	err := manager.Start()
	assert.NoError(t, err)

	// Give the manager a moment to start
	time.Sleep(10 * time.Millisecond)

	err = manager.Stop()
	assert.NoError(t, err)
}

func TestRegisterClient(t *testing.T) {
	manager := NewManager()
	err := manager.Start()
	require.NoError(t, err)
	defer manager.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := manager.upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		filters := SubscriptionFilters{
			Collections: []string{CollectionTrips, CollectionCars},
			Company:     "Transports Nord",
		}

		err = manager.RegisterClient("test-client", conn, filters)
		assert.NoError(t, err)

		// Give time for registration
		time.Sleep(50 * time.Millisecond)

		assert.Equal(t, 1, manager.GetConnectedClients())
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait for the handler to complete
	time.Sleep(100 * time.Millisecond)
}

func TestUnregisterClient(t *testing.T) {
	manager := NewManager()
	err := manager.Start()
	require.NoError(t, err)
	defer manager.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := manager.upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		err = manager.RegisterClient("test-client", conn, SubscriptionFilters{})
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 1, manager.GetConnectedClients())

		err = manager.UnregisterClient("test-client")
		assert.NoError(t, err)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 0, manager.GetConnectedClients())
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(150 * time.Millisecond)
}

func TestBroadcastChange(t *testing.T) {
	manager := NewManager()

	event := ChangeEvent{
		Collection: CollectionTrips,
		Action:     ActionUpdate,
		DocumentID: "trip1",
		Company:    "Transports Nord",
		Data: map[string]interface{}{
			"status": "IN_PROGRESS",
		},
		Timestamp: time.Now(),
		Priority:  PriorityMedium,
	}

	err := manager.BroadcastChange(event)
	assert.NoError(t, err)

	select {
	case received := <-manager.broadcast:
		assert.Equal(t, CollectionTrips, received.Collection)
		assert.Equal(t, "trip1", received.DocumentID)
		assert.Equal(t, PriorityMedium, received.Priority)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Did not receive change event in broadcast channel")
	}
}

func TestBroadcastBatch(t *testing.T) {
	manager := NewManager()
	err := manager.Start()
	require.NoError(t, err)
	defer manager.Stop()

	events := []ChangeEvent{
		{
			Collection: CollectionTrips,
			Action:     ActionUpdate,
			DocumentID: "trip1",
			Timestamp:  time.Now(),
			Priority:   PriorityCritical,
		},
		{
			Collection: CollectionCars,
			Action:     ActionUpdate,
			DocumentID: "car1",
			Timestamp:  time.Now(),
			Priority:   PriorityLow,
		},
	}

	err = manager.BroadcastBatch(events)
	assert.NoError(t, err)
}

func TestShouldSendToClient(t *testing.T) {
	manager := NewManager()

	tests := []struct {
		name     string
		filters  SubscriptionFilters
		event    ChangeEvent
		expected bool
	}{
		{
			name:    "no filters - receives everything",
			filters: SubscriptionFilters{},
			event: ChangeEvent{
				Collection: CollectionTrips,
				Company:    "Transports Nord",
			},
			expected: true,
		},
		{
			name: "company scope - matching",
			filters: SubscriptionFilters{
				Company: "Transports Nord",
			},
			event: ChangeEvent{
				Collection: CollectionTrips,
				Company:    "Transports Nord",
			},
			expected: true,
		},
		{
			name: "company scope - other company blocked",
			filters: SubscriptionFilters{
				Company: "Transports Nord",
			},
			event: ChangeEvent{
				Collection: CollectionTrips,
				Company:    "Sud Express",
			},
			expected: false,
		},
		{
			name: "company scope - companyless event passes",
			filters: SubscriptionFilters{
				Company: "Transports Nord",
			},
			event: ChangeEvent{
				Collection: CollectionNotifications,
			},
			expected: true,
		},
		{
			name: "collection filter - matching",
			filters: SubscriptionFilters{
				Collections: []string{CollectionTrips, CollectionCars},
			},
			event: ChangeEvent{
				Collection: CollectionCars,
			},
			expected: true,
		},
		{
			name: "collection filter - not matching",
			filters: SubscriptionFilters{
				Collections: []string{CollectionUsers},
			},
			event: ChangeEvent{
				Collection: CollectionTrips,
			},
			expected: false,
		},
		{
			name: "targeted event - participant receives",
			filters: SubscriptionFilters{
				Company: "Transports Nord",
				UserID:  "alice",
			},
			event: ChangeEvent{
				Collection:   CollectionChat,
				Participants: []string{"alice", "bob"},
			},
			expected: true,
		},
		{
			name: "targeted event - non-participant blocked",
			filters: SubscriptionFilters{
				Company: "Transports Nord",
				UserID:  "mallory",
			},
			event: ChangeEvent{
				Collection:   CollectionChat,
				Participants: []string{"alice", "bob"},
			},
			expected: false,
		},
		{
			name:    "targeted event - unscoped client without matching user blocked",
			filters: SubscriptionFilters{},
			event: ChangeEvent{
				Collection:   CollectionChat,
				Participants: []string{"alice", "bob"},
			},
			expected: false,
		},
		{
			name: "targeted notification - only the owner receives",
			filters: SubscriptionFilters{
				Company: "Sud Express",
				UserID:  "carol",
			},
			event: ChangeEvent{
				Collection:   CollectionNotifications,
				Participants: []string{"carol"},
			},
			expected: true,
		},
		{
			name: "company scope wins over collection match",
			filters: SubscriptionFilters{
				Collections: []string{CollectionTrips},
				Company:     "Transports Nord",
			},
			event: ChangeEvent{
				Collection: CollectionTrips,
				Company:    "Sud Express",
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{
				ID:      "test-client",
				Filters: tt.filters,
			}

			result := manager.shouldSendToClient(client, tt.event)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetClientStats(t *testing.T) {
	manager := NewManager()

	stats := manager.GetClientStats()
	assert.Equal(t, 0, stats.TotalClients)

	manager.clients["active"] = &Client{ID: "active", IsActive: true, Send: make(chan ChangeEvent, 1)}
	manager.clients["stale"] = &Client{ID: "stale", IsActive: false, Send: make(chan ChangeEvent, 1)}

	stats = manager.GetClientStats()
	assert.Equal(t, 2, stats.TotalClients)
	assert.Equal(t, 1, stats.ActiveClients)
	assert.Equal(t, 1, stats.InactiveClients)
}
