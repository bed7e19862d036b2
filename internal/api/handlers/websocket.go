package handlers

import (
	"log"
	"net/http"
	"strings"

	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/websocket"
	"fleet-coordinator/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebSocketHandler handles WebSocket connections for real-time updates
type WebSocketHandler struct {
	manager websocket.WebSocketManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(manager websocket.WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket for the live
// change stream. The subscription is company-scoped from the token; only
// system-wide viewers subscribe unscoped.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		log.Printf("WebSocket connection rejected: no token provided")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication token required"})
		return
	}

	jwtUtil := jwt.NewJWTUtil()
	claims, err := jwtUtil.ValidateToken(token)
	if err != nil {
		log.Printf("WebSocket connection rejected: invalid token - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	clientID := uuid.New().String()

	filters := websocket.SubscriptionFilters{UserID: claims.UserID}
	if collections := c.QueryArray("collections"); len(collections) > 0 {
		filters.Collections = collections
	}

	// The company scope comes from the token, never from the client.
	if claims.Role != models.RoleSuperAdmin && claims.Company != models.SystemCompany {
		filters.Company = claims.Company
	}

	manager := h.manager.(*websocket.Manager)

	conn, err := manager.GetUpgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection to WebSocket: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to upgrade to WebSocket"})
		return
	}

	err = h.manager.RegisterClient(clientID, conn, filters)
	if err != nil {
		log.Printf("Failed to register WebSocket client: %v", err)
		conn.Close()
		return
	}

	log.Printf("WebSocket client %s connected with filters: %+v", clientID, filters)
}

// GetConnectedClients returns the number of connected WebSocket clients
func (h *WebSocketHandler) GetConnectedClients(c *gin.Context) {
	count := h.manager.GetConnectedClients()
	stats := h.manager.GetClientStats()

	c.JSON(http.StatusOK, gin.H{
		"connectedClients": count,
		"stats":            stats,
	})
}

// DisconnectClient allows manual disconnection of a client (for admin purposes)
func (h *WebSocketHandler) DisconnectClient(c *gin.Context) {
	clientID := c.Param("clientId")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Client ID is required"})
		return
	}

	err := h.manager.UnregisterClient(clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect client"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client disconnected successfully"})
}
