package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/yegors/appgate/pkg/logger"
)

// Message types for glide path live sessions
const (
	MessageTypeRecompute       = "recompute"        // Client sends parameters, heights and distances
	MessageTypeSelectPoint     = "select_point"     // Client picked a point on the profile
	MessageTypeClearSelection  = "clear_selection"  // Client dropped the picked point
	MessageTypeRecomputeResult = "recompute_result" // Server sends conversions, profile and readout
	MessageTypeReadout         = "readout"          // Server sends the picked point readout
	MessageTypeError           = "error"            // Server reports a rejected request
)

// Message represents a WebSocket message
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// MessageHandler defines the interface for handling incoming WebSocket messages
type MessageHandler interface {
	HandleMessage(client *Client, messageType string, data map[string]any) error
}

// ClientCountObserver is notified whenever the number of connected clients changes
type ClientCountObserver interface {
	SetWebSocketClients(n int)
}

// ClientSession is the presentation state owned by one client: the last
// recompute request and the currently picked point, if any
type ClientSession struct {
	LastRecompute      map[string]any `json:"last_recompute,omitempty"`
	SelectedDistanceKm *float64       `json:"selected_distance_km,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	mu        sync.Mutex
	closed    bool
	closeChan chan struct{}
	session   ClientSession
}

// Server represents a WebSocket server
type Server struct {
	clients        map[*Client]bool
	register       chan *Client
	unregister     chan *Client
	done           chan struct{}
	stopOnce       sync.Once
	upgrader       websocket.Upgrader
	logger         *logger.Logger
	mu             sync.RWMutex
	messageHandler MessageHandler      // Handler for incoming messages
	observer       ClientCountObserver // Optional client count hook
}

// NewServer creates a new WebSocket server
func NewServer(logger *logger.Logger) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		logger: logger.Named("web-socket"),
	}
}

// SetMessageHandler sets the message handler for incoming WebSocket messages
func (s *Server) SetMessageHandler(handler MessageHandler) {
	s.messageHandler = handler
}

// SetClientCountObserver sets the hook notified on client count changes
func (s *Server) SetClientCountObserver(observer ClientCountObserver) {
	s.observer = observer
}

// ClientCount returns the number of registered clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Run starts the WebSocket server and blocks until Stop is called
func (s *Server) Run() {
	s.logger.Info("Starting WebSocket server")

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.notifyCount(clientCount)
			s.logger.Debug("Client registered", logger.Int("client_count", clientCount))

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				// Mark client as closed first to prevent new messages
				client.mu.Lock()
				client.closed = true
				client.mu.Unlock()
				// Then close the channel
				close(client.send)
			}
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.notifyCount(clientCount)
			s.logger.Debug("Client unregistered", logger.Int("client_count", clientCount))

		case <-s.done:
			s.mu.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				client.Close()
			}
			s.mu.Unlock()
			s.notifyCount(0)
			s.logger.Info("WebSocket server stopped")
			return
		}
	}
}

// Stop disconnects every client and ends Run
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

func (s *Server) notifyCount(n int) {
	if s.observer != nil {
		s.observer.SetWebSocketClients(n)
	}
}

// HandleConnection handles a WebSocket connection
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	connLog := s.logger.With(logger.String("remote_addr", r.RemoteAddr))
	connLog.Info("Handling new WebSocket connection request",
		logger.String("user_agent", r.UserAgent()))

	// Upgrade HTTP connection to WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		connLog.Error("Failed to upgrade connection", logger.Error(err))
		return
	}

	// Create client
	client := &Client{
		conn:      conn,
		send:      make(chan *Message, 256),
		server:    s,
		closeChan: make(chan struct{}),
	}

	// Register client
	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.readPump()
	go client.writePump()
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.done:
		}
		c.conn.Close()
	}()

	for {
		// Read message
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			return
		}

		// Parse incoming message
		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			c.server.logger.Warn("Failed to parse WebSocket message", logger.Error(err))
			c.SendMessage(ErrorMessage("", "invalid JSON message"))
			continue
		}

		c.server.logger.Debug("Received WebSocket message",
			logger.String("type", message.Type),
			logger.String("client", c.conn.RemoteAddr().String()))

		// Handle message if handler is set
		if c.server.messageHandler != nil {
			if err := c.server.messageHandler.HandleMessage(c, message.Type, message.Data); err != nil {
				c.server.logger.Debug("Failed to handle WebSocket message",
					logger.Error(err),
					logger.String("type", message.Type))
			}
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Channel closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.server.logger.Error("Failed to marshal message",
					logger.String("message_type", message.Type),
					logger.Error(err))
				// Tell the client instead of dropping the reply
				message = ErrorMessage(message.Type, "failed to encode response")
				if data, err = json.Marshal(message); err != nil {
					continue
				}
			}

			c.server.logger.Debug("Sending message to client",
				logger.String("message_type", message.Type),
				logger.Int("message_length", len(data)))

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.closeChan:
			return
		}
	}
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.closeChan)
	c.conn.Close()
}

// SendMessage sends a message to this specific client
func (c *Client) SendMessage(message *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if client is closed
	if c.closed {
		return false
	}

	// Try to send message with non-blocking select
	select {
	case c.send <- message:
		return true
	default:
		// Channel is full, drop message
		return false
	}
}

// UpdateSession replaces the client's session state
func (c *Client) UpdateSession(session ClientSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

// GetSession returns a copy of the client's session state
func (c *Client) GetSession() ClientSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := ClientSession{}
	if c.session.LastRecompute != nil {
		session.LastRecompute = make(map[string]any, len(c.session.LastRecompute))
		for k, v := range c.session.LastRecompute {
			session.LastRecompute[k] = v
		}
	}
	if c.session.SelectedDistanceKm != nil {
		d := *c.session.SelectedDistanceKm
		session.SelectedDistanceKm = &d
	}
	return session
}

// ErrorMessage builds an error message answering a request of the given type
func ErrorMessage(requestType, reason string) *Message {
	return &Message{
		Type: MessageTypeError,
		Data: map[string]any{
			"request": requestType,
			"error":   reason,
		},
	}
}
