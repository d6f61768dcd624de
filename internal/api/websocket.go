package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-controls/internal/controls"
	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// Frame types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"
)

// ChannelButtonInvalidated carries the location of a button whose rendering
// is stale.
const ChannelButtonInvalidated = "button.invalidated"

const (
	wsSendBufferSize = 256
	maxSubscriptions = 128
)

var (
	errChannelUnknown   = errors.New("unknown channel")
	errChannelForbidden = errors.New("channel requires the editor role")
	errTooManyChannels  = errors.New("subscription limit reached")
)

// WSMessage is the envelope of every frame in both directions. Events name
// the channel they were broadcast on.
type WSMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Channel string `json:"channel,omitempty"`
	Time    string `json:"time,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload of subscribe and unsubscribe frames.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// channelAccess checks that channel exists and role may read it. Surfaces
// see grid, page and per-control traffic; learn and trigger list updates
// are for editors.
func channelAccess(channel string, role Role) error {
	switch channel {
	case controls.ChannelLocation, controls.ChannelPage, ChannelButtonInvalidated:
		return nil
	case controls.ChannelLearn, controls.ChannelTriggers:
		if role != RoleEditor {
			return errChannelForbidden
		}
		return nil
	}
	prefix := controls.ControlChannel("")
	if strings.HasPrefix(channel, prefix) && len(channel) > len(prefix) {
		return nil
	}
	return errChannelUnknown
}

// Hub fans controller broadcasts out to connected surfaces and editors.
// It implements controls.Broadcaster.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one connected surface or editor.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// Identity from the bearer token.
	subject string
	role    Role

	mu            sync.RWMutex
	subscriptions map[string]struct{}
	closed        bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// CORS middleware has already vetted the origin.
		return true
	},
}

// NewHub creates a hub with no clients.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "subject", client.subject, "role", client.role, "clients", n)
}

// Unregister removes a client and closes its send channel. Calling it
// twice is safe.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()

	client.close()
	h.logger.Debug("websocket client disconnected", "subject", client.subject, "clients", n)
}

// Broadcast sends payload to every client subscribed to channel. A page
// change addressed to one surface reaches only that surface and editors.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:    WSTypeEvent,
		Channel: channel,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Payload: payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast", "channel", channel, "error", err)
		return
	}

	var surface string
	if pc, ok := payload.(controls.PageChange); ok {
		surface = pc.SurfaceID
	}

	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if !client.isSubscribed(channel) || !client.addressedBy(surface) {
			continue
		}
		if client.trySend(data) {
			sent++
		} else {
			h.logger.Warn("websocket client too slow, event dropped", "subject", client.subject, "channel", channel)
		}
	}
	if sent > 0 {
		h.logger.Debug("broadcast sent", "channel", channel, "recipients", sent)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*WSClient]struct{})
	h.mu.Unlock()

	for client := range clients {
		client.close()
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

// Graphics adapts the hub to the controller's graphics collaborator:
// invalidated buttons are broadcast for surfaces to redraw.
type Graphics struct {
	hub *Hub
}

// NewGraphics returns a Graphics broadcasting through hub.
func NewGraphics(hub *Hub) *Graphics {
	return &Graphics{hub: hub}
}

// InvalidateButton broadcasts loc on ChannelButtonInvalidated.
func (g *Graphics) InvalidateButton(loc model.Location) {
	g.hub.Broadcast(ChannelButtonInvalidated, loc)
}

// handleWebSocket upgrades an authenticated request. authMiddleware has
// already checked the token, either from the header or the query string.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		writeUnauthorized(w, "missing bearer token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subject:       claims.Subject,
		role:          claims.Role,
		subscriptions: make(map[string]struct{}),
	}
	s.hub.Register(client)

	ping, pongWait := wsTimings(s.wsCfg)
	go client.writePump(ping, pongWait)
	go client.readPump(int64(s.wsCfg.MaxMessageSize), ping+pongWait)
}

func wsTimings(cfg config.WebSocketConfig) (ping, pongWait time.Duration) {
	return time.Duration(cfg.PingInterval) * time.Second, time.Duration(cfg.PongTimeout) * time.Second
}

// readPump reads frames until the connection fails. Any frame, or a pong,
// extends the read deadline by idle.
func (c *WSClient) readPump(limit int64, idle time.Duration) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(limit)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(idle)) }
	//nolint:errcheck // a failed deadline surfaces as a read error
	extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "subject", c.subject, "error", err)
			}
			return
		}
		//nolint:errcheck // a failed deadline surfaces as a read error
		extend()
		c.handleMessage(data)
	}
}

// writePump drains the send channel and pings every ping interval.
func (c *WSClient) writePump(ping, writeWait time.Duration) {
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		//nolint:errcheck // a failed deadline surfaces as a write error
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.conn.WriteMessage(kind, data)
	}
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				//nolint:errcheck // the connection is going away
				write(websocket.CloseMessage, nil)
				return
			}
			if write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ticker.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.handleSubscribe(msg)
	case WSTypeUnsubscribe:
		c.handleUnsubscribe(msg)
	case WSTypePing:
		c.reply(msg.ID, WSTypePong, nil)
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

// channels decodes the channel list of a subscribe or unsubscribe frame.
func channels(msg WSMessage) ([]string, error) {
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, err
	}
	var sub WSSubscribePayload
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, err
	}
	return sub.Channels, nil
}

// handleSubscribe adds every channel the client may read. Refused channels
// are listed with the reason; a frame with nothing accepted is an error.
func (c *WSClient) handleSubscribe(msg WSMessage) {
	requested, err := channels(msg)
	if err != nil {
		c.sendError(msg.ID, "invalid subscribe payload")
		return
	}

	accepted := []string{}
	rejected := map[string]string{}
	c.mu.Lock()
	for _, ch := range requested {
		if err := channelAccess(ch, c.role); err != nil {
			rejected[ch] = err.Error()
			continue
		}
		if _, ok := c.subscriptions[ch]; !ok && len(c.subscriptions) >= maxSubscriptions {
			rejected[ch] = errTooManyChannels.Error()
			continue
		}
		c.subscriptions[ch] = struct{}{}
		accepted = append(accepted, ch)
	}
	c.mu.Unlock()

	payload := map[string]any{"subscribed": accepted}
	if len(rejected) > 0 {
		payload["rejected"] = rejected
	}
	if len(accepted) == 0 && len(rejected) > 0 {
		c.reply(msg.ID, WSTypeError, payload)
		return
	}
	c.hub.logger.Debug("websocket client subscribed", "subject", c.subject, "channels", accepted)
	c.reply(msg.ID, WSTypeResponse, payload)
}

func (c *WSClient) handleUnsubscribe(msg WSMessage) {
	requested, err := channels(msg)
	if err != nil {
		c.sendError(msg.ID, "invalid unsubscribe payload")
		return
	}
	c.mu.Lock()
	for _, ch := range requested {
		delete(c.subscriptions, ch)
	}
	c.mu.Unlock()
	c.reply(msg.ID, WSTypeResponse, map[string]any{"unsubscribed": requested})
}

// addressedBy reports whether an event aimed at surface should reach this
// client. An empty surface addresses everyone.
func (c *WSClient) addressedBy(surface string) bool {
	return surface == "" || c.role == RoleEditor || c.subject == surface
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// trySend queues data without blocking. It reports false when the client
// is closed or its buffer is full.
func (c *WSClient) trySend(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close closes the send channel once.
func (c *WSClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *WSClient) reply(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:    msgType,
		ID:      id,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Payload: payload,
	})
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *WSClient) sendError(id, message string) {
	c.reply(id, WSTypeError, map[string]string{"message": message})
}
