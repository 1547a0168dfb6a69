package websocket

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/hearthworks/hearth-be/models"
)

// Shared channels. Per-user delivery needs no channel name; the hub routes on
// the client's user id.
const (
	ChannelBookings = "bookings"
	ChannelOrders   = "orders"
)

// Envelope is the wire format of every pushed event.
type Envelope struct {
	Channel string      `json:"channel,omitempty"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type outbound struct {
	userID  uint   // >0: deliver to this user's connections only
	channel string // non-empty: deliver to staff/admin subscribers of the channel
	data    []byte
}

// Hub keeps the set of live connections and fans events out to them.
// Delivery is best-effort and at-most-once: a slow client gets dropped, and a
// missed event never affects the underlying records.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	send       chan outbound
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan outbound, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case msg := <-h.send:
			for client := range h.clients {
				if !h.wants(client, msg) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer: drop the connection, not the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

func (h *Hub) wants(client *Client, msg outbound) bool {
	if msg.userID > 0 && client.userID == msg.userID {
		return true
	}
	if msg.channel != "" && (client.role == models.RoleStaff || client.role == models.RoleAdmin) {
		return true
	}
	return false
}

func (h *Hub) enqueue(msg outbound) {
	select {
	case h.send <- msg:
	default:
		zap.L().Warn("websocket hub backlog full, event dropped")
	}
}

// NotifyUser pushes an event to every connection of one user.
func (h *Hub) NotifyUser(userID uint, event string, payload interface{}) {
	data, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		zap.L().Warn("marshal websocket event", zap.Error(err))
		return
	}
	h.enqueue(outbound{userID: userID, data: data})
}

// Broadcast pushes an event to every staff/admin subscriber of a shared
// channel.
func (h *Hub) Broadcast(channel, event string, payload interface{}) {
	data, err := json.Marshal(Envelope{Channel: channel, Event: event, Payload: payload})
	if err != nil {
		zap.L().Warn("marshal websocket event", zap.Error(err))
		return
	}
	h.enqueue(outbound{channel: channel, data: data})
}
