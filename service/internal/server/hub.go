package server

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cambio/service/internal/game"
	"github.com/sirupsen/logrus"
)

const sendBuffer = 64

// client is one WebSocket connection of a seated player.
type client struct {
	session uuid.UUID
	player  uuid.UUID
	send    chan []byte
}

// Hub fans game events out to the connections of each session. A client
// that cannot keep up loses messages rather than stalling the table; it can
// ask for a fresh sync_state.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{} // session id -> connections
	log     logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*client]struct{}),
		log:     log,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.session]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.session] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.session]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
	}
	if len(set) == 0 {
		delete(h.clients, c.session)
	}
}

// connections returns how many clients a session has.
func (h *Hub) connections(session uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[session])
}

func (h *Hub) encode(ev game.GameEvent) ([]byte, bool) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).WithField("type", ev.Type).Error("encode event")
		return nil, false
	}
	return msg, true
}

// Broadcast sends ev to every connection of the session.
func (h *Hub) Broadcast(session uuid.UUID, ev game.GameEvent) {
	msg, ok := h.encode(ev)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[session] {
		h.deliver(c, msg)
	}
}

// SendTo sends ev to every connection the player has open on the session.
func (h *Hub) SendTo(session, player uuid.UUID, ev game.GameEvent) {
	msg, ok := h.encode(ev)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[session] {
		if c.player == player {
			h.deliver(c, msg)
		}
	}
}

// reply sends ev to a single connection. Assumes the client is registered.
func (h *Hub) reply(c *client, ev game.GameEvent) {
	msg, ok := h.encode(ev)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, live := h.clients[c.session][c]; live {
		h.deliver(c, msg)
	}
}

// deliver never blocks. Assumes h.mu is held.
func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.log.WithFields(logrus.Fields{"game": c.session, "player": c.player}).Warn("send buffer full, dropping event")
	}
}

// attach routes a session's events through the hub.
func (h *Hub) attach(s *game.Session) {
	id := s.ID
	s.SetBroadcast(
		func(ev game.GameEvent) { h.Broadcast(id, ev) },
		func(player uuid.UUID, ev game.GameEvent) { h.SendTo(id, player, ev) },
	)
}
