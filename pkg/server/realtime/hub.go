/* Copyright 2025 LitRift Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/database"
	"github.com/sorrowscry86/Lit-Rift/pkg/server/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 16
)

// ErrHubClosed is returned when serving a connection after Close
var ErrHubClosed = errors.New("realtime hub is closed")

// conn is one websocket connection of an authenticated user
type conn struct {
	hub    *Hub
	ws     *websocket.Conn
	userID int
	send   chan []byte
}

// Hub keeps the set of connections per user and fans out events to the
// connections that joined their user's room
type Hub struct {
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	rooms  map[int]map[*conn]struct{}
	conns  map[*conn]struct{}
	closed bool
}

// NewHub returns an empty hub
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Devices are not browsers and authenticate with a bearer key.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		rooms: map[int]map[*conn]struct{}{},
		conns: map[*conn]struct{}{},
	}
}

func roomName(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

// ServeWS upgrades the request and serves the connection for the user until
// it closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return ErrHubClosed
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}

	c := &conn{
		hub:    h,
		ws:     ws,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	c.readPump()

	return nil
}

func (h *Hub) join(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		return
	}

	room, ok := h.rooms[c.userID]
	if !ok {
		room = map[*conn]struct{}{}
		h.rooms[c.userID] = room
	}
	room[c] = struct{}{}
}

// remove unregisters the connection and closes its send channel. It must
// be called with the lock held.
func (h *Hub) remove(c *conn) {
	if _, ok := h.conns[c]; !ok {
		return
	}

	delete(h.conns, c)
	if room, ok := h.rooms[c.userID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.userID)
		}
	}
	close(c.send)
}

func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.remove(c)
}

// Publish sends the envelope to every joined connection of the user. A
// connection whose buffer is full is dropped.
func (h *Hub) Publish(userID int, env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		log.ErrorWrap(err, "marshalling realtime event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[userID] {
		select {
		case c.send <- b:
		default:
			log.WithFields(log.Fields{
				"user_id": userID,
				"type":    env.Type,
			}).Warn("Dropping slow realtime connection.")
			h.remove(c)
		}
	}
}

// NotifyConflict publishes a sync:conflict event for the conflict
func (h *Hub) NotifyConflict(userID int, c database.Conflict) {
	env, err := NewEnvelope(TypeConflict, NewConflictPayload(c))
	if err != nil {
		log.ErrorWrap(err, "building conflict event")
		return
	}

	h.Publish(userID, env)
}

// RoomSize returns the number of joined connections of the user
func (h *Hub) RoomSize(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[userID])
}

// Close disconnects every connection and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.conns {
		h.remove(c)
	}
}

// enqueue queues a direct reply to the connection. It reports false if the
// connection is gone or its buffer is full.
func (c *conn) enqueue(env Envelope) bool {
	b, err := json.Marshal(env)
	if err != nil {
		log.ErrorWrap(err, "marshalling realtime reply")
		return false
	}

	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()

	if _, ok := c.hub.conns[c]; !ok {
		return false
	}

	select {
	case c.send <- b:
		return true
	default:
		c.hub.remove(c)
		return false
	}
}

func (c *conn) handle(env Envelope) {
	switch env.Type {
	case TypeJoin:
		c.hub.join(c)

		reply, err := NewEnvelope(TypeJoined, JoinedPayload{Room: roomName(c.userID)})
		if err != nil {
			log.ErrorWrap(err, "building joined reply")
			return
		}
		c.enqueue(reply)
	case TypePing:
		c.enqueue(Envelope{Type: TypePong})
	default:
		reply, err := NewEnvelope(TypeError, map[string]string{"message": fmt.Sprintf("unknown message type '%s'", env.Type)})
		if err != nil {
			return
		}
		c.enqueue(reply)
	}
}

func (c *conn) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithFields(log.Fields{
					"user_id": c.userID,
				}).ErrorWrap(err, "reading realtime message")
			}
			return
		}

		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		c.handle(env)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
