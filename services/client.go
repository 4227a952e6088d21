package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/royalbingo/bingo-backend/game"
	"github.com/royalbingo/bingo-backend/utils/logger"
)

// Client is one websocket session: anonymous until AUTH, a member of at
// most one room at a time, holding only a reference into the room's
// participant record.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	reg  *game.Registry
	auth *Auth

	send chan []byte
	once sync.Once

	mu       sync.Mutex
	identity *Identity
	room     *game.Room
}

func NewClient(conn *websocket.Conn, hub *Hub, reg *game.Registry, auth *Auth) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		hub:  hub,
		reg:  reg,
		auth: auth,
		send: make(chan []byte, 64),
	}
}

// start registers the client and launches its pumps.
func (c *Client) start() {
	c.hub.register(c)
	go c.writePump()
	go c.readPump()
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

func (c *Client) userID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return 0
	}
	return c.identity.UserID
}

// Send implements game.Sender.
func (c *Client) Send(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("[session %s] marshal event: %v", c.id, err)
		return
	}
	c.enqueue(payload)
}

// enqueue is non-blocking: when the buffer is full the message is
// dropped, never the room's progress.
func (c *Client) enqueue(payload []byte) {
	defer func() {
		if recover() != nil {
			// send channel closed under us; the client is gone
		}
	}()
	select {
	case c.send <- payload:
	default:
		logger.Debugf("[session %s] dropping message, slow consumer", c.id)
	}
}

func (c *Client) sendError(message string) {
	c.Send(game.ErrorEvent{Type: game.EventError, Message: message})
}

// -------------------- pumps --------------------

func (c *Client) readPump() {
	defer c.teardown()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("[session %s] read: %v", c.id, err)
			}
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Debugf("[session %s] write: %v", c.id, err)
			return
		}
	}
}

// teardown removes the session from its room and the hub; the only
// per-connection cancellation signal is the disconnect itself.
func (c *Client) teardown() {
	c.mu.Lock()
	room := c.room
	c.room = nil
	c.mu.Unlock()

	if room != nil {
		room.Leave(c.id)
	}
	c.hub.unregister(c)
	c.close()
}

// -------------------- dispatch --------------------

func (c *Client) dispatch(raw []byte) {
	env, err := decode[envelope](raw)
	if err != nil {
		c.sendError("malformed message")
		return
	}

	switch env.Type {
	case MsgAuth:
		msg, err := decode[authMessage](raw)
		if err != nil {
			c.sendError("malformed message")
			return
		}
		c.handleAuth(msg)
	case MsgJoinRoom:
		msg, err := decode[joinRoomMessage](raw)
		if err != nil {
			c.sendError("malformed message")
			return
		}
		c.handleJoinRoom(msg)
	case MsgBuyCard:
		msg, err := decode[buyCardMessage](raw)
		if err != nil {
			c.sendError("malformed message")
			return
		}
		c.handleBuyCard(msg)
	case MsgBingoClaim:
		msg, err := decode[bingoClaimMessage](raw)
		if err != nil {
			c.sendError("malformed message")
			return
		}
		c.handleBingoClaim(msg)
	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) handleAuth(msg authMessage) {
	identity, err := c.auth.Verify(msg.Token)
	if err != nil {
		c.sendError("authentication failed")
		return
	}

	c.mu.Lock()
	c.identity = &identity
	c.mu.Unlock()
	logger.Infof("[session %s] authenticated as %s", c.id, identity.Username)
}

// handleJoinRoom binds the session to a stake room. A session belongs
// to one room at a time: joining leaves the previous room first.
func (c *Client) handleJoinRoom(msg joinRoomMessage) {
	if msg.Token != "" {
		if identity, err := c.auth.Verify(msg.Token); err == nil {
			c.mu.Lock()
			c.identity = &identity
			c.mu.Unlock()
		}
	}

	c.mu.Lock()
	identity := c.identity
	prev := c.room
	c.mu.Unlock()

	if identity == nil {
		c.sendError("authentication required")
		return
	}

	room, ok := c.reg.Room(msg.Room)
	if !ok {
		c.sendError(game.ErrRoomNotFound.Error())
		return
	}
	if prev == room {
		c.Send(room.Snapshot())
		return
	}
	if prev != nil {
		prev.Leave(c.id)
	}

	c.mu.Lock()
	c.room = room
	c.mu.Unlock()

	room.Join(c.id, identity.UserID, identity.Username, c)
}

func (c *Client) currentRoom(stake int) (*game.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil, errors.New("authentication required")
	}
	if c.room == nil || c.room.Stake != stake {
		return nil, game.ErrNotInRoom
	}
	return c.room, nil
}

func (c *Client) handleBuyCard(msg buyCardMessage) {
	room, err := c.currentRoom(msg.Room)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if err := room.BuyCard(context.Background(), c.id, msg.CardNumber); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleBingoClaim(msg bingoClaimMessage) {
	room, err := c.currentRoom(msg.Room)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if err := room.Claim(context.Background(), c.id); err != nil {
		c.sendError(err.Error())
	}
}
