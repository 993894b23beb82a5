package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxFrameSize   = 4096
	sendBufferSize = 64
)

// InboundHandler is called for every data frame a client sends. The frame
// is raw JSON; parsing and authorization happen at the API layer.
type InboundHandler func(c *Client, data []byte)

// Client is one WebSocket connection owned by a user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	rooms  []string

	// Локальный лимитер входящих кадров, отдельно от серверного rate limit.
	limiter   *rate.Limiter
	onMessage InboundHandler
	onClose   func()
	logger    *zerolog.Logger
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, onMessage InboundHandler, logger *zerolog.Logger) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		userID:    userID,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 5),
		onMessage: onMessage,
		logger:    logger,
	}
}

// UserID returns the authenticated owner of the connection.
func (c *Client) UserID() int64 { return c.userID }

// OnClose sets a hook that runs once when the read pump exits.
func (c *Client) OnClose(fn func()) { c.onClose = fn }

// Start launches the read and write pumps. It returns immediately; the
// pumps run until the connection drops or the hub evicts the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Int64("user_id", c.userID).Msg("websocket read failed")
			}
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		if c.onMessage != nil {
			c.onMessage(c, data)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Deliver queues a pre-marshalled frame for the client, bypassing rooms.
func (c *Client) Deliver(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}
