package stream

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// mailbox is a one-slot channel whose pending value is replaced on offer.
type mailbox struct {
	ch chan []byte
}

func newMailbox() mailbox {
	return mailbox{ch: make(chan []byte, 1)}
}

// offer stores v, discarding an unread value. It reports whether a value was
// discarded.
func (m mailbox) offer(v []byte) (replaced bool) {
	for {
		select {
		case m.ch <- v:
			return replaced
		default:
		}
		select {
		case <-m.ch:
			replaced = true
		default:
		}
	}
}

type client struct {
	hub         *Hub
	conn        *websocket.Conn
	remoteAddr  string
	connectedAt time.Time

	frames mailbox
	texts  mailbox

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn) *client {
	return &client{
		hub:         h,
		conn:        conn,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: time.Now(),
		frames:      newMailbox(),
		texts:       newMailbox(),
		done:        make(chan struct{}),
	}
}

// readPump consumes client messages so control frames are processed, and
// returns when the connection fails or the client goes away.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.shutdown(websocket.CloseNormalClosure, "")
	}()

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("viewer read failed",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err))
			}
			return
		}
	}
}

// writePump is the only writer of data frames on the connection.
func (c *client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case frame := <-c.frames.ch:
			if err := c.write(websocket.BinaryMessage, frame); err != nil {
				return
			}
			c.hub.delivered.Add(1)

		case text := <-c.texts.ch:
			if err := c.write(websocket.TextMessage, text); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
	err := c.conn.WriteMessage(messageType, data)
	if err != nil {
		c.hub.logger.Debug("viewer write failed",
			zap.String("remote_addr", c.remoteAddr),
			zap.Error(err))
	}
	return err
}

// shutdown sends a close frame and stops the write pump. The read pump then
// fails on the closed connection and deregisters the client.
func (c *client) shutdown(code int, text string) {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(c.hub.cfg.WriteWait)
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
		close(c.done)
	})
}
