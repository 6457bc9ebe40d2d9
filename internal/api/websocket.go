package api

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"drivethru/internal/lane"
)

const (
	wsReadLimit  = 64 * 1024
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsWriteWait  = 10 * time.Second
)

// wsConnection is one voice gateway connection. Frames are processed in
// arrival order.
type wsConnection struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
	logger *slog.Logger
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", "error", err)
		return
	}

	ws := &wsConnection{
		conn:   conn,
		send:   make(chan []byte, 16),
		server: s,
		logger: s.logger.With("remote", conn.RemoteAddr().String()),
	}
	ws.logger.Info("voice gateway connected")

	go ws.writePump()
	go ws.readPump()
}

func (c *wsConnection) readPump() {
	defer func() {
		close(c.send)
		c.conn.Close()
		c.logger.Info("voice gateway disconnected")
	}()

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		c.handleMessage(message)
	}
}

func (c *wsConnection) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConnection) handleMessage(message []byte) {
	var req TurnRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.sendError("invalid frame: " + err.Error())
		return
	}
	confidence, err := req.confidence()
	if err != nil {
		c.sendError(err.Error())
		return
	}

	result := c.server.lane.Turn(c.server.baseCtx, req.Text, confidence)
	c.sendResult(result)
}

func (c *wsConnection) sendResult(result lane.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("failed to marshal turn result", "error", err)
		return
	}
	c.enqueue(data)
}

func (c *wsConnection) sendError(message string) {
	data, _ := json.Marshal(map[string]string{"error": message})
	c.enqueue(data)
}

func (c *wsConnection) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		c.logger.Warn("websocket buffer full, dropping message")
	}
}
