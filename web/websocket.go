package web

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"

	"coachsight-service/realtime"
	"coachsight-service/services"
)

// Client 一条 WebSocket 连接,作为 realtime.Conn 适配到中继
type Client struct {
	id     string
	hub    *realtime.Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	engine *services.InsightEngine
	stats  *services.RelayStatsTracker
}

// Deliver 实现 realtime.Conn,非阻塞投递
// 发送缓冲满时返回 false,由中继按尽力投递语义丢弃这一份
func (c *Client) Deliver(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// readPump 读取客户端消息,连接关闭时负责注销
// 每条连接只有这一个读协程,保证同一来源的事件按发送顺序进入中继
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c.id)
		close(c.done)
		c.conn.Close()
		log.Printf("WebSocket client %s disconnected", c.id)
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump 把发送缓冲里的消息写到网络,真正的阻塞点在这里,
// 不在中继的广播循环里
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// handleMessage 处理一条入站消息
// 注意:socket 路径不做任何授权检查,任何连接都可以加入任意比赛房间
// 并为其中继事件,授权只在 REST 层实施
func (c *Client) handleMessage(raw []byte) {
	msg := &realtime.Message{}
	if err := json.Unmarshal(raw, msg); err != nil {
		log.Printf("Failed to unmarshal client message: %v", err)
		return
	}

	switch msg.Type {
	case realtime.MsgJoinRoom:
		if msg.MatchID == "" {
			log.Printf("Client %s sent join-room without matchId", c.id)
			return
		}
		c.hub.Join(msg.MatchID, c.id)
		log.Printf("Client %s joined room %s", c.id, msg.MatchID)

	case realtime.MsgTelemetry:
		event := &realtime.TelemetryEvent{}
		if err := json.Unmarshal(msg.Data, event); err != nil {
			log.Printf("Malformed telemetry from client %s: %v", c.id, err)
			return
		}
		c.stats.Record("telemetry")
		c.hub.RelayTelemetry(event)
		if c.engine != nil {
			c.engine.Observe(event)
		}

	case realtime.MsgInsight:
		event := &realtime.InsightEvent{}
		if err := json.Unmarshal(msg.Data, event); err != nil {
			log.Printf("Malformed insight from client %s: %v", c.id, err)
			return
		}
		c.stats.Record("insight")
		c.hub.RelayInsight(event)

	default:
		log.Printf("Client %s sent unknown message type %q", c.id, msg.Type)
	}
}
