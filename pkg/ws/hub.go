package ws

import (
	"encoding/json"
	"sync"
	"time"

	"VectorOps/pkg/zlog"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AllTopics 订阅该 topic 的客户端会收到所有广播
const AllTopics = "*"

// Hub 按 topic 维护 websocket 订阅者
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	if c == nil || c.topic == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.topic]
	if set == nil {
		set = make(map[*Client]struct{})
		h.clients[c.topic] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	if c == nil || c.topic == "" {
		return
	}
	h.mu.Lock()
	set := h.clients[c.topic]
	if set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.topic)
		}
	}
	h.mu.Unlock()
	c.Close()
}

// Count 返回某个 topic 的直接订阅者数量
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// Send 投递给 topic 订阅者以及 AllTopics 订阅者；返回是否至少投递成功一个
func (h *Hub) Send(topic string, payload []byte) bool {
	if topic == "" || len(payload) == 0 {
		return false
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[topic])+len(h.clients[AllTopics]))
	for c := range h.clients[topic] {
		targets = append(targets, c)
	}
	if topic != AllTopics {
		for c := range h.clients[AllTopics] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	ok := false
	for _, c := range targets {
		if c.trySend(payload) {
			ok = true
			continue
		}
		// 发送缓冲已满，视为慢消费者直接踢掉
		zlog.Warn("ws client dropped", zap.String("topic", c.topic))
		h.Unregister(c)
	}
	return ok
}

func (h *Hub) SendJSON(topic string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Send(topic, b)
	return nil
}

type Client struct {
	topic string
	conn  *websocket.Conn
	send  chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(topic string, conn *websocket.Conn) *Client {
	return &Client{
		topic: topic,
		conn:  conn,
		send:  make(chan []byte, 64),
	}
}

func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Messages 只读的待发送队列，测试与自定义写循环使用
func (c *Client) Messages() <-chan []byte {
	return c.send
}

func (c *Client) WritePump() {
	if c.conn == nil {
		return
	}
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			zlog.Error("ws write failed", zap.Error(err))
			return
		}
	}
}

// ReadPump 丢弃客户端消息，连接断开时注销
func (c *Client) ReadPump(h *Hub) {
	defer h.Unregister(c)
	if c.conn == nil {
		return
	}
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
