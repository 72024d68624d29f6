package http

import (
	"net/http"

	aiRespond "VectorOps/internal/modules/ai/application/dto/respond"
	"VectorOps/internal/modules/ai/application/service"
	"VectorOps/pkg/back"
	"VectorOps/pkg/ws"
	"VectorOps/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// CollectionInfo 注册表的只读信息
type CollectionInfo interface {
	Names() []string
	DefaultName() string
	EngineName() string
}

// AdminHandler 集合列表与写入事件订阅
type AdminHandler struct {
	info       CollectionInfo
	hub        *ws.Hub
	yearFormat string
}

func NewAdminHandler(info CollectionInfo, hub *ws.Hub, yearFormat string) *AdminHandler {
	return &AdminHandler{info: info, hub: hub, yearFormat: yearFormat}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Collections 路由: GET /vectors/collections
func (h *AdminHandler) Collections(c *gin.Context) {
	back.Success(c, aiRespond.CollectionsRespond{
		Engine:      h.info.EngineName(),
		Default:     h.info.DefaultName(),
		Collections: h.info.Names(),
		Subscribers: h.subscribers(),
	})
}

// subscribers 全量订阅者加上按集合订阅的
func (h *AdminHandler) subscribers() int {
	if h.hub == nil {
		return 0
	}
	n := h.hub.Count(ws.AllTopics)
	for _, name := range h.info.Names() {
		n += h.hub.Count(name)
	}
	return n
}

// Events 路由: GET /vectors/events/ws?collection=
// 不带 collection 时订阅全部集合的写入事件
func (h *AdminHandler) Events(c *gin.Context) {
	topic := service.ScopeToCollection(c.Query("collection"), h.yearFormat)
	if topic == "" {
		topic = ws.AllTopics
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error(err.Error())
		return
	}

	client := ws.NewClient(topic, conn)
	h.hub.Register(client)
	zlog.Info("ingest event subscriber connected", zap.String("topic", topic))

	go client.WritePump()
	client.ReadPump(h.hub)
}
