package mq

import (
	"context"
	"encoding/json"
	"strings"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/pkg/ws"
	"VectorOps/pkg/zlog"

	"go.uber.org/zap"
)

// IngestNotifier 写入成功后把事件发到 Kafka，并推送给订阅了该集合的 websocket 客户端
type IngestNotifier struct {
	pub   Publisher
	topic string
	hub   *ws.Hub
}

func NewIngestNotifier(pub Publisher, topic string, hub *ws.Hub) *IngestNotifier {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &IngestNotifier{pub: pub, topic: strings.TrimSpace(topic), hub: hub}
}

// IngestCompleted 发布失败只记录日志
func (n *IngestNotifier) IngestCompleted(ctx context.Context, ev entity.IngestEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		zlog.Error("marshal ingest event failed", zap.Error(err))
		return
	}

	if n.hub != nil {
		n.hub.Send(ev.Collection, payload)
	}

	if n.topic == "" {
		return
	}
	res, err := n.pub.Publish(ctx, Message{
		Topic:   n.topic,
		Key:     []byte(ev.Collection),
		Value:   payload,
		Headers: map[string]string{"mode": string(ev.Mode)},
	})
	if err != nil {
		zlog.Warn("publish ingest event failed",
			zap.String("collection", ev.Collection),
			zap.String("topic", n.topic),
			zap.Error(err))
		return
	}
	zlog.Debug("ingest event published",
		zap.String("collection", ev.Collection),
		zap.Int32("partition", res.Partition),
		zap.Int64("offset", res.Offset))
}
