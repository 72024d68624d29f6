package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/infrastructure/mq"
	"VectorOps/pkg/util"
	"VectorOps/pkg/zlog"

	"go.uber.org/zap"
)

// ErrAsyncDisabled 没有配置请求 topic
var ErrAsyncDisabled = errors.New("async ingest is not enabled")

// AsyncIngestService 把写入请求投递到消息队列，由 IngestWorker 消费
type AsyncIngestService interface {
	Enabled() bool
	Submit(ctx context.Context, req entity.IngestRequest) (*entity.IngestRequest, error)
}

type asyncIngestService struct {
	store CollectionStore
	pub   mq.Publisher
	topic string
}

func NewAsyncIngestService(store CollectionStore, pub mq.Publisher, topic string) AsyncIngestService {
	return &asyncIngestService{store: store, pub: pub, topic: strings.TrimSpace(topic)}
}

func (s *asyncIngestService) Enabled() bool {
	return s.pub != nil && s.topic != ""
}

func (s *asyncIngestService) Submit(ctx context.Context, req entity.IngestRequest) (*entity.IngestRequest, error) {
	if !s.Enabled() {
		return nil, ErrAsyncDisabled
	}
	name, err := s.store.Resolve(req.Collection)
	if err != nil {
		return nil, err
	}
	switch req.Mode {
	case entity.IngestModeItems:
		if len(req.Items) == 0 {
			return nil, entity.Invalid("items must not be empty")
		}
	case entity.IngestModeText:
		if strings.TrimSpace(req.Text) == "" {
			return nil, entity.Invalid("text must not be empty")
		}
	default:
		return nil, entity.Invalid("unsupported async ingest mode %q", req.Mode)
	}

	req.Collection = name
	if req.RequestID == "" {
		req.RequestID = util.GenerateShortUUID()
	}
	req.At = time.Now().UTC()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal ingest request: %w", err)
	}
	if _, err := s.pub.Publish(ctx, mq.Message{
		Topic:   s.topic,
		Key:     []byte(name),
		Value:   payload,
		Headers: map[string]string{"request_id": req.RequestID, "mode": string(req.Mode)},
	}); err != nil {
		zlog.Error("enqueue ingest request failed", zap.String("collection", name), zap.Error(err))
		return nil, err
	}
	zlog.Info("ingest request enqueued",
		zap.String("collection", name),
		zap.String("request_id", req.RequestID),
		zap.String("mode", string(req.Mode)))
	return &req, nil
}
