package queue

import (
	"context"
	"encoding/json"
	"errors"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/infrastructure/mq"
	"VectorOps/pkg/zlog"

	"go.uber.org/zap"
)

// Ingester IngestWorker 需要的写入能力
type Ingester interface {
	IngestItems(ctx context.Context, collection string, items []entity.IngestItem) (*entity.IngestResult, error)
	IngestText(ctx context.Context, collection, text, source string) (*entity.IngestResult, error)
}

// IngestConsumerWorker 消费异步写入请求
type IngestConsumerWorker struct {
	consumer mq.Consumer
	ingester Ingester
}

func NewIngestConsumerWorker(consumer mq.Consumer, ingester Ingester) *IngestConsumerWorker {
	return &IngestConsumerWorker{consumer: consumer, ingester: ingester}
}

func (w *IngestConsumerWorker) Run(ctx context.Context) error {
	if w == nil || w.consumer == nil {
		return errors.New("consumer is nil")
	}
	if w.ingester == nil {
		return errors.New("ingester is nil")
	}
	zlog.Info("ingest consumer worker started")
	return w.consumer.Run(ctx, w)
}

// Handle 无法解析或参数非法的消息直接确认丢弃；引擎错误返回 err，offset 不提交
func (w *IngestConsumerWorker) Handle(ctx context.Context, msg mq.Message) error {
	var req entity.IngestRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		zlog.Warn("ingest worker invalid payload", zap.String("topic", msg.Topic), zap.Error(err))
		return nil
	}

	var (
		res *entity.IngestResult
		err error
	)
	switch req.Mode {
	case entity.IngestModeItems:
		res, err = w.ingester.IngestItems(ctx, req.Collection, req.Items)
	case entity.IngestModeText:
		res, err = w.ingester.IngestText(ctx, req.Collection, req.Text, req.Source)
	default:
		zlog.Warn("ingest worker unknown mode",
			zap.String("request_id", req.RequestID),
			zap.String("mode", string(req.Mode)))
		return nil
	}

	if err != nil {
		if errors.Is(err, entity.ErrInvalidArgument) {
			zlog.Warn("ingest worker rejected request", zap.String("request_id", req.RequestID), zap.Error(err))
			return nil
		}
		zlog.Error("ingest worker failed",
			zap.String("request_id", req.RequestID),
			zap.String("collection", req.Collection),
			zap.Error(err))
		return err
	}

	zlog.Info("ingest worker done",
		zap.String("request_id", req.RequestID),
		zap.String("collection", res.Collection),
		zap.Int("ingested", res.Ingested),
		zap.Int("dropped", res.Dropped))
	return nil
}
