package mq

import "context"

type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

type PublishResult struct {
	Partition int32
	Offset    int64
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) (PublishResult, error)
	Close() error
}

type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

// HandlerFunc 函数适配为 Handler
type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg Message) error { return f(ctx, msg) }

type Consumer interface {
	Run(ctx context.Context, handler Handler) error
	Close() error
}

// NopPublisher 未配置 broker 时使用，消息直接丢弃
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, msg Message) (PublishResult, error) {
	return PublishResult{Partition: -1, Offset: -1}, nil
}

func (NopPublisher) Close() error { return nil }
