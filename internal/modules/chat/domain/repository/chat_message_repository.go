package repository

import (
	"context"

	"VectorOps/internal/modules/chat/domain/entity"
)

type ChatMessageRepository interface {
	Append(ctx context.Context, messages ...*entity.ChatMessage) error
	// ListRecent 最近 limit 条消息，按时间正序
	ListRecent(ctx context.Context, sessionID string, limit int) ([]entity.ChatMessage, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
