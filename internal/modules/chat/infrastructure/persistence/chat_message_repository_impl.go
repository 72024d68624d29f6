package persistence

import (
	"context"

	chatEntity "VectorOps/internal/modules/chat/domain/entity"
	chatRepository "VectorOps/internal/modules/chat/domain/repository"

	"gorm.io/gorm"
)

type chatMessageRepositoryImpl struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) chatRepository.ChatMessageRepository {
	return &chatMessageRepositoryImpl{db: db}
}

func (r *chatMessageRepositoryImpl) Append(ctx context.Context, messages ...*chatEntity.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&messages).Error
	})
}

func (r *chatMessageRepositoryImpl) ListRecent(ctx context.Context, sessionID string, limit int) ([]chatEntity.ChatMessage, error) {
	if limit <= 0 {
		limit = 40
	}

	var msgs []chatEntity.ChatMessage
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	// 倒序查询后翻转成时间正序
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *chatMessageRepositoryImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&chatEntity.ChatMessage{}).Error
}
