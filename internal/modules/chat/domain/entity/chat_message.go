package entity

import (
	"time"
)

const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// ChatMessage 带记忆对话的一条消息
type ChatMessage struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	SessionId string    `gorm:"column:session_id;index;type:varchar(64);not null;comment:会话id"`
	Role      string    `gorm:"column:role;type:varchar(16);not null;comment:human | ai"`
	Content   string    `gorm:"column:content;type:text;not null;comment:消息内容"`
	CreatedAt time.Time `gorm:"column:created_at;not null;comment:创建时间"`
}

func (ChatMessage) TableName() string {
	return "chat_message"
}
