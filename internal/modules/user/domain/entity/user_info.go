package entity

import "time"

// UserInfo 用户表，Password 保存 bcrypt 哈希
type UserInfo struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	Uuid      string    `gorm:"column:uuid;uniqueIndex;type:char(32);not null;comment:用户唯一id"`
	Username  string    `gorm:"column:username;uniqueIndex;type:varchar(64);not null;comment:用户名"`
	Password  string    `gorm:"column:password;type:varchar(100);not null;comment:密码哈希"`
	Email     string    `gorm:"column:email;type:varchar(128);not null;comment:邮箱"`
	CreatedAt time.Time `gorm:"column:created_at;not null;comment:创建时间"`
}

func (UserInfo) TableName() string {
	return "user_info"
}
