package repository

import (
	"context"

	"VectorOps/internal/modules/user/domain/entity"
)

// UserInfoRepository 查不到时返回 gorm.ErrRecordNotFound
type UserInfoRepository interface {
	CreateUserInfo(ctx context.Context, user *entity.UserInfo) error
	GetUserInfoByUsername(ctx context.Context, username string) (*entity.UserInfo, error)
	GetUserInfoByUUID(ctx context.Context, uuid string) (*entity.UserInfo, error)
	ListUserInfo(ctx context.Context) ([]entity.UserInfo, error)
}
