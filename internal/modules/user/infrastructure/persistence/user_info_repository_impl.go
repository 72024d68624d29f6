package persistence

import (
	"context"

	"VectorOps/internal/modules/user/domain/entity"
	"VectorOps/internal/modules/user/domain/repository"

	"gorm.io/gorm"
)

// userInfoRepositoryImpl 结构体
type userInfoRepositoryImpl struct {
	db *gorm.DB
}

// NewUserInfoRepository 构造函数
func NewUserInfoRepository(db *gorm.DB) repository.UserInfoRepository {
	return &userInfoRepositoryImpl{db: db}
}

func (r *userInfoRepositoryImpl) CreateUserInfo(ctx context.Context, user *entity.UserInfo) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userInfoRepositoryImpl) GetUserInfoByUsername(ctx context.Context, username string) (*entity.UserInfo, error) {
	var user entity.UserInfo
	// First 查不到会返回 ErrRecordNotFound
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userInfoRepositoryImpl) GetUserInfoByUUID(ctx context.Context, uuid string) (*entity.UserInfo, error) {
	var user entity.UserInfo
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userInfoRepositoryImpl) ListUserInfo(ctx context.Context) ([]entity.UserInfo, error) {
	var users []entity.UserInfo
	// 不查询密码列
	err := r.db.WithContext(ctx).Select("id, uuid, username, email, created_at").Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
