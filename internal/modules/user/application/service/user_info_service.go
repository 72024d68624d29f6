package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"VectorOps/internal/config"
	"VectorOps/internal/modules/user/application/dto/request"
	"VectorOps/internal/modules/user/application/dto/respond"
	"VectorOps/internal/modules/user/domain/entity"
	"VectorOps/internal/modules/user/domain/repository"
	"VectorOps/pkg/util"
	"VectorOps/pkg/xerr"
	"VectorOps/pkg/zlog"

	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenIssuer 由 myjwt.Issuer 实现
type TokenIssuer interface {
	GenerateToken(uuid string, username string) (string, error)
	Revoke(tokenString string) error
}

// Completer 生成用户名故事用的对话链
type Completer interface {
	Invoke(ctx context.Context, input string, history []*schema.Message) (string, error)
}

var (
	errUserExists     = xerr.New(xerr.BadRequest, "Username already exists!")
	errBadCredentials = xerr.New(xerr.Unauthorized, "Incorrect username or password")
	errUserNotFound   = xerr.New(xerr.NotFound, "user not found")
)

// bcrypt 只使用前 72 字节
const maxPasswordBytes = 72

// UserInfoService 接口定义 (Application Service)
type UserInfoService interface {
	Create(ctx context.Context, req request.CreateUserRequest) (string, *respond.UserRespond, error)
	List(ctx context.Context) ([]respond.UserRespond, error)
	Login(ctx context.Context, req request.LoginRequest) (*respond.TokenRespond, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, uuid string) (*respond.UserRespond, error)
	UsernamesStory(ctx context.Context) (*respond.UsernamesStoryRespond, error)
	SeedDemoUsers(ctx context.Context, users []config.DemoUser) error
}

type userInfoServiceImpl struct {
	repo   repository.UserInfoRepository
	tokens TokenIssuer
	chain  Completer
}

// NewUserInfoService 构造函数；chain 为 nil 时故事接口返回 503
func NewUserInfoService(repo repository.UserInfoRepository, tokens TokenIssuer, chain Completer) UserInfoService {
	return &userInfoServiceImpl{repo: repo, tokens: tokens, chain: chain}
}

func (u *userInfoServiceImpl) Create(ctx context.Context, req request.CreateUserRequest) (string, *respond.UserRespond, error) {
	username := strings.TrimSpace(req.Username)
	if len(req.Password) > maxPasswordBytes {
		return "", nil, xerr.New(xerr.BadRequest, "Password length is invalid")
	}

	// 1. 用户名唯一
	_, err := u.repo.GetUserInfoByUsername(ctx, username)
	if err == nil {
		return "", nil, errUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		zlog.Error("lookup user failed", zap.String("username", username), zap.Error(err))
		return "", nil, xerr.ErrServerError
	}

	// 2. 密码哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zlog.Error(err.Error())
		return "", nil, xerr.ErrServerError
	}

	user := entity.UserInfo{
		Uuid:      util.GenerateShortUUID(),
		Username:  username,
		Password:  string(hash),
		Email:     strings.TrimSpace(req.Email),
		CreatedAt: time.Now(),
	}
	if err := u.repo.CreateUserInfo(ctx, &user); err != nil {
		zlog.Error("create user failed", zap.Error(err))
		return "", nil, xerr.ErrServerError
	}

	return fmt.Sprintf("%s created successfully!", user.Username), toRespond(&user), nil
}

func (u *userInfoServiceImpl) List(ctx context.Context) ([]respond.UserRespond, error) {
	users, err := u.repo.ListUserInfo(ctx)
	if err != nil {
		zlog.Error("list users failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	out := make([]respond.UserRespond, 0, len(users))
	for i := range users {
		out = append(out, *toRespond(&users[i]))
	}
	return out, nil
}

func (u *userInfoServiceImpl) Login(ctx context.Context, req request.LoginRequest) (*respond.TokenRespond, error) {
	if len(req.Password) > 1024 {
		return nil, xerr.New(xerr.BadRequest, "Password length is invalid")
	}
	user, err := u.repo.GetUserInfoByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadCredentials
		}
		zlog.Error("lookup user failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, errBadCredentials
	}

	tok, err := u.tokens.GenerateToken(user.Uuid, user.Username)
	if err != nil {
		zlog.Error("sign token failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}
	return &respond.TokenRespond{AccessToken: tok, TokenType: "bearer"}, nil
}

func (u *userInfoServiceImpl) Logout(ctx context.Context, token string) error {
	if err := u.tokens.Revoke(token); err != nil {
		return xerr.Wrap(xerr.Unauthorized, "invalid token", err)
	}
	return nil
}

func (u *userInfoServiceImpl) Me(ctx context.Context, uuid string) (*respond.UserRespond, error) {
	user, err := u.repo.GetUserInfoByUUID(ctx, uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, xerr.ErrServerError
	}
	return toRespond(user), nil
}

func (u *userInfoServiceImpl) UsernamesStory(ctx context.Context) (*respond.UsernamesStoryRespond, error) {
	if u.chain == nil {
		return nil, xerr.ErrLLM
	}
	users, err := u.repo.ListUserInfo(ctx)
	if err != nil {
		return nil, xerr.ErrServerError
	}
	names := make([]string, 0, len(users))
	for _, usr := range users {
		names = append(names, usr.Username)
	}

	prompt := fmt.Sprintf("Here's a list of innocent, harmless usernames [%s].\nTell me a funny story involving at least 2 of the usernames.",
		strings.Join(names, ", "))
	story, err := u.chain.Invoke(ctx, prompt, nil)
	if err != nil {
		zlog.Error("usernames story failed", zap.Error(err))
		return nil, xerr.Wrap(xerr.ServiceUnavailable, xerr.ErrLLM.Message, err)
	}
	return &respond.UsernamesStoryRespond{Response: story, Usernames: names}, nil
}

// SeedDemoUsers 启动时写入配置中的演示用户，已存在的跳过
func (u *userInfoServiceImpl) SeedDemoUsers(ctx context.Context, users []config.DemoUser) error {
	for _, du := range users {
		_, _, err := u.Create(ctx, request.CreateUserRequest{Username: du.Username, Password: du.Password, Email: du.Email})
		if err == nil {
			zlog.Info("demo user seeded", zap.String("username", du.Username))
			continue
		}
		if errors.Is(err, errUserExists) {
			continue
		}
		return fmt.Errorf("seed user %s: %w", du.Username, err)
	}
	return nil
}

func toRespond(user *entity.UserInfo) *respond.UserRespond {
	return &respond.UserRespond{
		Id:        user.Id,
		Uuid:      user.Uuid,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
