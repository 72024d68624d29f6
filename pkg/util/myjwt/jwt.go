package myjwt

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptyKey     = errors.New("jwt key is empty")
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token has been revoked")
)

type CustomClaims struct {
	Uuid     string `json:"uuid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer 签发与校验 HS256 token，并维护一个进程内的注销名单
type Issuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // token -> 过期时间
}

func NewIssuer(key, issuer string, expireHours int) (*Issuer, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrEmptyKey
	}
	if expireHours <= 0 {
		expireHours = 24
	}
	return &Issuer{
		key:     []byte(key),
		issuer:  issuer,
		ttl:     time.Duration(expireHours) * time.Hour,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

func (i *Issuer) GenerateToken(uuid string, username string) (string, error) {
	now := i.now()
	claims := CustomClaims{
		Uuid:     uuid,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.key)
}

func (i *Issuer) ParseToken(tokenString string) (*CustomClaims, error) {
	if i.isRevoked(tokenString) {
		return nil, ErrRevokedToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke 将 token 加入注销名单，直到它自然过期
func (i *Issuer) Revoke(tokenString string) error {
	claims, err := i.ParseToken(tokenString)
	if err != nil {
		return err
	}
	exp := i.now().Add(i.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.pruneLocked()
	i.revoked[tokenString] = exp
	return nil
}

func (i *Issuer) isRevoked(tokenString string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.revoked[tokenString]
	return ok
}

func (i *Issuer) pruneLocked() {
	now := i.now()
	for tok, exp := range i.revoked {
		if now.After(exp) {
			delete(i.revoked, tok)
		}
	}
}
