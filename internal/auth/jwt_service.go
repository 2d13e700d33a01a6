package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/anoixa/photo-bed/database/models"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength JWT 密钥最小长度
const MinSecretLength = 32

// TokenClaims JWT 令牌声明
type TokenClaims struct {
	Username string      `json:"username"`
	UserID   uint        `json:"user_id"`
	Role     models.Role `json:"role"`
	Type     string      `json:"type"`
	jwt.RegisteredClaims
}

// TokenConfig 保存 JWT 配置
type TokenConfig struct {
	Secret    []byte
	ExpiresIn time.Duration
}

// JWTService JWT 访问令牌服务，只负责签发与校验
type JWTService struct {
	config TokenConfig
}

// NewJWTService 创建 JWT 服务
func NewJWTService(secret string, expiresIn time.Duration) (*JWTService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters long, got %d", MinSecretLength, len(secret))
	}
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &JWTService{config: TokenConfig{Secret: []byte(secret), ExpiresIn: expiresIn}}, nil
}

// GenerateAccessToken 生成访问令牌
func (s *JWTService) GenerateAccessToken(username string, userID uint, role models.Role) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.config.ExpiresIn)

	claims := TokenClaims{
		Username: username,
		UserID:   userID,
		Role:     role,
		Type:     "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, expiry, nil
}

// ParseToken 解析和验证访问令牌
func (s *JWTService) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.config.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != "access" {
		return nil, errors.New("not an access token")
	}
	if claims.UserID == 0 || !claims.Role.Valid() {
		return nil, errors.New("token is missing identity")
	}
	return claims, nil
}

// Caller 令牌声明转调用者身份
func (c *TokenClaims) Caller() Caller {
	return Caller{ID: c.UserID, Username: c.Username, Role: c.Role}
}
