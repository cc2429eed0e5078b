package myjwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"OrgCalendar/internal/config"
)

// CustomClaims 由认证服务签发, 携带组织身份
type CustomClaims struct {
	Uuid         string `json:"uuid"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	Position     string `json:"position,omitempty"`
	ScopeBreadth string `json:"scopeBreadth,omitempty"`
	DepartmentId string `json:"departmentId,omitempty"`
	OfficeId     string `json:"officeId,omitempty"`
	DivisionId   string `json:"divisionId,omitempty"`
	jwt.RegisteredClaims
}

type Signer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

func NewSigner(key, issuer string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{key: []byte(key), issuer: issuer, ttl: ttl}
}

// FromConfig 使用 jwtConfig 构造
func FromConfig(conf *config.Config) *Signer {
	issuer := conf.JwtConfig.Issuer
	if issuer == "" {
		issuer = conf.MainConfig.AppName
	}
	return NewSigner(conf.JwtConfig.Key, issuer, time.Duration(conf.JwtConfig.ExpireHours)*time.Hour)
}

// GenerateToken 主要供联调和测试使用, 正式签发在认证服务
func (s *Signer) GenerateToken(claims CustomClaims) (string, error) {
	if len(s.key) == 0 {
		return "", errors.New("jwt key is empty")
	}
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    s.issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

func (s *Signer) ParseToken(tokenString string) (*CustomClaims, error) {
	if len(s.key) == 0 {
		return nil, errors.New("jwt key is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Uuid == "" {
		return nil, errors.New("token without subject")
	}
	return claims, nil
}
