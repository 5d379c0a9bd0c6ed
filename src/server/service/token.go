// Package services implements the domain operations behind the API
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apimgr/tripplanner/src/config"
	"github.com/apimgr/tripplanner/src/server/model"
)

// TokenClaims is the identity carried by a verified token
type TokenClaims struct {
	UserID int64
	Email  string
}

// TokenService issues and verifies the bearer tokens. Access and
// refresh tokens are signed with distinct secrets so one can never pass
// for the other.
type TokenService struct {
	secret        []byte
	refreshSecret []byte
	ttl           time.Duration
	refreshTTL    time.Duration
}

// NewTokenService builds a token service from the JWT configuration
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret:        []byte(cfg.Secret),
		refreshSecret: []byte(cfg.RefreshSecret),
		ttl:           cfg.TTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// IssueAccess signs a short-lived access token for a user
func (s *TokenService) IssueAccess(user *models.User) (string, error) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// IssueRefresh signs a long-lived refresh token for a user
func (s *TokenService) IssueRefresh(user *models.User) (string, error) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"typ":   "refresh",
		"iat":   now.Unix(),
		"exp":   now.Add(s.refreshTTL).Unix(),
	}).SignedString(s.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return token, nil
}

// VerifyAccess validates an access token. Refresh tokens are rejected
// here even before the signature check fails them.
func (s *TokenService) VerifyAccess(tokenString string) (*TokenClaims, error) {
	claims, err := s.verify(tokenString, s.secret)
	if err != nil {
		return nil, err
	}
	if typ, _ := claims["typ"].(string); typ == "refresh" {
		return nil, models.ErrInvalidToken
	}
	return extractClaims(claims)
}

// VerifyRefresh validates a refresh token
func (s *TokenService) VerifyRefresh(tokenString string) (*TokenClaims, error) {
	claims, err := s.verify(tokenString, s.refreshSecret)
	if err != nil {
		return nil, err
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return nil, models.ErrInvalidToken
	}
	return extractClaims(claims)
}

func (s *TokenService) verify(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

func extractClaims(claims jwt.MapClaims) (*TokenClaims, error) {
	sub, ok := claims["sub"]
	if !ok {
		return nil, models.ErrInvalidToken
	}

	var userID int64
	switch v := sub.(type) {
	case float64:
		userID = int64(v)
	case int64:
		userID = v
	default:
		return nil, models.ErrInvalidToken
	}
	if userID <= 0 {
		return nil, models.ErrInvalidToken
	}

	email, _ := claims["email"].(string)

	return &TokenClaims{UserID: userID, Email: email}, nil
}
