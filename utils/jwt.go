package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPayload carries the identity claims embedded in both token classes.
type TokenPayload struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// Claims defines the JWT claims used by both access and refresh tokens.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Payload converts parsed claims back into a TokenPayload.
func (c *Claims) Payload() TokenPayload {
	return TokenPayload{UserID: c.UserID, Username: c.Username, Email: c.Email, IsAdmin: c.IsAdmin}
}

// TokenPair is the access/refresh token couple issued on login and rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenManager signs and verifies the two token classes. Each class has its
// own secret so possession of one token never lets a holder forge the other.
// It is constructed explicitly at startup and handed to whoever needs it;
// nothing in this package reads secrets ambiently.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager builds a TokenManager from the two signing secrets.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL returns the access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// GenerateAccessToken issues a short-lived access token for the identity.
func (m *TokenManager) GenerateAccessToken(p TokenPayload) (string, error) {
	return m.generate(p, m.accessSecret, m.accessTTL)
}

// GenerateRefreshToken issues a long-lived refresh token for the identity.
func (m *TokenManager) GenerateRefreshToken(p TokenPayload) (string, error) {
	return m.generate(p, m.refreshSecret, m.refreshTTL)
}

// GeneratePair issues a fresh access/refresh couple in one call.
func (m *TokenManager) GeneratePair(p TokenPayload) (TokenPair, error) {
	access, err := m.GenerateAccessToken(p)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.GenerateRefreshToken(p)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (m *TokenManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.accessSecret)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (m *TokenManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.refreshSecret)
}

func (m *TokenManager) generate(p TokenPayload, secret []byte, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   p.UserID,
		Username: p.Username,
		Email:    p.Email,
		IsAdmin:  p.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every issued token unique even when two are
			// minted for the same identity within the same second, so
			// rotation always produces a token distinct from the old one.
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (m *TokenManager) parse(tokenStr string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
