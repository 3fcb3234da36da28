package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenTypeAccess authenticates a recipient on the HTTP API and the real-time channel.
	TokenTypeAccess = "access"
	// TokenTypeApp authenticates a sending application on the webhook.
	TokenTypeApp = "app"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type CustomClaims struct {
	Role      string `json:"role,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 tokens.
type JWTManager struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
	appTTL    time.Duration
	now       func() time.Time
}

func NewJWTManager(secret, issuer, audience string, accessTTL, appTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:    []byte(secret),
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
		appTTL:    appTTL,
		now:       time.Now,
	}
}

func (m *JWTManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// GenerateAccessToken issues a recipient token whose subject is the user id.
func (m *JWTManager) GenerateAccessToken(userID, role string) (string, time.Time, error) {
	return m.sign(userID, role, TokenTypeAccess, m.accessTTL)
}

// GenerateAppToken issues a webhook token whose subject is the application id.
func (m *JWTManager) GenerateAppToken(appID string) (string, time.Time, error) {
	return m.sign(appID, "", TokenTypeApp, m.appTTL)
}

func (m *JWTManager) sign(subject, role, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)
	claims := &CustomClaims{
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, expiry, issuer, audience and the expected token type.
func (m *JWTManager) ParseToken(tokenString, tokenType string) (*CustomClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || claims.Subject == "" || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
