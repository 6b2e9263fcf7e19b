package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// TokenUser is the identity carried inside every token.
type TokenUser struct {
	ID string `json:"id"`
}

type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret      []byte
	registerTTL time.Duration
	loginTTL    time.Duration
	now         func() time.Time
}

func NewManager(secret string, registerTTL time.Duration, loginTTL time.Duration) *Manager {
	return &Manager{
		secret:      []byte(secret),
		registerTTL: registerTTL,
		loginTTL:    loginTTL,
		now:         time.Now,
	}
}

// Issue signs a token for userID that expires after ttl.
func (m *Manager) Issue(userID string, ttl time.Duration) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		User: TokenUser{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) IssueForRegistration(userID string) (string, error) {
	return m.Issue(userID, m.registerTTL)
}

func (m *Manager) IssueForLogin(userID string) (string, error) {
	return m.Issue(userID, m.loginTTL)
}

// Verify checks signature and expiry and returns the user id in the token.
func (m *Manager) Verify(tokenStr string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.User.ID == "" {
		return "", ErrInvalidToken
	}

	return claims.User.ID, nil
}
