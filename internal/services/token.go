package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"alfredoptarigan/cv-screener/internal/apperror"
	"alfredoptarigan/cv-screener/internal/session"
)

// TokenClaims carry enough of the session to check a route's capability
// without touching the session store.
type TokenClaims struct {
	SessionID          string `json:"sid"`
	IsAdmin            bool   `json:"adm"`
	MustChangePassword bool   `json:"pwc"`
	jwt.RegisteredClaims
}

func (c *TokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Allows mirrors session.State.Allows for the claimed flags.
func (c *TokenClaims) Allows(capability session.Capability) bool {
	st := session.State{IsAdmin: c.IsAdmin, MustChangePassword: c.MustChangePassword}
	return st.Allows(capability)
}

type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) Issue(state *session.State) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := &TokenClaims{
		SessionID:          state.ID,
		IsAdmin:            state.IsAdmin,
		MustChangePassword: state.MustChangePassword,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   state.UserID.String(),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) Parse(tokenString string) (*TokenClaims, error) {
	const op = "token.Parse"

	if tokenString == "" {
		return nil, apperror.WithReason(apperror.KindAuth, apperror.ReasonSessionExpired, op, "please log in", nil)
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		message := "invalid session token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			message = "your session has expired, please log in again"
		}
		return nil, apperror.WithReason(apperror.KindAuth, apperror.ReasonSessionExpired, op, message, err)
	}
	if claims.SessionID == "" {
		return nil, apperror.WithReason(apperror.KindAuth, apperror.ReasonSessionExpired, op, "invalid session token", nil)
	}

	return claims, nil
}
