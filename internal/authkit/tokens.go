package authkit

import (
	"encoding/hex"
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/ManakRaj-7/AnonVerse/internal/id"
)

const (
	tokenIssuer   = "anonverse-local"
	tokenAudience = "anonverse-client"

	// PASETO v4 symmetric key requirements.
	keyBytesSize = 32
	keyHexSize   = 64
)

// TokenService issues and verifies PASETO v4.local session tokens for the
// local identity provider.
type TokenService struct {
	symmetricKey    paseto.V4SymmetricKey
	sessionDuration time.Duration
}

// SessionClaims are the custom claims carried by a session token.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Expiry string `json:"exp"`
}

// NewTokenService creates a token service from a 64-char hex key.
func NewTokenService(keyHex string, sessionDuration time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("session key must be exactly %d hex characters (%d bytes), got %d",
			keyHexSize, keyBytesSize, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex session key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create symmetric key: %w", err)
	}

	return &TokenService{symmetricKey: key, sessionDuration: sessionDuration}, nil
}

// GenerateSessionToken creates an encrypted session token for the account.
func (s *TokenService) GenerateSessionToken(userID, email string, now time.Time) (token string, expiresAt time.Time, err error) {
	expiresAt = now.Add(s.sessionDuration)

	t := paseto.NewToken()
	t.SetIssuer(tokenIssuer)
	t.SetSubject(userID)
	t.SetAudience(tokenAudience)
	t.SetIssuedAt(now)
	t.SetNotBefore(now)
	t.SetExpiration(expiresAt)

	jti, err := id.Generate(id.PrefixSession)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}
	t.SetJti(jti)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = t.Set("user_id", userID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = t.Set("email", email)

	return t.V4Encrypt(s.symmetricKey, nil), expiresAt, nil
}

// VerifySessionToken verifies a token and returns its claims.
func (s *TokenService) VerifySessionToken(tokenString string) (*SessionClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	var claims SessionClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	return &claims, nil
}

// SessionDuration returns the configured session lifetime.
func (s *TokenService) SessionDuration() time.Duration {
	return s.sessionDuration
}
