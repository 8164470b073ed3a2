// Package security mints and validates the service tokens that runners
// present to the controller. Tokens are short lived; runners re-mint rather
// than refresh.
package security

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// Issuer names this control plane in minted tokens.
	Issuer = "kotosiro"

	// AudienceStash marks tokens accepted by the artifact stash.
	AudienceStash = "kotosiro.stash"

	// AudienceConfig marks tokens accepted by the config endpoints.
	AudienceConfig = "kotosiro.config"

	// TokenLifetime is how long a minted token stays valid.
	TokenLifetime = 5 * time.Minute
)

// TokenService signs and validates service tokens with a shared secret.
type TokenService struct {
	secret []byte
}

// NewTokenService builds a token service around secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
	}
}

// Mint issues a token for account, valid for TokenLifetime and accepted by
// both the stash and the config endpoints.
func (s *TokenService) Mint(account string) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		Issuer(Issuer).
		Subject(account).
		Audience([]string{AudienceStash, AudienceConfig}).
		IssuedAt(now).
		Expiration(now.Add(TokenLifetime)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Validate parses and verifies a token, checking signature, expiry, issuer
// and the config audience.
func (s *TokenService) Validate(tokenString string) (jwt.Token, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(AudienceConfig),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return token, nil
}
