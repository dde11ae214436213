package utils

import (
	"errors"
	"fmt"
	"time"

	"audioscribe/models"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var (
	ErrInvalidKeyfile   = errors.New("invalid keyfile token format")
	ErrKeyfileExpired   = errors.New("keyfile token has expired")
	ErrKeyfileNotValid  = errors.New("keyfile token not yet valid")
	ErrInvalidSignature = errors.New("invalid keyfile signature")
	ErrInvalidIssuer    = errors.New("invalid keyfile issuer")
	ErrNoKeysInKeyfile  = errors.New("keyfile token contains no API keys")
)

// KeyfileVerifyConfig holds verification configuration for signed keyfiles
type KeyfileVerifyConfig struct {
	SecretKey      []byte        // For HMAC (HS256)
	PublicKey      any           // For RSA (RS256) - *rsa.PublicKey
	ExpectedIssuer string        // Optional: validate issuer
	ClockSkew      time.Duration // Optional: allow clock skew (default 0)
}

// VerifyKeyfile verifies a signed keyfile token and returns the API keys it
// carries.
func VerifyKeyfile(tokenString string, config KeyfileVerifyConfig) (*models.KeyfileClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidKeyfile
	}

	var allowedAlgs []jose.SignatureAlgorithm
	if config.SecretKey != nil {
		allowedAlgs = append(allowedAlgs, jose.HS256)
	}
	if config.PublicKey != nil {
		allowedAlgs = append(allowedAlgs, jose.RS256)
	}
	if len(allowedAlgs) == 0 {
		return nil, errors.New("no verification key provided")
	}

	tok, err := jwt.ParseSigned(tokenString, allowedAlgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyfile, err)
	}

	claims := &models.KeyfileClaims{}

	var verifyErr error
	if config.SecretKey != nil {
		verifyErr = tok.Claims(config.SecretKey, claims)
	} else if config.PublicKey != nil {
		verifyErr = tok.Claims(config.PublicKey, claims)
	}
	if verifyErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, verifyErr)
	}

	now := time.Now().Unix()
	clockSkew := int64(config.ClockSkew.Seconds())

	if claims.ExpiresAt > 0 && claims.ExpiresAt < (now-clockSkew) {
		return nil, ErrKeyfileExpired
	}
	if claims.IssuedAt > 0 && claims.IssuedAt > (now+clockSkew) {
		return nil, ErrKeyfileNotValid
	}
	if config.ExpectedIssuer != "" && claims.Issuer != config.ExpectedIssuer {
		return nil, fmt.Errorf("%w: expected '%s', got '%s'",
			ErrInvalidIssuer, config.ExpectedIssuer, claims.Issuer)
	}

	if len(claims.APIKeys) == 0 {
		return nil, ErrNoKeysInKeyfile
	}

	return claims, nil
}

// CreateKeyfile creates a signed keyfile token from claims. Used by the
// keyfile generation helper and by tests.
func CreateKeyfile(claims *models.KeyfileClaims, secretKey []byte) (string, error) {
	if claims == nil {
		return "", errors.New("claims cannot be nil")
	}
	if len(secretKey) == 0 {
		return "", errors.New("secret key cannot be empty")
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: secretKey}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to create keyfile token: %w", err)
	}

	return token, nil
}
