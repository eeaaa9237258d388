package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for reset tokens
	"encoding/hex"  // hex encoding
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Errors returned by ParseSessionToken. Handlers map both to HTTP 401 but
// with different messages, so an expired session prompts a re-login rather
// than looking like a forged token.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// SessionToken is a signed stateless bearer credential. The claims carry
// only the subject id plus issuance and expiry times; nothing about it is
// persisted server-side.
type SessionToken struct {
	Token    string    // the serialized JWT string
	IssuedAt time.Time // UTC issuance time
	Exp      time.Time // UTC expiration time
}

// ResetToken is the one-time secret for password recovery. Raw is handed to
// the user exactly once; only Hash and Exp are ever stored.
type ResetToken struct {
	Raw  string    // plaintext secret, embedded in the reset link
	Hash string    // SHA-256 hex digest persisted on the account
	Exp  time.Time // UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT for a user. The claims are
// sub (subject id), iat and exp. TTL is given in minutes.
func NewSessionToken(secret string, userID uint64, ttlMin int) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	})
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, IssuedAt: now, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of a session token
// and returns the subject id and issuance time. Only HMAC-signed tokens are
// accepted; anything else fails with ErrTokenInvalid.
func ParseSessionToken(secret, raw string) (userID uint64, issuedAt time.Time, err error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, time.Time{}, ErrTokenExpired
		}
		return 0, time.Time{}, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return 0, time.Time{}, ErrTokenInvalid
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, time.Time{}, ErrTokenInvalid
	}
	iat, ok := claims["iat"].(float64)
	if !ok {
		return 0, time.Time{}, ErrTokenInvalid
	}
	return uint64(sub), time.Unix(int64(iat), 0).UTC(), nil
}

// NewResetToken returns a fresh one-time reset secret: 32 random bytes hex
// encoded, together with the digest to store and the expiry of the window.
func NewResetToken(ttl time.Duration) (ResetToken, error) {
	raw, err := randomHex(32) // 32 bytes -> 64 hex chars
	if err != nil {
		return ResetToken{}, err
	}
	return ResetToken{
		Raw:  raw,
		Hash: HashResetRaw(raw),
		Exp:  time.Now().UTC().Add(ttl),
	}, nil
}

// HashResetRaw returns the SHA-256 hex digest of a plaintext reset token.
// The equality check on reset is digest-to-digest; the plaintext is never
// compared or stored.
func HashResetRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex string generated from n bytes of cryptographically
// secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
