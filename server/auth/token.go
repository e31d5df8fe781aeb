// Package auth issues and verifies the signed capability tokens that
// authorize remote tag mutations. A token binds one (record, path,
// action) triple with an expiry; the server keeps no state between
// issuing a token and executing it.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Actions a mutation token can authorize.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// ErrTokenInvalid is returned for malformed, tampered, expired, or
// mismatched tokens. Verification fails closed: no mutation may be
// applied when this error is returned.
var ErrTokenInvalid = errors.New("invalid mutation token")

// TagTokenClaims is the payload of a mutation token.
type TagTokenClaims struct {
	RecordKey string `json:"r"`
	Path      string `json:"p"`
	Action    string `json:"a"`
	ExpiresAt int64  `json:"exp"`
	Nonce     string `json:"n"`
}

// Matches reports whether the claims bind exactly the given triple.
func (c *TagTokenClaims) Matches(recordKey, path, action string) bool {
	return c.RecordKey == recordKey && c.Path == path && c.Action == action
}

// TokenSigner mints and verifies mutation tokens with HMAC-SHA256.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner creates a signer. Tokens expire after ttl.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	return &TokenSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a token authorizing one action on one (record, path) pair.
func (s *TokenSigner) Issue(recordKey, path, action string) (string, error) {
	if action != ActionAdd && action != ActionRemove {
		return "", errors.Errorf("unknown token action %q", action)
	}
	claims := TagTokenClaims{
		RecordKey: recordKey,
		Path:      path,
		Action:    action,
		ExpiresAt: s.now().Add(s.ttl).Unix(),
		Nonce:     uuid.NewString(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal token claims")
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + s.sign(encoded), nil
}

// Verify decodes a token and returns its claims. Every failure mode maps
// to ErrTokenInvalid.
func (s *TokenSigner) Verify(token string) (*TagTokenClaims, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok {
		return nil, errors.Wrap(ErrTokenInvalid, "malformed token")
	}
	if !hmac.Equal([]byte(signature), []byte(s.sign(encoded))) {
		return nil, errors.Wrap(ErrTokenInvalid, "bad signature")
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(ErrTokenInvalid, "undecodable payload")
	}
	var claims TagTokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, errors.Wrap(ErrTokenInvalid, "undecodable claims")
	}
	if claims.Action != ActionAdd && claims.Action != ActionRemove {
		return nil, errors.Wrap(ErrTokenInvalid, "unknown action")
	}
	if s.now().Unix() >= claims.ExpiresAt {
		return nil, errors.Wrap(ErrTokenInvalid, "expired")
	}
	return &claims, nil
}

func (s *TokenSigner) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
