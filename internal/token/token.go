// Package token issues and verifies the signed bearer tokens produced at
// login and consumed by the authorization middleware.
package token

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the decoded payload of a verified token.
type Claims struct {
	Subject    string
	FullName   string
	Email      string
	Department string
	Title      string
	HasRole    bool
	Roles      []string

	TokenID   string
	ExpiresAt time.Time
}

// Manager signs and verifies HS256 tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager builds a manager. A non-positive ttl falls back to one hour.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for the subject carrying the given identity claims.
func (m *Manager) Issue(c Claims) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)
	claims := jwt.MapClaims{
		"sub":        c.Subject,
		"uuid":       c.Subject,
		"full_name":  c.FullName,
		"email":      c.Email,
		"department": c.Department,
		"title":      c.Title,
		"has_role":   c.HasRole,
		"roles":      c.Roles,
		"jti":        uuid.NewString(),
		"iat":        jwt.NewNumericDate(now),
		"exp":        jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the decoded claims.
// The roles claim is coerced into a string slice whatever JSON shape it
// arrived in; an absent or wrong-shaped claim yields an empty slice.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	raw, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	claims := &Claims{
		Subject:    stringClaim(raw, "uuid"),
		FullName:   stringClaim(raw, "full_name"),
		Email:      stringClaim(raw, "email"),
		Department: stringClaim(raw, "department"),
		Title:      stringClaim(raw, "title"),
		HasRole:    boolClaim(raw, "has_role"),
		Roles:      stringSetClaim(raw, "roles"),
		TokenID:    stringClaim(raw, "jti"),
	}
	if claims.Subject == "" {
		claims.Subject = stringClaim(raw, "sub")
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func stringClaim(raw jwt.MapClaims, key string) string {
	s, _ := raw[key].(string)
	return s
}

func boolClaim(raw jwt.MapClaims, key string) bool {
	b, _ := raw[key].(bool)
	return b
}

// stringSetClaim de-duplicates while keeping first-seen order so the value
// behaves as a set regardless of the issuer's encoding.
func stringSetClaim(raw jwt.MapClaims, key string) []string {
	value, ok := raw[key]
	if !ok {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, s := range v {
			add(s)
		}
	}
	return out
}
