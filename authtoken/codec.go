// Package authtoken signs and verifies the compact identity tokens issued at
// login and presented on every protected request. The codec is pure: it never
// touches the network or the database.
package authtoken

import (
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/talentbridge/placement-rest/helpers"
)

const (
	// DefaultTTL is the fallback token lifetime when JWT_TTL is not set.
	DefaultTTL = 7 * 24 * time.Hour

	// devSecret is the fallback signing secret. It is public by definition and
	// therefore unsafe for anything but local development; deployments must set
	// JWT_SECRET.
	devSecret = "placement-portal-dev-secret"
)

var (
	// ErrInvalidToken covers malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("authtoken: invalid token")

	// ErrExpiredToken is returned when the signature checks out but the token
	// is past its expiry.
	ErrExpiredToken = errors.New("authtoken: token expired")
)

// Claims is the payload embedded in every signed token. Role is a hint only;
// the resolved identity record remains authoritative.
type Claims struct {
	SubjectID string `json:"sub"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a shared HMAC-SHA256 secret.
type Codec struct {
	secret     []byte
	defaultTTL time.Duration
}

// NewCodec builds a codec from explicit inputs. A zero ttl falls back to
// DefaultTTL.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Codec{
		secret:     []byte(secret),
		defaultTTL: ttl,
	}
}

// NewCodecFromEnv builds a codec from JWT_SECRET and JWT_TTL, warning when the
// development fallback secret is in use.
func NewCodecFromEnv() *Codec {
	secret := helpers.GetEnv("JWT_SECRET", devSecret)
	if secret == devSecret {
		log.Println("[WARN] JWT_SECRET not set, using the development fallback secret. Do not run this in production.")
	}

	ttl := helpers.GetEnvDuration("JWT_TTL", DefaultTTL)
	return NewCodec(secret, ttl)
}

// DefaultTTL returns the lifetime applied by Sign when no explicit ttl is
// given.
func (c *Codec) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Sign produces a signed token for the given subject. The optional ttl
// overrides the codec default.
func (c *Codec) Sign(subjectID string, role string, ttl ...time.Duration) (string, error) {
	expiry := c.defaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		expiry = ttl[0]
	}

	now := time.Now()
	claims := Claims{
		SubjectID: subjectID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature and expiry and returns the embedded claims.
// It fails closed: every parse failure maps to ErrInvalidToken except expiry,
// which maps to ErrExpiredToken so callers can produce a distinct message.
func (c *Codec) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !parsed.Valid || claims.SubjectID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Decode performs a structural decode without verifying the signature. It is
// only suitable for non-trust-sensitive introspection (logging, debugging);
// authorization decisions must go through Verify. Returns nil on any failure.
func (c *Codec) Decode(token string) *Claims {
	claims := &Claims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}

	return claims
}
