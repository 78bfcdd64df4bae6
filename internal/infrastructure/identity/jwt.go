package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

// Config holds the signing settings shared by the verifier and issuer.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims carries the bearer subject. Roles are never embedded.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWT verifies and issues HS256 bearer tokens.
type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWT(cfg Config) (*JWT, error) {
	if cfg.Secret == "" {
		return nil, errors.New("identity: empty signing secret")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWT{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for id.
func (j *JWT) Issue(id domain.Identity) (string, error) {
	now := j.now()
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry and issuer and returns the subject.
func (j *JWT) Verify(_ context.Context, tokenString string) (*domain.Identity, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		options = append(options, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, options...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	return &domain.Identity{Subject: claims.Subject, Email: claims.Email}, nil
}
