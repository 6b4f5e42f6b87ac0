package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Token audiences keep citizen and government credentials apart
const (
	AudienceCitizen    = "citizen"
	AudienceGovernment = "government"
)

const tokenIssuer = "civic-portal"

// ErrInvalidToken is returned for any token that fails verification
var ErrInvalidToken = errors.New("invalid or expired token")

type citizenClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type governmentClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens
type TokenIssuer struct {
	secret     []byte
	citizenTTL time.Duration
	govTTL     time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates an issuer for both token audiences
func NewTokenIssuer(secret string, citizenTTL, govTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		citizenTTL: citizenTTL,
		govTTL:     govTTL,
		now:        time.Now,
	}
}

func (t *TokenIssuer) registered(subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := t.now()
	return jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (t *TokenIssuer) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) parse(raw, audience string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithAudience(audience),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// IssueCitizen returns a bearer token for a citizen account
func (t *TokenIssuer) IssueCitizen(user *models.User) (string, error) {
	return t.sign(citizenClaims{
		Name:             user.Name,
		Email:            user.Email,
		Role:             AudienceCitizen,
		RegisteredClaims: t.registered(user.ID, AudienceCitizen, t.citizenTTL),
	})
}

// ParseCitizen verifies a citizen token. Government tokens are rejected.
func (t *TokenIssuer) ParseCitizen(raw string) (*models.CitizenIdentity, error) {
	var claims citizenClaims
	if err := t.parse(raw, AudienceCitizen, &claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &models.CitizenIdentity{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// IssueGovernment returns a short-lived bearer token for an official
func (t *TokenIssuer) IssueGovernment(official *models.Official) (string, error) {
	return t.sign(governmentClaims{
		Email:            official.Email,
		RegisteredClaims: t.registered(official.ID, AudienceGovernment, t.govTTL),
	})
}

// ParseGovernment verifies an official token. Citizen tokens are rejected.
func (t *TokenIssuer) ParseGovernment(raw string) (*models.OfficialIdentity, error) {
	var claims governmentClaims
	if err := t.parse(raw, AudienceGovernment, &claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &models.OfficialIdentity{ID: claims.Subject, Email: claims.Email}, nil
}
