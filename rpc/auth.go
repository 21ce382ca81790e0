package rpc

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"potlottery/crypto"
	"potlottery/native/lottery"
)

const minSecretBytes = 32

var (
	errMissingBearer = errors.New("missing bearer token")
	errBadSubject    = errors.New("token subject is not a lottery address")
)

// AuthConfig describes how bearer tokens are verified.
type AuthConfig struct {
	HMACSecret string
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

// Authenticator verifies HS256 bearer tokens and resolves the caller from the
// subject claim.
type Authenticator struct {
	cfg    AuthConfig
	secret []byte
	parser *jwt.Parser
}

func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	secret := []byte(strings.TrimSpace(cfg.HMACSecret))
	if len(secret) < minSecretBytes {
		return nil, errors.New("rpc: auth secret must be at least 32 bytes")
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 30 * time.Second
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.ClockSkew),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Authenticator{cfg: cfg, secret: secret, parser: jwt.NewParser(opts...)}, nil
}

// Authenticate returns the identity named by the request's bearer token.
func (a *Authenticator) Authenticate(r *http.Request) (lottery.Identity, error) {
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return lottery.Identity{}, errMissingBearer
	}
	claims := &jwt.RegisteredClaims{}
	token, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return lottery.Identity{}, err
	}
	if !token.Valid {
		return lottery.Identity{}, errors.New("token invalid")
	}
	addr, err := crypto.DecodeAddress(claims.Subject)
	if err != nil || addr.Prefix() != crypto.LotteryPrefix || addr.IsZero() {
		return lottery.Identity{}, errBadSubject
	}
	return addr.Array(), nil
}

// IssueToken signs a token for subject valid for ttl. It is used by the
// operator CLI and tests.
func IssueToken(cfg AuthConfig, subject crypto.Address, ttl time.Duration, now time.Time) (string, error) {
	secret := []byte(strings.TrimSpace(cfg.HMACSecret))
	if len(secret) < minSecretBytes {
		return "", errors.New("rpc: auth secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		return "", errors.New("rpc: token ttl must be positive")
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject.String(),
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
