// internal/auth/tokens.go
//
// Signed bearer tokens.
//
// Context
// -------
// Login issues an access token and a refresh token, both HMAC-signed JWTs
// with the configured algorithm.  The `typ` claim keeps one from being used
// as the other.  Lifetimes come from `auth.access_token_expire_minutes` and
// `auth.refresh_token_expire_days`.

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/izonedevs/izonehub-api/internal/config"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// ErrTokenKind is returned when a refresh token is presented as access (or
// the reverse).
var ErrTokenKind = errors.New("auth: wrong token type")

// Claims carried in every token.
type Claims struct {
	Role string `json:"role"`
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Pair is the login/refresh response body.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Tokens issues and verifies tokens.  Safe for concurrent use.
type Tokens struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
}

// NewTokens builds a Tokens from the auth config section.
func NewTokens(cfg config.Auth, issuer string) (*Tokens, error) {
	m := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := m.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unsupported algorithm %q", cfg.Algorithm)
	}
	return &Tokens{
		secret:     []byte(cfg.SecretKey),
		method:     m,
		accessTTL:  time.Duration(cfg.AccessTokenExpireMinutes) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTokenExpireDays) * 24 * time.Hour,
		issuer:     issuer,
	}, nil
}

// Issue signs a fresh access/refresh pair for the user.
func (t *Tokens) Issue(userID int64, role string) (Pair, error) {
	access, err := t.sign(userID, role, KindAccess, t.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := t.sign(userID, role, KindRefresh, t.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(t.accessTTL.Seconds()),
	}, nil
}

func (t *Tokens) sign(userID int64, role, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
}

// Parse verifies signature, expiry, and token kind.
func (t *Tokens) Parse(raw, kind string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{t.method.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrTokenKind
	}
	return claims, nil
}
