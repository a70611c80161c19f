package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izonedevs/izonehub-api/internal/config"
)

func testTokens(t *testing.T) *Tokens {
	t.Helper()
	tok, err := NewTokens(config.Auth{
		SecretKey:                "test-secret-key-that-is-long-enough",
		Algorithm:                "HS256",
		AccessTokenExpireMinutes: 30,
		RefreshTokenExpireDays:   7,
	}, "izonehub-test")
	require.NoError(t, err)
	return tok
}

func TestPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", h)
	assert.True(t, CheckPassword(h, "admin123"))
	assert.False(t, CheckPassword(h, "admin124"))
}

func TestTokens_IssueAndParse(t *testing.T) {
	tok := testTokens(t)
	pair, err := tok.Issue(42, "admin")
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, 1800, pair.ExpiresIn)

	c, err := tok.Parse(pair.AccessToken, KindAccess)
	require.NoError(t, err)
	uid, err := c.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
	assert.Equal(t, "admin", c.Role)

	_, err = tok.Parse(pair.RefreshToken, KindAccess)
	assert.True(t, errors.Is(err, ErrTokenKind))

	_, err = tok.Parse(pair.RefreshToken, KindRefresh)
	assert.NoError(t, err)
}

func TestTokens_RejectsForeignSignature(t *testing.T) {
	a := testTokens(t)
	b, err := NewTokens(config.Auth{
		SecretKey: "a-different-secret-key-entirely", Algorithm: "HS256",
		AccessTokenExpireMinutes: 1, RefreshTokenExpireDays: 1,
	}, "other")
	require.NoError(t, err)

	pair, err := b.Issue(1, "member")
	require.NoError(t, err)
	_, err = a.Parse(pair.AccessToken, KindAccess)
	assert.Error(t, err)
}

func TestNewTokens_RejectsNonHMAC(t *testing.T) {
	_, err := NewTokens(config.Auth{SecretKey: "x", Algorithm: "RS256"}, "i")
	assert.Error(t, err)
}

func TestAuthenticateAndRequire(t *testing.T) {
	tok := testTokens(t)
	pair, err := tok.Issue(7, "member")
	require.NoError(t, err)

	h := Authenticate(tok)(Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserID(r.Context())
		assert.Equal(t, int64(7), id)
		assert.Equal(t, "member", Role(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"refresh as access", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"valid", "Bearer " + pair.AccessToken, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
