package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hafizmfadli/movies-api/internal/data"
)

var testSecret = []byte("a-long-enough-secret-for-hs256-signing")

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens(Config{Secret: testSecret, TokenTTL: time.Hour})
	require.NoError(t, err)
	return tokens
}

func issue(t *testing.T, tokens *Tokens, role data.Role) string {
	t.Helper()
	token, err := tokens.Issue(&data.User{ID: 1, Email: "test@test.com", Role: role})
	require.NoError(t, err)
	return token
}

func testTable() Table {
	return Table{
		"GET /v1/movies":      Public(),
		"GET /v1/movies/:id":  RequireRoles(data.RoleAdmin, data.RoleRegular),
		"POST /v1/movies":     RequireRoles(data.RoleAdmin),
		"GET /v1/profile":     Authenticated(),
		"GET /v1/empty-roles": {Roles: []data.Role{}},
	}
}

func TestNewTokensRejectsBadConfig(t *testing.T) {
	_, err := NewTokens(Config{TokenTTL: time.Hour})
	assert.Error(t, err)

	_, err = NewTokens(Config{Secret: testSecret})
	assert.Error(t, err)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := newTestTokens(t)

	claims, err := tokens.Verify(issue(t, tokens, data.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.ID)
	assert.Equal(t, "test@test.com", claims.Email)
	assert.Equal(t, data.RoleAdmin, claims.Role)
	assert.Equal(t, "1", claims.Subject)
}

func TestTokensVerifyFailures(t *testing.T) {
	tokens := newTestTokens(t)
	valid := issue(t, tokens, data.RoleRegular)

	other, err := NewTokens(Config{Secret: []byte("some-other-secret-entirely-different"), TokenTTL: time.Hour})
	require.NoError(t, err)
	_, err = other.Verify(valid)
	assert.Error(t, err, "wrong secret")

	expired := newTestTokens(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	_, err = tokens.Verify(issue(t, expired, data.RoleRegular))
	assert.Error(t, err, "expired")

	_, err = tokens.Verify("not.a.jwt")
	assert.Error(t, err, "malformed")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{ID: 1, Role: data.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Verify(unsigned)
	assert.Error(t, err, "alg none")

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{ID: 1, Role: data.Role("root"),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}})
	signed, err := forged.SignedString(testSecret)
	require.NoError(t, err)
	_, err = tokens.Verify(signed)
	assert.Error(t, err, "unknown role")
}

func TestGatePublicRouteIgnoresToken(t *testing.T) {
	gate := NewGate(newTestTokens(t), testTable())

	for _, header := range []string{"", "Bearer garbage", "Basic dXNlcjpwYXNz"} {
		claims, err := gate.Authorize("GET /v1/movies", header)
		assert.NoError(t, err, header)
		assert.Nil(t, claims, header)
	}
}

func TestGateMissingToken(t *testing.T) {
	gate := NewGate(newTestTokens(t), testTable())

	for _, header := range []string{"", "Bearer", "Bearer ", "Token abc", "bearer abc", "Bearer a b"} {
		_, err := gate.Authorize("GET /v1/movies/:id", header)
		assert.ErrorIs(t, err, ErrNoToken, header)
	}
}

func TestGateInvalidToken(t *testing.T) {
	gate := NewGate(newTestTokens(t), testTable())

	_, err := gate.Authorize("GET /v1/movies/:id", "Bearer invalid_token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, "invalid token", err.Error())
}

func TestGateRoles(t *testing.T) {
	tokens := newTestTokens(t)
	gate := NewGate(tokens, testTable())
	regular := "Bearer " + issue(t, tokens, data.RoleRegular)
	admin := "Bearer " + issue(t, tokens, data.RoleAdmin)

	tests := []struct {
		name    string
		route   string
		header  string
		wantErr error
	}{
		{"regular reads movie", "GET /v1/movies/:id", regular, nil},
		{"admin reads movie", "GET /v1/movies/:id", admin, nil},
		{"admin creates movie", "POST /v1/movies", admin, nil},
		{"regular cannot create movie", "POST /v1/movies", regular, ErrMissingRole},
		{"authenticated route accepts any role", "GET /v1/profile", regular, nil},
		{"empty role list accepts any role", "GET /v1/empty-roles", regular, nil},
		{"unknown route requires a token", "GET /v1/unknown", "", ErrNoToken},
		{"unknown route accepts any role", "GET /v1/unknown", regular, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := gate.Authorize(tt.route, tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, claims)
			assert.Equal(t, "test@test.com", claims.Email)
		})
	}
}

type stubVerifier struct {
	claims *Claims
	err    error
	calls  int
}

func (s *stubVerifier) Verify(string) (*Claims, error) {
	s.calls++
	return s.claims, s.err
}

func TestGateDoesNotVerifyOnPublicOrMissingToken(t *testing.T) {
	verifier := &stubVerifier{claims: &Claims{Role: data.RoleAdmin}}
	gate := NewGate(verifier, testTable())

	_, _ = gate.Authorize("GET /v1/movies", "Bearer token")
	_, _ = gate.Authorize("POST /v1/movies", "")
	assert.Zero(t, verifier.calls)

	_, err := gate.Authorize("POST /v1/movies", "Bearer token")
	assert.NoError(t, err)
	assert.Equal(t, 1, verifier.calls)
}
