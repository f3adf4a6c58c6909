package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo-labs/akuntansid/internal/apperror"
)

func TestPasswordHashAndVerify(t *testing.T) {
	encoded, err := HashPassword("rahasia-123")
	require.NoError(t, err)
	assert.Contains(t, encoded, "$argon2id$")

	ok, err := VerifyPassword("rahasia-123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("salah", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHashesAreSalted(t *testing.T) {
	first, err := HashPassword("rahasia-123")
	require.NoError(t, err)
	second, err := HashPassword("rahasia-123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("x", "not-a-hash")
	assert.Error(t, err)

	_, err = VerifyPassword("x", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	assert.Error(t, err)
}

func testUser() TokenUser {
	return TokenUser{
		ID:        "user-1",
		CompanyID: "co-1",
		Email:     "akun@saldo.id",
		FullName:  "Akuntan Satu",
	}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)
	assert.NotEqual(t, pair.AccessJTI, pair.RefreshJTI)

	claims, err := issuer.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "co-1", claims.CompanyID)
	assert.Equal(t, "akun@saldo.id", claims.Email)
	assert.Equal(t, pair.AccessJTI, claims.ID)

	refresh, err := issuer.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refresh.UserID)
	assert.Equal(t, pair.RefreshJTI, refresh.ID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	pair, err := NewTokenIssuer("secret", time.Hour, 24*time.Hour).IssuePair(testUser())
	require.NoError(t, err)

	other := NewTokenIssuer("different", time.Hour, 24*time.Hour)
	_, err = other.VerifyAccess(pair.AccessToken)
	assert.True(t, apperror.IsUnauthenticated(err))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.VerifyAccess(pair.AccessToken)
	assert.True(t, apperror.IsUnauthenticated(err))
}

func TestVerifyRejectsRefreshAsAccess(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)

	// A refresh token carries no subject or company, so the access
	// verifier must refuse it even though the signature checks out.
	_, err = issuer.VerifyAccess(pair.RefreshToken)
	assert.True(t, apperror.IsUnauthenticated(err))
}

func TestCachingVerifier(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	verifier, err := NewCachingVerifier(issuer, 16)
	require.NoError(t, err)

	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		claims, err := verifier.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID())
	}

	stats := verifier.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	// Failures are never cached.
	_, err = verifier.VerifyAccess("garbage")
	assert.Error(t, err)
	_, err = verifier.VerifyAccess("garbage")
	assert.Error(t, err)
	assert.Equal(t, 1, verifier.Stats().Len)
}

func TestTokenCacheExpiryRecheck(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute, 24*time.Hour)
	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)
	claims, err := issuer.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	cache, err := NewTokenCache(16)
	require.NoError(t, err)
	cache.Put(pair.AccessToken, claims)

	_, found := cache.Get(pair.AccessToken)
	assert.True(t, found)

	// Once the token itself expires the cached verdict dies with it.
	cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, found = cache.Get(pair.AccessToken)
	assert.False(t, found)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := BearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	_, ok = BearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, ok := BearerToken(req)
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	req.Header.Set("Authorization", "bearer abc.def.ghi")
	_, ok = BearerToken(req)
	assert.True(t, ok, "scheme comparison is case-insensitive")
}

func TestMiddlewareForwardedIdentity(t *testing.T) {
	var got Identity
	handler := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set(HeaderUserID, "user-1")
	req.Header.Set(HeaderCompanyID, "co-1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "co-1", got.CompanyID)
}

func TestMiddlewareRejectsPartialForwardedIdentity(t *testing.T) {
	handler := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set(HeaderUserID, "user-1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareBearerFallback(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, 24*time.Hour)
	pair, err := issuer.IssuePair(testUser())
	require.NoError(t, err)

	var got Identity
	handler := Middleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "co-1", got.CompanyID)

	// No identity at all.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMustIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := MustIdentity(req.Context())
	assert.True(t, apperror.IsUnauthenticated(err))

	ctx := WithIdentity(req.Context(), Identity{UserID: "user-1", CompanyID: "co-1"})
	id, err := MustIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
}
