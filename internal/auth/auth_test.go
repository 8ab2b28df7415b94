package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestStaticVerifier(t *testing.T) {
	v, err := NewStaticVerifier([]config.StaticUser{
		{Username: "admin", Password: "admin123", Role: "admin", Name: "Administrator"},
		{Username: "staff", Password: "staff123", Role: "staff"},
	})
	require.NoError(t, err)
	ctx := context.Background()

	identity, err := v.Verify(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, Identity{Username: "admin", Name: "Administrator", Role: "admin"}, identity)
	assert.True(t, identity.IsAdmin())

	identity, err = v.Verify(ctx, "staff", "staff123")
	require.NoError(t, err)
	assert.Equal(t, "staff", identity.Name)
	assert.False(t, identity.IsAdmin())

	_, err = v.Verify(ctx, "admin", "wrong")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = v.Verify(ctx, "ghost", "")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestStaticVerifierRejectsUnknownRole(t *testing.T) {
	_, err := NewStaticVerifier([]config.StaticUser{{Username: "barista", Password: "x", Role: "owner"}})
	assert.Error(t, err)
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	want := Identity{Username: "staff", Name: "Staff", Role: "staff"}

	token, err := issuer.Issue(want)
	require.NoError(t, err)

	got, err := issuer.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	ctx := context.Background()

	t.Run("expired", func(t *testing.T) {
		past := NewTokenIssuer("test-secret", time.Hour)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.Issue(Identity{Username: "staff", Role: "staff"})
		require.NoError(t, err)

		_, err = issuer.Authenticate(ctx, token)
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	})

	t.Run("other secret", func(t *testing.T) {
		token, err := NewTokenIssuer("other-secret", time.Hour).Issue(Identity{Username: "admin", Role: "admin"})
		require.NoError(t, err)

		_, err = issuer.Authenticate(ctx, token)
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := &Claims{
			Username: "admin",
			Role:     "admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Authenticate(ctx, token)
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	})

	t.Run("unknown role", func(t *testing.T) {
		token, err := issuer.Issue(Identity{Username: "owner", Role: "owner"})
		require.NoError(t, err)

		_, err = issuer.Authenticate(ctx, token)
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Authenticate(ctx, "not-a-token")
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	})
}

type stubAuthenticator struct {
	identity Identity
	err      error
}

func (s stubAuthenticator) Authenticate(context.Context, string) (Identity, error) {
	return s.identity, s.err
}

func TestGate(t *testing.T) {
	ctx := context.Background()
	staff := Identity{Username: "staff", Role: "staff"}

	gate := NewGate(
		stubAuthenticator{err: apperr.Authentication("nope")},
		stubAuthenticator{identity: staff},
	)

	got, err := gate.Authenticate(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, staff, got)

	_, err = gate.Authenticate(ctx, "  ")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = NewGate(stubAuthenticator{err: apperr.Authentication("nope")}).Authenticate(ctx, "token")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestGateKeepsFailureCauses(t *testing.T) {
	ctx := context.Background()
	expired := errors.New("token is expired")
	wrongKey := errors.New("failed to verify signature")

	_, err := NewGate(
		stubAuthenticator{err: errInvalidToken(expired)},
		stubAuthenticator{err: errInvalidToken(wrongKey)},
	).Authenticate(ctx, "token")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	assert.Equal(t, "invalid or expired token", apperr.PublicMessage(err))
	assert.ErrorIs(t, err, expired)
	assert.ErrorIs(t, err, wrongKey)
}

func TestGateReturnsProviderFailures(t *testing.T) {
	ctx := context.Background()
	unreachable := errors.New("fetching keys: dial tcp 10.0.0.1:443: connect: connection refused")
	staff := Identity{Username: "staff", Role: "staff"}

	_, err := NewGate(
		stubAuthenticator{err: errInvalidToken(nil)},
		stubAuthenticator{err: unreachable},
		stubAuthenticator{identity: staff},
	).Authenticate(ctx, "token")
	require.Error(t, err)
	assert.ErrorIs(t, err, unreachable)
	assert.NotEqual(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestTokenIssuerRejectionCarriesCause(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	_, err := issuer.Authenticate(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

const testIssuer = "https://id.example.test"

func newTestOIDC(t *testing.T) (*OIDCAuthenticator, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	verifier := oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: "cafe-pos"})

	return NewOIDCAuthenticatorWithVerifier(verifier, "roles"), key
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	base := jwt.MapClaims{
		"iss": testIssuer,
		"aud": "cafe-pos",
		"sub": "user-123",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, base).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestOIDCAuthenticator(t *testing.T) {
	authn, key := newTestOIDC(t)
	ctx := context.Background()

	token := signIDToken(t, key, jwt.MapClaims{
		"preferred_username": "mai",
		"name":               "Mai Tran",
		"roles":              []string{"staff", "admin"},
	})
	identity, err := authn.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, Identity{Username: "mai", Name: "Mai Tran", Role: "admin"}, identity)

	token = signIDToken(t, key, jwt.MapClaims{"roles": "staff"})
	identity, err = authn.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, Identity{Username: "user-123", Name: "user-123", Role: "staff"}, identity)

	token = signIDToken(t, key, jwt.MapClaims{"roles": []string{"customer"}})
	_, err = authn.Authenticate(ctx, token)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	token = signIDToken(t, key, jwt.MapClaims{"roles": "admin", "aud": "someone-else"})
	_, err = authn.Authenticate(ctx, token)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = authn.Authenticate(ctx, "malformed")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func setupAccountStore(t *testing.T) *AccountStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&StaffAccount{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewAccountStore(db)
}

func TestAccountStore(t *testing.T) {
	store := setupAccountStore(t)
	ctx := context.Background()

	created, err := store.EnsureAccount(ctx, "admin", "admin123", "admin", "Administrator")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureAccount(ctx, "admin", "changed", "staff", "Someone")
	require.NoError(t, err)
	assert.False(t, created)

	identity, err := store.Verify(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, Identity{Username: "admin", Name: "Administrator", Role: "admin"}, identity)

	_, err = store.Verify(ctx, "admin", "changed")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = store.Verify(ctx, "nobody", "admin123")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = store.EnsureAccount(ctx, "owner", "pw", "owner", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAccountStoreNeverStoresPlaintext(t *testing.T) {
	store := setupAccountStore(t)

	_, err := store.EnsureAccount(context.Background(), "staff", "staff123", "staff", "")
	require.NoError(t, err)

	var account StaffAccount
	require.NoError(t, store.db.Where("username = ?", "staff").First(&account).Error)
	assert.NotEqual(t, "staff123", account.PasswordHash)
	assert.NotEmpty(t, account.PasswordHash)
}
