package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ticket-stats/internal/logger"
	"ms-ticket-stats/internal/models"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisTokenCacheRoundTrip(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewRedisTokenCache(client)
	ctx := context.Background()

	cached, err := cache.GetToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)

	require.NoError(t, cache.SetToken(ctx, "abc", 300))
	cached, err = cache.GetToken(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "abc", cached.Token)
	assert.Equal(t, 360*time.Second, mr.TTL(M2MTokenKey))
}

func TestRedisTokenCacheIgnoresTokenNearExpiry(t *testing.T) {
	_, client := newRedis(t)
	cache := NewRedisTokenCache(client)
	ctx := context.Background()

	require.NoError(t, cache.SetToken(ctx, "abc", 300))

	cache.now = func() time.Time { return time.Now().Add(250 * time.Second) }
	cached, err := cache.GetToken(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestRedisTokenCacheWithoutClient(t *testing.T) {
	cache := &RedisTokenCache{}
	_, err := cache.GetToken(context.Background())
	assert.Error(t, err)
}

func keycloakServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/realms/ticketing/protocol/openid-connect/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "ticket-stats", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.TokenResponse{AccessToken: "m2m-token", ExpiresIn: 300, TokenType: "Bearer"})
	}))
}

func TestTokenSourceCachesToken(t *testing.T) {
	var calls int32
	kc := keycloakServer(t, &calls)
	defer kc.Close()
	_, client := newRedis(t)

	src := &TokenSource{
		Config: models.KeycloakConfig{KeycloakURL: kc.URL, KeycloakRealm: "ticketing", ClientID: "ticket-stats", ClientSecret: "s3cret"},
		Client: kc.Client(),
		Cache:  NewRedisTokenCache(client),
		Logger: testLogger(),
	}

	for i := 0; i < 3; i++ {
		token, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "m2m-token", token)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTokenSourceWithoutCache(t *testing.T) {
	var calls int32
	kc := keycloakServer(t, &calls)
	defer kc.Close()

	src := &TokenSource{
		Config: models.KeycloakConfig{KeycloakURL: kc.URL, KeycloakRealm: "ticketing", ClientID: "ticket-stats"},
		Client: kc.Client(),
		Logger: testLogger(),
	}

	_, err := src.Token(context.Background())
	require.NoError(t, err)
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenSourceRejected(t *testing.T) {
	kc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized_client"}`, http.StatusUnauthorized)
	}))
	defer kc.Close()

	src := &TokenSource{
		Config: models.KeycloakConfig{KeycloakURL: kc.URL, KeycloakRealm: "ticketing"},
		Client: kc.Client(),
		Logger: testLogger(),
	}
	_, err := src.Token(context.Background())
	assert.Error(t, err)
}

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

func TestVerifyEventOwnership(t *testing.T) {
	owner := uuid.New().String()
	events := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/v1/events/verify-ownership", r.URL.Path)
		assert.Equal(t, "Bearer m2m", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("eventId") {
		case "1":
			json.NewEncoder(w).Encode(r.URL.Query().Get("userId") == owner)
		case "2":
			w.Write([]byte(`{"isOwner":true}`))
		case "3":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer events.Close()

	v := &OwnershipVerifier{BaseURL: events.URL + "/", Tokens: staticTokens("m2m"), Client: events.Client(), Logger: testLogger()}
	ctx := context.Background()

	assert.NoError(t, v.VerifyEventOwnership(ctx, 1, owner))
	assert.ErrorIs(t, v.VerifyEventOwnership(ctx, 1, uuid.New().String()), ErrNotOwner)
	assert.NoError(t, v.VerifyEventOwnership(ctx, 2, owner))
	assert.ErrorIs(t, v.VerifyEventOwnership(ctx, 3, owner), ErrNotOwner)

	err := v.VerifyEventOwnership(ctx, 4, owner)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotOwner)
}

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestMiddlewareHS256(t *testing.T) {
	const secret = "super-secret-jwt-token"
	userID := uuid.New().String()

	var seen string
	h := Middleware(NewHS256Verifier(secret), testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad scheme", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signHS256(t, "other", jwt.MapClaims{"sub": userID, "exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized},
		{"expired", "Bearer " + signHS256(t, secret, jwt.MapClaims{"sub": userID, "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signHS256(t, secret, jwt.MapClaims{"sub": userID}), http.StatusUnauthorized},
		{"valid", "Bearer " + signHS256(t, secret, jwt.MapClaims{"sub": userID, "exp": time.Now().Add(time.Hour).Unix()}), http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodPost, "/functions/v1/get-sold-tickets-stat", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, userID, seen)
			} else {
				assert.Empty(t, seen)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestUserIDMissing(t *testing.T) {
	assert.Equal(t, "", UserID(context.Background()))
	assert.Equal(t, "u1", UserID(WithUserID(context.Background(), "u1")))
}
