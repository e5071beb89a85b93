package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func mustToken(t *testing.T, secret, issuer, userID string, ttl time.Duration) string {
	t.Helper()
	token, err := GenerateToken(secret, issuer, userID, userID+"@example.com", ttl)
	require.NoError(t, err)
	return token
}

func TestVerifier_VerifyHeader(t *testing.T) {
	valid := mustToken(t, testSecret, "synctask", "u1", time.Hour)

	tests := []struct {
		name    string
		header  string
		issuer  string
		wantErr bool
	}{
		{name: "valid token", header: "Bearer " + valid},
		{name: "valid token with issuer check", header: "Bearer " + valid, issuer: "synctask"},
		{name: "wrong issuer", header: "Bearer " + valid, issuer: "someone-else", wantErr: true},
		{name: "missing header", header: "", wantErr: true},
		{name: "not bearer", header: "Basic dXNlcjpwYXNz", wantErr: true},
		{name: "empty bearer", header: "Bearer ", wantErr: true},
		{name: "garbage", header: "Bearer not.a.jwt", wantErr: true},
		{name: "wrong secret", header: "Bearer " + mustToken(t, "other-secret", "synctask", "u1", time.Hour), wantErr: true},
		{name: "expired", header: "Bearer " + mustToken(t, testSecret, "synctask", "u1", -time.Minute), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(testSecret, tt.issuer, nil)
			caller, err := v.VerifyHeader(context.Background(), tt.header)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnauthenticated)
				assert.Nil(t, caller)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", caller.UserID)
			assert.Equal(t, "u1@example.com", caller.Email)
		})
	}
}

func TestVerifier_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u1",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewVerifier(testSecret, "", nil).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifier_RequiresSubject(t *testing.T) {
	token := mustToken(t, testSecret, "", "", time.Hour)
	_, err := NewVerifier(testSecret, "", nil).Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifier_Revocation_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	list := NewRedisRevocationList(client)
	v := NewVerifier(testSecret, "", list)
	token := mustToken(t, testSecret, "", "u1", time.Hour)

	_, err := v.Verify(context.Background(), token)
	require.NoError(t, err)

	require.NoError(t, list.Revoke(context.Background(), token, time.Hour))
	assert.True(t, mr.Exists("token:revoked:"+token))

	_, err = v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Contains(t, err.Error(), "token revoked")

	mr.FastForward(2 * time.Hour)
	_, err = v.Verify(context.Background(), token)
	assert.NoError(t, err)
}

func TestVerifier_Revocation_RedisErrorFailsClosed(t *testing.T) {
	client, mock := redismock.NewClientMock()
	token := mustToken(t, testSecret, "", "u1", time.Hour)
	mock.ExpectExists("token:revoked:" + token).SetErr(errors.New("connection refused"))

	_, err := NewVerifier(testSecret, "", NewRedisRevocationList(client)).Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Contains(t, err.Error(), "revocation check failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRevocationList_IsRevoked(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectExists("token:revoked:abc").SetVal(1)
	mock.ExpectExists("token:revoked:def").SetVal(0)

	list := NewRedisRevocationList(client)

	revoked, err := list.IsRevoked(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = list.IsRevoked(context.Background(), "def")
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.NoError(t, mock.ExpectationsWereMet())
}
