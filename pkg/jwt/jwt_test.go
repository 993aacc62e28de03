package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RoundTrip(t *testing.T) {
	svc := NewService("secret", "mtb-results", time.Hour)

	token, err := svc.GenerateToken("uploader", RoleImporter, 0)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uploader", claims.Subject)
	assert.Equal(t, "mtb-results", claims.Issuer)
	assert.Equal(t, string(RoleImporter), claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestService_GenerateToken_Rejects(t *testing.T) {
	svc := NewService("secret", "mtb-results", time.Hour)

	_, err := svc.GenerateToken("", RoleAdmin, time.Minute)
	require.Error(t, err)

	_, err = svc.GenerateToken("someone", Role("owner"), time.Minute)
	require.Error(t, err)
}

func TestService_ValidateToken_Errors(t *testing.T) {
	svc := NewService("secret", "mtb-results", time.Hour)

	expired := &service{
		secret:     []byte("secret"),
		issuer:     "mtb-results",
		defaultTTL: time.Hour,
		now:        func() time.Time { return time.Now().Add(-2 * time.Hour) },
	}
	expiredToken, err := expired.GenerateToken("old", RoleViewer, time.Hour)
	require.NoError(t, err)

	otherSecret, err := NewService("other", "mtb-results", time.Hour).GenerateToken("x", RoleAdmin, time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewService("secret", "someone-else", time.Hour).GenerateToken("x", RoleAdmin, time.Hour)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &APIClaims{Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "expired", token: expiredToken, wantErr: ErrExpiredToken},
		{name: "wrong secret", token: otherSecret, wantErr: ErrInvalidSignature},
		{name: "wrong issuer", token: otherIssuer, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not-a-token", wantErr: ErrInvalidToken},
		{name: "none algorithm", token: noneToken, wantErr: ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestRole(t *testing.T) {
	assert.True(t, RoleAdmin.CanWrite())
	assert.True(t, RoleImporter.CanWrite())
	assert.False(t, RoleViewer.CanWrite())
	assert.False(t, Role("").Valid())
}
