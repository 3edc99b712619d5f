package authtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)

	tests := []struct {
		name      string
		subjectID string
		role      string
	}{
		{"student with role", "665f1c2e8b3a4d0012345678", "student"},
		{"officer with role", "665f1c2e8b3a4d0012345679", "placement_officer"},
		{"subject without role hint", "665f1c2e8b3a4d001234567a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Sign(tt.subjectID, tt.role)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := codec.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, tt.subjectID, claims.SubjectID)
			assert.Equal(t, tt.role, claims.Role)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
		})
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	short := NewCodec("test-secret", time.Millisecond)
	token, err := short.Sign("665f1c2e8b3a4d0012345678", "student")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	claims, err := short.Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrExpiredToken)

	// The structural decode still works on expired tokens.
	decoded := short.Decode(token)
	require.NotNil(t, decoded)
	assert.Equal(t, "665f1c2e8b3a4d0012345678", decoded.SubjectID)
}

func TestVerifyFailsClosed(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	other := NewCodec("other-secret", time.Hour)

	valid, err := codec.Sign("665f1c2e8b3a4d0012345678", "student")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage", "not-a-token"},
		{"truncated", valid[:len(valid)/2]},
		{"wrong secret", mustSign(t, other, "665f1c2e8b3a4d0012345678")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.Verify(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestDecodeNeverVerifies(t *testing.T) {
	codec := NewCodec("test-secret", time.Hour)
	other := NewCodec("other-secret", time.Hour)

	// Decode returns claims even for a token signed with a different secret.
	token := mustSign(t, other, "665f1c2e8b3a4d0012345678")
	decoded := codec.Decode(token)
	require.NotNil(t, decoded)
	assert.Equal(t, "665f1c2e8b3a4d0012345678", decoded.SubjectID)

	// And nil for structurally broken input.
	assert.Nil(t, codec.Decode("broken"))
}

func mustSign(t *testing.T, codec *Codec, subjectID string) string {
	t.Helper()
	token, err := codec.Sign(subjectID, "student")
	require.NoError(t, err)
	return token
}
