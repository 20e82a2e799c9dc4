package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklistedToken_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		token   BlacklistedToken
		expired bool
	}{
		{
			name:    "token not expired",
			token:   BlacklistedToken{ExpiresAt: time.Now().Add(time.Hour)},
			expired: false,
		},
		{
			name:    "token expired",
			token:   BlacklistedToken{ExpiresAt: time.Now().Add(-time.Hour)},
			expired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, tt.token.IsExpired())
		})
	}
}

func TestBlacklistedToken_BeforeCreate(t *testing.T) {
	token := BlacklistedToken{JTI: uuid.NewString(), UserID: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, token.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, token.ID)
	assert.False(t, token.BlacklistedAt.IsZero())
}
