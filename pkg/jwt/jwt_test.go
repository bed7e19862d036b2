package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	util := NewJWTUtil()

	token, err := util.GenerateToken("user1", "driver@example.com", "DRIVER", "Transports Nord")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user1", claims.UserID)
	assert.Equal(t, "driver@example.com", claims.Email)
	assert.Equal(t, "DRIVER", claims.Role)
	assert.Equal(t, "Transports Nord", claims.Company)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	util := NewJWTUtil()

	_, err := util.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	other := &JWTUtil{secretKey: []byte("some-other-secret"), expiry: time.Hour}

	token, err := other.GenerateToken("user1", "driver@example.com", "DRIVER", "Transports Nord")
	require.NoError(t, err)

	_, err = NewJWTUtil().ValidateToken(token)
	assert.Error(t, err)
}
