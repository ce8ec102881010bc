package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRateLimitKey(t *testing.T) {
	key := GenerateRateLimitKey(42, "/api/v1/collaborations")
	assert.Equal(t, "rl:42:/api/v1/collaborations", key)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$500.00", FormatMoney(50000, "usd"))
	assert.Equal(t, "$0.99", FormatMoney(99, "USD"))
	assert.Equal(t, "150.00", FormatMoney(15000, "eur"))
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP()
	require.NoError(t, err)
	require.Len(t, otp, OTPLength)
	for _, r := range otp {
		assert.True(t, r >= '0' && r <= '9', "OTP must be digits only, got %q", otp)
	}
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken()
	require.NoError(t, err)
	b, err := GenerateSecureToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestPointer(t *testing.T) {
	v := Pointer("hello")
	require.NotNil(t, v)
	assert.Equal(t, "hello", *v)
}
