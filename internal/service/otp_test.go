package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOtp(t *testing.T) {
	code, err := GenerateOtp()
	require.NoError(t, err)

	assert.Len(t, code, otpLength)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "код должен состоять из цифр: %q", code)
	}
}

func TestGenerateOtpVaries(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := GenerateOtp()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}

	// 50 подряд одинаковых кодов из миллиона вариантов — признак поломки.
	assert.Greater(t, len(seen), 1)
}
