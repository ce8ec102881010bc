package middleware

import (
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeCacheMiss(t *testing.T) {
	// A miss is not an error for fiber.Storage
	val, err := normalizeCacheMiss(nil, redis.Nil)
	assert.NoError(t, err)
	assert.Nil(t, val)

	// Real errors pass through
	boom := errors.New("connection refused")
	_, err = normalizeCacheMiss(nil, boom)
	assert.Equal(t, boom, err)

	// Hits pass through untouched
	val, err = normalizeCacheMiss([]byte("3"), nil)
	assert.NoError(t, err)
	assert.Equal(t, []byte("3"), val)
}
