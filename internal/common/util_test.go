package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWipeByteArray(t *testing.T) {
	seed := []byte("SBGWSG6BTNCKCOB3DIFBGCVMUPQFYPA2G4O34RMTB343OYPXU5DJDVMN")
	WipeByteArray(seed)
	assert.Equal(t, make([]byte, len(seed)), seed)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestGenerateRandByteArray(t *testing.T) {
	for _, n := range []int{0, 16, 32} {
		buf := GenerateRandByteArray(n)
		require.Len(t, buf, n)
	}

	a := GenerateRandByteArray(32)
	b := GenerateRandByteArray(32)
	assert.NotEqual(t, a, b, "two 32 byte draws should differ")
}
