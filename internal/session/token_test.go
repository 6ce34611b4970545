package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretHashRoundTrip(t *testing.T) {
	hash, err := hashSecret("s3cret", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, compareSecret(hash, "s3cret"))
	assert.Error(t, compareSecret(hash, "wrong"))
}
