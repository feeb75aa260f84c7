package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec, err := NewCodec("")
	require.NoError(t, err)

	sealed, err := codec.Encrypt("s3cret-passw0rd")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-passw0rd", sealed)

	assert.Equal(t, "s3cret-passw0rd", codec.Decrypt(sealed))
}

func TestDecryptPassesThroughPlaintext(t *testing.T) {
	codec, err := NewCodec("")
	require.NoError(t, err)

	// Not base64 at all.
	assert.Equal(t, "plain password!", codec.Decrypt("plain password!"))

	// Valid base64 but not an RSA envelope.
	assert.Equal(t, "aGVsbG8=", codec.Decrypt("aGVsbG8="))
}

func TestPublicKeyExport(t *testing.T) {
	codec, err := NewCodec("")
	require.NoError(t, err)

	pub, err := codec.PublicKeyBase64()
	require.NoError(t, err)
	assert.NotEmpty(t, pub)
}
