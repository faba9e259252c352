package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewRejectsBadKeys(t *testing.T) {
	_, err := New("abc")
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = New(strings.Repeat("zz", 32))
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)

	sealed, err := c.Encrypt("11987654321")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(sealed))
	assert.NotContains(t, sealed, "11987654321")

	again, err := c.Encrypt("11987654321")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "11987654321", plain)

	_, err = c.Encrypt("")
	require.ErrorIs(t, err, ErrEmpty)
}

func TestDecryptDetectsTampering(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)
	other, err := GenerateKey()
	require.NoError(t, err)
	c2, err := New(other)
	require.NoError(t, err)

	sealed, err := c.Encrypt("secret")
	require.NoError(t, err)
	_, err = c2.Decrypt(sealed)
	require.Error(t, err)

	_, err = c.Decrypt("no-separator")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestFieldsHelpers(t *testing.T) {
	c, err := New(testKey)
	require.NoError(t, err)

	sealed, err := c.EncryptFields(map[string]string{"whatsapp": "11987654321", "email": ""})
	require.NoError(t, err)
	assert.Equal(t, "", sealed["email"])
	assert.True(t, IsEncrypted(sealed["whatsapp"]))

	sealed["legacy"] = "plain value"
	sealed["broken"] = "AAAA:BBBB"
	opened := c.DecryptFields(sealed)
	assert.Equal(t, "11987654321", opened["whatsapp"])
	assert.Equal(t, "plain value", opened["legacy"])
	assert.Equal(t, "AAAA:BBBB", opened["broken"])
}

func TestIsEncrypted(t *testing.T) {
	assert.False(t, IsEncrypted(""))
	assert.False(t, IsEncrypted("+5511987654321"))
	assert.False(t, IsEncrypted("a:b:c"))
	assert.True(t, IsEncrypted("YWJj:ZGVm"))
}
