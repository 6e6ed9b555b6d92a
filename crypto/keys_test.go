package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	var raw [20]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	encoded := Bech32(raw)
	require.True(t, strings.HasPrefix(encoded, "rwd1"))

	decoded, err := ParseAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, decoded)
}

func TestParseAddressRejectsForeignPrefix(t *testing.T) {
	var raw [20]byte
	raw[0] = 9
	foreign := MustNewAddress(AddressPrefix("xyz"), raw[:]).String()
	_, err := ParseAddress(foreign)
	require.Error(t, err)
}

func TestNewAddressRejectsShortInput(t *testing.T) {
	_, err := NewAddress(RWDPrefix, []byte{1, 2, 3})
	require.Error(t, err)
}

func TestSignAndRecover(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	digest := Keccak256([]byte("payload"))
	sig, err := key.Sign(digest)
	require.NoError(t, err)

	recovered, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().Raw(), recovered)

	// legacy v offset is accepted
	legacy := append([]byte(nil), sig...)
	legacy[64] += 27
	recovered, err = RecoverAddress(digest, legacy)
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().Raw(), recovered)

	_, err = RecoverAddress(digest, sig[:10])
	require.Error(t, err)
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	restored, err := PrivateKeyFromBytes(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address(), restored.PubKey().Address())

	_, err = PrivateKeyFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}
