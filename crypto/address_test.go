package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0xAB}, AddressLength)
	addr, err := NewAddress(LotteryPrefix, raw)
	require.NoError(t, err)

	encoded := addr.String()
	require.True(t, strings.HasPrefix(encoded, "lot1"))

	decoded, err := DecodeAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, addr.Array(), decoded.Array())
	require.Equal(t, raw, decoded.Bytes())
}

func TestDecodeAddressRejectsForeignPrefix(t *testing.T) {
	raw := bytes.Repeat([]byte{0x01}, AddressLength)
	foreign, err := NewAddress(AddressPrefix("cosmos"), raw)
	require.NoError(t, err)

	_, err = DecodeAddress(foreign.String())
	require.Error(t, err)
}

func TestNewAddressLength(t *testing.T) {
	_, err := NewAddress(LotteryPrefix, []byte{0x01, 0x02})
	require.Error(t, err)
}

func TestModuleAddressIsStable(t *testing.T) {
	first := ModuleAddress("lottery")
	second := ModuleAddress("lottery")
	require.Equal(t, first.Array(), second.Array())
	require.False(t, first.IsZero())
	require.NotEqual(t, first.Array(), ModuleAddress("token").Array())
}

func TestGeneratedKeyAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	restored, err := PrivateKeyFromBytes(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().String(), restored.PubKey().Address().String())
}
