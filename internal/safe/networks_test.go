package safe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"eth:0xABCxyz", "0xABCxyz"},
		{"base:0x1000000000000000000000000000000000000001", "0x1000000000000000000000000000000000000001"},
		{"0x1000000000000000000000000000000000000001", "0x1000000000000000000000000000000000000001"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, NormalizeAddress(tt.in))
	}
}

func TestNetworkTag(t *testing.T) {
	tag, ok := NetworkTag("Base")
	require.True(t, ok)
	require.Equal(t, "base", tag)

	tag, ok = NetworkTag("Ethereum")
	require.True(t, ok)
	require.Equal(t, "eth", tag)

	_, ok = NetworkTag("dogecoin")
	require.False(t, ok)

	_, ok = NetworkTag("")
	require.False(t, ok)
}
