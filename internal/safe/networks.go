package safe

import "strings"

// Queue-link tags used by the external approval UI, keyed by the network
// names users actually type.
var networkTags = map[string]string{
	"base":     "base",
	"ethereum": "eth",
	"eth":      "eth",
	"mainnet":  "eth",
	"sepolia":  "sep",
}

// NetworkTag maps a user-supplied network name to its approval-UI tag.
func NetworkTag(network string) (string, bool) {
	tag, ok := networkTags[strings.ToLower(strings.TrimSpace(network))]
	return tag, ok
}

// NormalizeAddress strips a chain-prefix qualifier, turning "eth:0xABC" into
// "0xABC". Addresses without a prefix pass through unchanged.
func NormalizeAddress(address string) string {
	if i := strings.IndexByte(address, ':'); i >= 0 {
		return address[i+1:]
	}
	return address
}
