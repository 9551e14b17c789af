package chain

// Asset is a token the assistant knows how to talk about. The registry feeds
// both the classifier's prompt and the proposer's decimal lookup.
type Asset struct {
	Symbol   string
	Address  string
	Decimals int32
}

// SupportedAssets are the stablecoins the shared wallet holds, on Base.
var SupportedAssets = []Asset{
	{Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
	{Symbol: "USDT", Address: "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2", Decimals: 6},
}

// LookupAsset finds a supported asset by contract address, case-insensitively.
func LookupAsset(address string) (Asset, bool) {
	for _, a := range SupportedAssets {
		if equalAddress(a.Address, address) {
			return a, true
		}
	}
	return Asset{}, false
}
