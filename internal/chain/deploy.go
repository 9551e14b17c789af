package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Canonical v1.3.0 Safe deployment addresses, identical across supported
// networks thanks to deterministic deployment.
var (
	safeProxyFactory    = common.HexToAddress("0xa6B71E26C5e0845f74c812102Ca7114b6a896AB2")
	safeL2Singleton     = common.HexToAddress("0x3E5c63644E683549055b9Be8653de26E0B4CD36E")
	safeFallbackHandler = common.HexToAddress("0xf48f2B2d2a534e402487b3ee7C18c33Aec0Fe5e4")
)

const safeSetupABI = `[
  {"inputs":[
    {"name":"_owners","type":"address[]"},
    {"name":"_threshold","type":"uint256"},
    {"name":"to","type":"address"},
    {"name":"data","type":"bytes"},
    {"name":"fallbackHandler","type":"address"},
    {"name":"paymentToken","type":"address"},
    {"name":"payment","type":"uint256"},
    {"name":"paymentReceiver","type":"address"}],
   "name":"setup","outputs":[],"type":"function"}
]`

const proxyFactoryABI = `[
  {"inputs":[
    {"name":"_singleton","type":"address"},
    {"name":"initializer","type":"bytes"},
    {"name":"saltNonce","type":"uint256"}],
   "name":"createProxyWithNonce","outputs":[{"name":"proxy","type":"address"}],"type":"function"}
]`

var (
	safeSetup    = mustParseABI(safeSetupABI)
	proxyFactory = mustParseABI(proxyFactoryABI)
)

// DeploymentTransaction is an unsigned transaction the caller's own wallet
// submits to deploy a new multisig.
type DeploymentTransaction struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

// EncodeSafeDeployment builds the proxy-factory call that deploys a fresh
// multisig with the given owners and signature threshold.
func EncodeSafeDeployment(owners []common.Address, threshold int64, saltNonce *big.Int) (*DeploymentTransaction, error) {
	if len(owners) == 0 {
		return nil, fmt.Errorf("at least one owner is required")
	}
	if threshold < 1 || threshold > int64(len(owners)) {
		return nil, fmt.Errorf("threshold %d out of range for %d owners", threshold, len(owners))
	}

	initializer, err := safeSetup.Pack("setup",
		owners,
		big.NewInt(threshold),
		common.Address{},
		[]byte{},
		safeFallbackHandler,
		common.Address{},
		big.NewInt(0),
		common.Address{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode setup call: %w", err)
	}

	data, err := proxyFactory.Pack("createProxyWithNonce", safeL2Singleton, initializer, saltNonce)
	if err != nil {
		return nil, fmt.Errorf("failed to encode factory call: %w", err)
	}

	return &DeploymentTransaction{
		To:    safeProxyFactory.Hex(),
		Value: "0",
		Data:  hexutil.Encode(data),
	}, nil
}
