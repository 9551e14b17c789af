// Package chain wraps the RPC-side concerns of the pipeline: ERC-20 reads and
// call encoding, base-unit conversion, and recipient name resolution.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	ens "github.com/wealdtech/go-ens/v3"
	"go.uber.org/zap"
)

const erc20ABI = `[
  {"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
  {"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
  {"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

var erc20 = mustParseABI(erc20ABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Client reads from the chain over a single RPC endpoint.
type Client struct {
	eth    *ethclient.Client
	logger *zap.Logger
}

func New(rpcURL string, logger *zap.Logger) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}
	return &Client{eth: eth, logger: logger}, nil
}

// ERC20BalanceOf reads the holder's balance of the token, in base units.
func (c *Client) ERC20BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	data, err := erc20.Pack("balanceOf", holder)
	if err != nil {
		return nil, err
	}
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}
	results, err := erc20.Unpack("balanceOf", out)
	if err != nil {
		return nil, err
	}
	return results[0].(*big.Int), nil
}

// ERC20Decimals reads the token's declared decimal precision.
func (c *Client) ERC20Decimals(ctx context.Context, token common.Address) (int32, error) {
	data, err := erc20.Pack("decimals")
	if err != nil {
		return 0, err
	}
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("decimals call failed: %w", err)
	}
	results, err := erc20.Unpack("decimals", out)
	if err != nil {
		return 0, err
	}
	return int32(results[0].(uint8)), nil
}

// ResolveRecipient turns a transfer target into an address. Names ending in
// .eth go through the naming service; a failed resolution falls back to the
// literal string, which then has to be a hex address.
func (c *Client) ResolveRecipient(ctx context.Context, target string) (common.Address, error) {
	if strings.HasSuffix(strings.ToLower(target), ".eth") {
		resolved, err := ens.Resolve(c.eth, target)
		if err == nil {
			return resolved, nil
		}
		c.logger.Warn("name resolution failed, falling back to literal recipient",
			zap.String("target", target),
			zap.Error(err))
	}
	if !common.IsHexAddress(target) {
		return common.Address{}, fmt.Errorf("recipient %q is not a valid address", target)
	}
	return common.HexToAddress(target), nil
}

// EncodeTransfer builds the calldata for transfer(recipient, amount).
func EncodeTransfer(recipient common.Address, amount *big.Int) ([]byte, error) {
	return erc20.Pack("transfer", recipient, amount)
}

// ToBaseUnits converts a human-entered decimal amount into integer base units
// at the given precision. "100" at 6 decimals becomes 100000000.
func ToBaseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("amount %q is not a decimal number", amount)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s has more precision than the asset's %d decimals", amount, decimals)
	}
	return scaled.BigInt(), nil
}

func equalAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
