package safe

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// OperationCall is the only operation this service proposes; delegatecalls are
// never built here.
const OperationCall uint8 = 0

// SafeTx is the canonical multisig transaction record that gets hashed,
// signed, and proposed. Integer fields are decimal strings because that is
// what both the EIP-712 encoder and the transaction service consume.
type SafeTx struct {
	To             string
	Value          string
	Data           string // 0x-prefixed calldata
	Operation      uint8
	SafeTxGas      string
	BaseGas        string
	GasPrice       string
	GasToken       string
	RefundReceiver string
	Nonce          int64
}

// TxHash computes the EIP-712 safe transaction hash that every owner signs.
func TxHash(chainID *big.Int, safeAddress common.Address, tx *SafeTx) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"SafeTx": {
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "data", Type: "bytes"},
				{Name: "operation", Type: "uint8"},
				{Name: "safeTxGas", Type: "uint256"},
				{Name: "baseGas", Type: "uint256"},
				{Name: "gasPrice", Type: "uint256"},
				{Name: "gasToken", Type: "address"},
				{Name: "refundReceiver", Type: "address"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: "SafeTx",
		Domain: apitypes.TypedDataDomain{
			ChainId:           (*math.HexOrDecimal256)(chainID),
			VerifyingContract: safeAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"to":             tx.To,
			"value":          tx.Value,
			"data":           tx.Data,
			"operation":      strconv.Itoa(int(tx.Operation)),
			"safeTxGas":      tx.SafeTxGas,
			"baseGas":        tx.BaseGas,
			"gasPrice":       tx.GasPrice,
			"gasToken":       tx.GasToken,
			"refundReceiver": tx.RefundReceiver,
			"nonce":          strconv.FormatInt(tx.Nonce, 10),
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash safe transaction: %w", err)
	}
	return hash, nil
}
