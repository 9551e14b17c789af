package safe

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the agent's delegated owner key. It is one of the two owners of
// every shared wallet this service operates on; the key comes from
// configuration, never from user input.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

func NewSigner(privateKeyHex string, chainID int64) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid agent private key: %w", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(chainID),
	}, nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// SignHash produces the 65-byte owner signature over a safe transaction hash,
// with the recovery id shifted to the 27/28 convention the service expects.
func (s *Signer) SignHash(hash []byte) (string, error) {
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction hash: %w", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}
