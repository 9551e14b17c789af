package safe

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// The address of private key 0x...01 is a fixed point of secp256k1.
const (
	testKey     = "0x0000000000000000000000000000000000000000000000000000000000000001"
	testKeyAddr = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
)

func TestNewSignerDerivesAddress(t *testing.T) {
	signer, err := NewSigner(testKey, 8453)
	require.NoError(t, err)
	require.Equal(t, testKeyAddr, signer.Address().Hex())
	require.EqualValues(t, 8453, signer.ChainID().Int64())
}

func TestNewSignerAcceptsUnprefixedKey(t *testing.T) {
	signer, err := NewSigner(testKey[2:], 1)
	require.NoError(t, err)
	require.Equal(t, testKeyAddr, signer.Address().Hex())
}

func TestNewSignerRejectsGarbage(t *testing.T) {
	_, err := NewSigner("not-a-key", 1)
	require.Error(t, err)
}

func TestSignHashRecoverable(t *testing.T) {
	signer, err := NewSigner(testKey, 8453)
	require.NoError(t, err)

	digest := crypto.Keccak256([]byte("payload"))
	sigHex, err := signer.SignHash(digest)
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.Contains(t, []byte{27, 28}, sig[64])

	// Shift v back to 0/1 and recover the signing address.
	sig[64] -= 27
	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	require.Equal(t, testKeyAddr, crypto.PubkeyToAddress(*pub).Hex())
}
