package safe

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tmoura/safepilot/internal/chain"
	"github.com/tmoura/safepilot/internal/models"
	"go.uber.org/zap"
)

const proposalOrigin = "safepilot"

// ChainReader is the slice of the chain client the proposer needs.
type ChainReader interface {
	ResolveRecipient(ctx context.Context, target string) (common.Address, error)
	ERC20Decimals(ctx context.Context, token common.Address) (int32, error)
}

// Proposer turns a validated transfer request into a submitted multisig
// proposal. It does not retry and keeps no local proposal state; concurrent
// proposals against the same multisig may race on the nonce, and the
// transaction service rejects whichever one arrives stale.
type Proposer struct {
	chain  ChainReader
	svc    *Client
	signer *Signer
	logger *zap.Logger
}

func NewProposer(chainReader ChainReader, svc *Client, signer *Signer, logger *zap.Logger) *Proposer {
	return &Proposer{
		chain:  chainReader,
		svc:    svc,
		signer: signer,
		logger: logger,
	}
}

// Propose runs the full pipeline: normalize, resolve, encode, estimate, hash,
// sign, submit. Any failing step aborts the whole proposal.
func (p *Proposer) Propose(ctx context.Context, req models.TransferRequest) (*models.ProposalReceipt, error) {
	safeAddress := NormalizeAddress(req.MultisigAddress)
	if !common.IsHexAddress(safeAddress) {
		return nil, fmt.Errorf("multisig address %q is not a valid address", req.MultisigAddress)
	}
	safeAddr := common.HexToAddress(safeAddress)

	tag, ok := NetworkTag(req.Network)
	if !ok {
		return nil, fmt.Errorf("unsupported network %q", req.Network)
	}

	if !common.IsHexAddress(req.AssetAddress) {
		return nil, fmt.Errorf("asset address %q is not a valid address", req.AssetAddress)
	}
	token := common.HexToAddress(req.AssetAddress)

	recipient, err := p.chain.ResolveRecipient(ctx, req.DestinationAddress)
	if err != nil {
		return nil, err
	}

	amount, err := chain.ToBaseUnits(req.Amount, p.assetDecimals(ctx, req.AssetAddress, token))
	if err != nil {
		return nil, err
	}

	calldata, err := chain.EncodeTransfer(recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer call: %w", err)
	}
	dataHex := hexutil.Encode(calldata)

	// Token transfers move no native asset; the value stays zero and the
	// token contract is the transaction target.
	safeTxGas, err := p.svc.EstimateSafeTxGas(ctx, safeAddr.Hex(), token.Hex(), "0", dataHex, OperationCall)
	if err != nil {
		return nil, fmt.Errorf("gas estimation failed: %w", err)
	}

	nonce, err := p.svc.NextNonce(ctx, safeAddr.Hex())
	if err != nil {
		return nil, fmt.Errorf("nonce lookup failed: %w", err)
	}

	tx := &SafeTx{
		To:             token.Hex(),
		Value:          "0",
		Data:           dataHex,
		Operation:      OperationCall,
		SafeTxGas:      safeTxGas,
		BaseGas:        "0",
		GasPrice:       "0",
		GasToken:       common.Address{}.Hex(),
		RefundReceiver: common.Address{}.Hex(),
		Nonce:          nonce,
	}

	hash, err := TxHash(p.signer.ChainID(), safeAddr, tx)
	if err != nil {
		return nil, err
	}
	hashHex := hexutil.Encode(hash)

	signature, err := p.signer.SignHash(hash)
	if err != nil {
		return nil, err
	}

	err = p.svc.submitProposal(ctx, safeAddr.Hex(), &proposal{
		To:                      tx.To,
		Value:                   tx.Value,
		Data:                    tx.Data,
		Operation:               tx.Operation,
		SafeTxGas:               tx.SafeTxGas,
		BaseGas:                 tx.BaseGas,
		GasPrice:                tx.GasPrice,
		GasToken:                tx.GasToken,
		RefundReceiver:          tx.RefundReceiver,
		Nonce:                   tx.Nonce,
		ContractTransactionHash: hashHex,
		Sender:                  p.signer.Address().Hex(),
		Signature:               signature,
		Origin:                  proposalOrigin,
	})
	if err != nil {
		return nil, fmt.Errorf("proposal submission failed: %w", err)
	}

	p.logger.Info("transfer proposal submitted",
		zap.String("safe", safeAddr.Hex()),
		zap.String("token", token.Hex()),
		zap.String("recipient", recipient.Hex()),
		zap.String("amount", amount.String()),
		zap.Int64("nonce", nonce),
		zap.String("safeTxHash", hashHex))

	return &models.ProposalReceipt{
		Message:    "Transaction proposed successfully! Now click the link to approve the transaction.",
		Link:       fmt.Sprintf("https://app.safe.global/transactions/queue?safe=%s:%s", tag, safeAddr.Hex()),
		SafeTxHash: hashHex,
		Nonce:      nonce,
	}, nil
}

// assetDecimals prefers the registry, then the token contract, then the
// stablecoin default of 6.
func (p *Proposer) assetDecimals(ctx context.Context, assetAddress string, token common.Address) int32 {
	if asset, ok := chain.LookupAsset(assetAddress); ok {
		return asset.Decimals
	}
	decimals, err := p.chain.ERC20Decimals(ctx, token)
	if err != nil {
		p.logger.Warn("falling back to default decimals for unknown asset",
			zap.String("asset", assetAddress),
			zap.Error(err))
		return 6
	}
	return decimals
}
