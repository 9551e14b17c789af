package intent

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/tmoura/safepilot/internal/models"
	"github.com/tmoura/safepilot/internal/safe"
)

// ValidationError enumerates the fields that keep a transfer from executing.
// It is user-correctable and surfaced conversationally, never as a 500.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// ValidateTransfer checks that a transfer request is fully specified and
// well-formed. Only requests that pass reach the proposer.
func ValidateTransfer(req models.TransferRequest) (models.TransferRequest, error) {
	var bad []string

	if req.MultisigAddress == "" {
		bad = append(bad, "multisig_address")
	} else if !common.IsHexAddress(safe.NormalizeAddress(req.MultisigAddress)) {
		bad = append(bad, "multisig_address")
	}

	if amount, err := decimal.NewFromString(req.Amount); err != nil || amount.Sign() <= 0 {
		bad = append(bad, "amount")
	}

	if !common.IsHexAddress(req.AssetAddress) {
		bad = append(bad, "asset_address")
	}

	if _, ok := safe.NetworkTag(req.Network); !ok {
		bad = append(bad, "network")
	}

	// The destination may still be an unresolved name here; it only has to be
	// present. Resolution happens in the proposer.
	if req.DestinationAddress == "" {
		bad = append(bad, "destination_address")
	}

	if len(bad) > 0 {
		return models.TransferRequest{}, &ValidationError{Fields: bad}
	}
	return req, nil
}
