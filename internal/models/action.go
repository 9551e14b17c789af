package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Action tags the model is allowed to emit. Anything else is downgraded to a
// plain reply by the parser.
const (
	ActionReply          = "reply"
	ActionNewsSearch     = "news_search"
	ActionHistoricalData = "historical_data"
	ActionTransfer       = "transfer"
)

// FlexString decodes from either a JSON string or a JSON number. The model is
// inconsistent about quoting amounts, so the schema tolerates both.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// ClassifiedAction is the decoded form of the model's JSON reply. The Action
// tag selects which of the remaining fields are meaningful.
type ClassifiedAction struct {
	Action  string `json:"action"`
	Content string `json:"content,omitempty"`
	Ticker  string `json:"ticker,omitempty"`

	// Transfer fields.
	MultisigAddress    string     `json:"multisig_address,omitempty"`
	DestinationAddress string     `json:"destination_address,omitempty"`
	Amount             FlexString `json:"amount,omitempty"`
	AssetAddress       string     `json:"asset_address,omitempty"`
	Network            string     `json:"network,omitempty"`
}

// TransferRequest extracts the transfer parameters of the action, trimmed but
// otherwise unvalidated.
func (a *ClassifiedAction) TransferRequest() TransferRequest {
	return TransferRequest{
		MultisigAddress:    strings.TrimSpace(a.MultisigAddress),
		DestinationAddress: strings.TrimSpace(a.DestinationAddress),
		Amount:             strings.TrimSpace(string(a.Amount)),
		AssetAddress:       strings.TrimSpace(a.AssetAddress),
		Network:            strings.TrimSpace(a.Network),
	}
}

// TransferRequest carries the parameters of one asset transfer against the
// multisig. Amount is a human-entered decimal, converted to base units only
// when the transfer is proposed.
type TransferRequest struct {
	MultisigAddress    string `json:"multisigAddress"`
	DestinationAddress string `json:"destinationAddress"`
	Amount             string `json:"amountToInvest"`
	AssetAddress       string `json:"assetAddress"`
	Network            string `json:"network"`
}

// ProposalReceipt is what the caller gets back after a transfer has been
// proposed to the transaction service. The service owns all further state.
type ProposalReceipt struct {
	Message    string `json:"res"`
	Link       string `json:"link"`
	SafeTxHash string `json:"safeTxHash"`
	Nonce      int64  `json:"nonce"`
}
