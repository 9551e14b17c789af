package intent

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmoura/safepilot/internal/models"
)

func TestParseActionNewsSearch(t *testing.T) {
	action := ParseAction(`{"action": "news_search", "ticker": "BTC"}`)
	require.Equal(t, models.ActionNewsSearch, action.Action)
	require.Equal(t, "BTC", action.Ticker)
}

func TestParseActionFencedJSON(t *testing.T) {
	raw := "```json\n{\"action\": \"historical_data\", \"ticker\": \"ETH\"}\n```"
	action := ParseAction(raw)
	require.Equal(t, models.ActionHistoricalData, action.Action)
	require.Equal(t, "ETH", action.Ticker)
}

func TestParseActionTransferWithNumericAmount(t *testing.T) {
	raw := `{
		"action": "transfer",
		"multisig_address": "0x1000000000000000000000000000000000000001",
		"amount": 100,
		"asset_address": "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"network": "base",
		"destination_address": "0x2000000000000000000000000000000000000002"
	}`
	action := ParseAction(raw)
	require.Equal(t, models.ActionTransfer, action.Action)
	require.Equal(t, "100", string(action.Amount))
	require.Equal(t, "base", action.Network)
}

func TestParseActionPlainTextFallsBackToReply(t *testing.T) {
	raw := "Sure, I can help with that!"
	action := ParseAction(raw)
	require.Equal(t, models.ActionReply, action.Action)
	require.Equal(t, raw, action.Content)
}

func TestParseActionUnknownTagFallsBackToReply(t *testing.T) {
	raw := `{"action": "launch_rocket", "target": "moon"}`
	action := ParseAction(raw)
	require.Equal(t, models.ActionReply, action.Action)
	require.Equal(t, raw, action.Content)
}

func TestParseActionReplyKeepsContent(t *testing.T) {
	action := ParseAction(`{"action": "reply", "content": "hello there"}`)
	require.Equal(t, models.ActionReply, action.Action)
	require.Equal(t, "hello there", action.Content)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}
