// Package intent converts free-text chat into the structured wallet actions
// the rest of the pipeline executes.
package intent

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmoura/safepilot/internal/chain"
	"github.com/tmoura/safepilot/internal/models"
	"go.uber.org/zap"
)

// BalanceReader supplies live asset balances for the context facts. May be
// nil when no RPC endpoint is configured; classification then proceeds
// without the balances fact.
type BalanceReader interface {
	ERC20BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error)
}

// Classifier wraps one model call per inbound message with the fixed system
// instruction and the wallet's recent history.
type Classifier struct {
	llm      llms.Model
	balances BalanceReader
	logger   *zap.Logger
}

func NewClassifier(model llms.Model, balances BalanceReader, logger *zap.Logger) *Classifier {
	return &Classifier{llm: model, balances: balances, logger: logger}
}

// Classify sends the message plus context to the model and parses the reply.
// It returns the typed action together with the raw model text, which is what
// gets persisted as the assistant turn. A model failure returns an error and
// nothing is persisted for the cycle.
func (c *Classifier) Classify(ctx context.Context, safeAddress, message string, history []models.ChatTurn) (*models.ClassifiedAction, string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt+"\n\n"+buildResources()),
		llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf("your multisig address is %s", safeAddress)),
		llms.TextParts(llms.ChatMessageTypeSystem, "you always reply in JSON format"),
	}
	if fact := c.balancesFact(ctx, safeAddress); fact != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, fact))
	}

	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, turn.Content))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, message))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.llm.GenerateContent(ctx, msgs)
	if err != nil {
		return nil, "", fmt.Errorf("model call failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, "", fmt.Errorf("model returned an empty completion")
	}

	raw := resp.Choices[0].Content
	action := ParseAction(raw)

	c.logger.Debug("message classified",
		zap.String("prompt_version", promptVersion),
		zap.String("action", action.Action))

	return action, raw, nil
}

// balancesFact reads the wallet's balance of each known asset and renders one
// system fact. Read failures degrade to omitting the fact rather than failing
// the request.
func (c *Classifier) balancesFact(ctx context.Context, safeAddress string) string {
	if c.balances == nil || !common.IsHexAddress(safeAddress) {
		return ""
	}
	holder := common.HexToAddress(safeAddress)

	var parts []string
	for _, asset := range chain.SupportedAssets {
		bal, err := c.balances.ERC20BalanceOf(ctx, common.HexToAddress(asset.Address), holder)
		if err != nil {
			c.logger.Debug("balance lookup failed, omitting balances fact",
				zap.String("asset", asset.Symbol),
				zap.Error(err))
			return ""
		}
		human := decimal.NewFromBigInt(bal, -asset.Decimals)
		parts = append(parts, fmt.Sprintf("%s %s", human.String(), asset.Symbol))
	}
	if len(parts) == 0 {
		return ""
	}
	return "the multisig currently holds: " + strings.Join(parts, ", ")
}
