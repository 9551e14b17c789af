// Package api provides the HTTP surface of the wallet assistant.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tmoura/safepilot/internal/chain"
	"github.com/tmoura/safepilot/internal/intent"
	"github.com/tmoura/safepilot/internal/models"
	"github.com/tmoura/safepilot/internal/safe"
	"go.uber.org/zap"
)

// Store is the slice of the conversation store the handlers use.
type Store interface {
	RecentHistory(walletAddress string, limit int) ([]models.ChatTurn, error)
	SaveExchange(walletAddress, userText, assistantText string) error
}

// Classifier turns a message plus history into an action and the raw reply.
type Classifier interface {
	Classify(ctx context.Context, safeAddress, message string, history []models.ChatTurn) (*models.ClassifiedAction, string, error)
}

// Proposer submits validated transfers to the transaction service.
type Proposer interface {
	Propose(ctx context.Context, req models.TransferRequest) (*models.ProposalReceipt, error)
}

// SafeDirectory looks up deployed multisigs via the transaction service.
type SafeDirectory interface {
	SafesByOwner(ctx context.Context, owner string) ([]string, error)
	SafeInfo(ctx context.Context, address string) (*safe.Info, error)
}

type Handler struct {
	store        Store
	classifier   Classifier
	proposer     Proposer
	safes        SafeDirectory
	agentAddress string // empty when no agent key is configured
	rpcURL       string
	historyLimit int
	logger       *zap.Logger
}

func NewHandler(store Store, classifier Classifier, proposer Proposer, safes SafeDirectory, agentAddress, rpcURL string, historyLimit int, logger *zap.Logger) *Handler {
	return &Handler{
		store:        store,
		classifier:   classifier,
		proposer:     proposer,
		safes:        safes,
		agentAddress: agentAddress,
		rpcURL:       rpcURL,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ErrorDetails writes a JSON error response with the underlying message.
func ErrorDetails(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, map[string]string{"error": message, "details": details})
}

type chatRequest struct {
	Message  string `json:"message"`
	WalletID string `json:"walletId"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// HandleChat runs the whole pipeline for one user message: replay history,
// classify, persist both turns, and execute a transfer when one was emitted.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" || req.WalletID == "" {
		Error(w, http.StatusBadRequest, "both 'message' and 'walletId' are required")
		return
	}

	history, err := h.store.RecentHistory(req.WalletID, h.historyLimit)
	if err != nil {
		h.logger.Error("failed to load conversation history", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	action, raw, err := h.classifier.Classify(r.Context(), req.WalletID, req.Message, history)
	if err != nil {
		// Nothing is persisted for this cycle; history stays two-sided.
		h.logger.Error("classification failed", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.store.SaveExchange(req.WalletID, req.Message, raw); err != nil {
		h.logger.Error("failed to persist conversation turns", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch action.Action {
	case models.ActionTransfer:
		h.chatTransfer(w, r, req.WalletID, action)
	case models.ActionReply:
		JSON(w, http.StatusOK, chatResponse{Reply: action.Content})
	default:
		// news_search / historical_data: the structured action is the reply;
		// the caller dispatches it.
		JSON(w, http.StatusOK, chatResponse{Reply: raw})
	}
}

func (h *Handler) chatTransfer(w http.ResponseWriter, r *http.Request, walletID string, action *models.ClassifiedAction) {
	treq := action.TransferRequest()
	if treq.MultisigAddress == "" {
		treq.MultisigAddress = walletID
	}

	validated, err := intent.ValidateTransfer(treq)
	if err != nil {
		var verr *intent.ValidationError
		if errors.As(err, &verr) {
			reply := fmt.Sprintf("I can't propose that transfer yet; I still need: %s.", strings.Join(verr.Fields, ", "))
			JSON(w, http.StatusOK, chatResponse{Reply: reply})
			return
		}
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.proposer == nil {
		Error(w, http.StatusInternalServerError, "transfers are not configured on this server")
		return
	}

	receipt, err := h.proposer.Propose(r.Context(), validated)
	if err != nil {
		h.logger.Error("transfer proposal failed", zap.Error(err))
		ErrorDetails(w, http.StatusInternalServerError, "failed to propose transfer", err.Error())
		return
	}

	JSON(w, http.StatusOK, chatResponse{Reply: fmt.Sprintf("%s %s", receipt.Message, receipt.Link)})
}

// HandleTransfer proposes a transfer directly, without the chat pipeline.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	validated, err := intent.ValidateTransfer(req)
	if err != nil {
		ErrorDetails(w, http.StatusBadRequest, "invalid transfer request", err.Error())
		return
	}

	if h.proposer == nil {
		Error(w, http.StatusInternalServerError, "AGENT_PRIVATE_KEY or RPC_URL is not configured")
		return
	}

	receipt, err := h.proposer.Propose(r.Context(), validated)
	if err != nil {
		h.logger.Error("transfer proposal failed", zap.Error(err))
		ErrorDetails(w, http.StatusInternalServerError, "failed to propose transfer", err.Error())
		return
	}

	JSON(w, http.StatusOK, receipt)
}

type createWalletRequest struct {
	OwnerAddress string `json:"ownerAddress"`
}

type createWalletResponse struct {
	DeploymentTransaction *chain.DeploymentTransaction `json:"deploymentTransaction"`
}

// HandleCreateWallet returns the unsigned deployment transaction for a new
// two-owner multisig shared between the caller and the agent key.
func (h *Handler) HandleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OwnerAddress == "" {
		Error(w, http.StatusBadRequest, "'ownerAddress' is required")
		return
	}
	if !common.IsHexAddress(req.OwnerAddress) {
		Error(w, http.StatusBadRequest, "'ownerAddress' is not a valid address")
		return
	}
	if h.agentAddress == "" {
		Error(w, http.StatusInternalServerError, "AGENT_PRIVATE_KEY is not configured")
		return
	}
	if h.rpcURL == "" {
		Error(w, http.StatusInternalServerError, "RPC_URL is not configured")
		return
	}

	owners := []common.Address{
		common.HexToAddress(h.agentAddress),
		common.HexToAddress(req.OwnerAddress),
	}
	saltNonce := big.NewInt(time.Now().UnixNano())

	tx, err := chain.EncodeSafeDeployment(owners, 2, saltNonce)
	if err != nil {
		h.logger.Error("failed to encode deployment", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	JSON(w, http.StatusOK, createWalletResponse{DeploymentTransaction: tx})
}

type listSafesResponse struct {
	SafeResponse *safe.Info `json:"safeResponse,omitempty"`
}

// HandleListSafes finds the multisig the owner shares with the agent key.
func (h *Handler) HandleListSafes(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("ownerAddress")
	if owner == "" {
		Error(w, http.StatusBadRequest, "query parameter 'ownerAddress' is required")
		return
	}

	addresses, err := h.safes.SafesByOwner(r.Context(), owner)
	if err != nil {
		h.logger.Error("failed to list safes", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	for _, address := range addresses {
		info, err := h.safes.SafeInfo(r.Context(), address)
		if err != nil {
			h.logger.Error("failed to fetch safe info",
				zap.String("safe", address),
				zap.Error(err))
			Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if h.agentAddress != "" && containsAddress(info.Owners, h.agentAddress) {
			JSON(w, http.StatusOK, listSafesResponse{SafeResponse: info})
			return
		}
	}

	JSON(w, http.StatusOK, listSafesResponse{})
}

func containsAddress(addresses []string, target string) bool {
	for _, a := range addresses {
		if strings.EqualFold(a, target) {
			return true
		}
	}
	return false
}
