package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmoura/safepilot/internal/models"
	"github.com/tmoura/safepilot/internal/safe"
	"go.uber.org/zap"
)

const (
	agentAddr = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
	walletID  = "0x1000000000000000000000000000000000000001"
)

type fakeStore struct {
	history   []models.ChatTurn
	saved     [][2]string
	histErr   error
	saveError error
}

func (f *fakeStore) RecentHistory(walletAddress string, limit int) ([]models.ChatTurn, error) {
	return f.history, f.histErr
}

func (f *fakeStore) SaveExchange(walletAddress, userText, assistantText string) error {
	if f.saveError != nil {
		return f.saveError
	}
	f.saved = append(f.saved, [2]string{userText, assistantText})
	return nil
}

type fakeClassifier struct {
	raw string
	err error
}

func (f *fakeClassifier) Classify(ctx context.Context, safeAddress, message string, history []models.ChatTurn) (*models.ClassifiedAction, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	var action models.ClassifiedAction
	if jsonErr := json.Unmarshal([]byte(f.raw), &action); jsonErr != nil {
		action = models.ClassifiedAction{Action: models.ActionReply, Content: f.raw}
	}
	return &action, f.raw, nil
}

type fakeProposer struct {
	got     []models.TransferRequest
	receipt *models.ProposalReceipt
	err     error
}

func (f *fakeProposer) Propose(ctx context.Context, req models.TransferRequest) (*models.ProposalReceipt, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

type fakeDirectory struct {
	safes map[string]*safe.Info
	order []string
}

func (f *fakeDirectory) SafesByOwner(ctx context.Context, owner string) ([]string, error) {
	return f.order, nil
}

func (f *fakeDirectory) SafeInfo(ctx context.Context, address string) (*safe.Info, error) {
	info, ok := f.safes[address]
	if !ok {
		return nil, errors.New("unknown safe")
	}
	return info, nil
}

type env struct {
	store      *fakeStore
	classifier *fakeClassifier
	proposer   *fakeProposer
	dir        *fakeDirectory
	handler    *Handler
}

func newEnv() *env {
	e := &env{
		store:      &fakeStore{},
		classifier: &fakeClassifier{raw: `{"action": "reply", "content": "hi"}`},
		proposer: &fakeProposer{receipt: &models.ProposalReceipt{
			Message: "Transaction proposed successfully! Now click the link to approve the transaction.",
			Link:    "https://app.safe.global/transactions/queue?safe=base:" + walletID,
			Nonce:   5,
		}},
		dir: &fakeDirectory{safes: map[string]*safe.Info{}},
	}
	e.handler = NewHandler(e.store, e.classifier, e.proposer, e.dir, agentAddr, "http://rpc", 10, zap.NewNop())
	return e
}

func doJSON(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestChatRequiresMessageAndWallet(t *testing.T) {
	e := newEnv()

	w := doJSON(t, e.handler, http.MethodPost, "/chat", `{"message": "hi"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, e.handler, http.MethodPost, "/chat", `{"walletId": "0xabc"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatPlainReply(t *testing.T) {
	e := newEnv()
	e.classifier.raw = `{"action": "reply", "content": "hello!"}`

	w := doJSON(t, e.handler, http.MethodPost, "/chat", `{"message": "hi", "walletId": "`+walletID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "hello!", decodeBody(t, w)["reply"])
	require.Len(t, e.store.saved, 1)
	require.Equal(t, "hi", e.store.saved[0][0])
}

func TestChatNewsSearchNeverProposes(t *testing.T) {
	e := newEnv()
	e.classifier.raw = `{"action": "news_search", "ticker": "BTC"}`

	w := doJSON(t, e.handler, http.MethodPost, "/chat", `{"message": "What's the news on BTC?", "walletId": "`+walletID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, e.classifier.raw, decodeBody(t, w)["reply"])
	require.Empty(t, e.proposer.got)
}

func TestChatCompleteTransferProposes(t *testing.T) {
	e := newEnv()
	e.classifier.raw = `{
		"action": "transfer",
		"amount": "50",
		"asset_address": "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"network": "base",
		"destination_address": "0x2000000000000000000000000000000000000002"
	}`

	w := doJSON(t, e.handler, http.MethodPost, "/chat", `{"message": "send it", "walletId": "`+walletID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, e.proposer.got, 1)
	// The conversation key fills in the missing multisig address.
	require.Equal(t, walletID, e.proposer.got[0].MultisigAddress)

	reply := decodeBody(t, w)["reply"].(string)
	require.Contains(t, reply, "base:"+walletID)
}

func TestChatIncompleteTransferAsksConversationally(t *testing.T) {
	e := newEnv()
	e.classifier.raw = `{"action": "transfer", "amount": "50", "network": "base"}`

	w := doJSON(t, e.handler, http.MethodPost, "/chat", `{"message": "send 50", "walletId": "`+walletID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	reply := decodeBody(t, w)["reply"].(string)
	require.Contains(t, reply, "asset_address")
	require.Contains(t, reply, "destination_address")
	require.Empty(t, e.proposer.got)
}

func TestChatClassifierFailureIs500AndNothingPersisted(t *testing.T) {
	e := newEnv()
	e.classifier.err = errors.New("model timeout")

	w := doJSON(t, e.handler, http.MethodPost, "/chat", `{"message": "hi", "walletId": "`+walletID+`"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Empty(t, e.store.saved)
}

func TestChatProposalFailureSurfacesDetails(t *testing.T) {
	e := newEnv()
	e.classifier.raw = `{
		"action": "transfer",
		"multisig_address": "` + walletID + `",
		"amount": "50",
		"asset_address": "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"network": "base",
		"destination_address": "0x2000000000000000000000000000000000000002"
	}`
	e.proposer.err = errors.New("transaction service returned 422")

	w := doJSON(t, e.handler, http.MethodPost, "/chat", `{"message": "send it", "walletId": "`+walletID+`"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, decodeBody(t, w)["details"], "422")
}

func TestTransferValidRequest(t *testing.T) {
	e := newEnv()
	body := `{
		"multisigAddress": "eth:` + walletID + `",
		"amountToInvest": "50",
		"assetAddress": "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"network": "base",
		"destinationAddress": "0x2000000000000000000000000000000000000002"
	}`

	w := doJSON(t, e.handler, http.MethodPost, "/transfer", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, e.proposer.got, 1)
	require.Contains(t, decodeBody(t, w)["link"], "base:"+walletID)
}

func TestTransferMissingFieldsIs400(t *testing.T) {
	e := newEnv()

	w := doJSON(t, e.handler, http.MethodPost, "/transfer", `{"amountToInvest": "50"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, decodeBody(t, w)["details"], "multisig_address")
	require.Empty(t, e.proposer.got)
}

func TestTransferUnconfiguredProposerIs500(t *testing.T) {
	e := newEnv()
	e.handler = NewHandler(e.store, e.classifier, nil, e.dir, agentAddr, "http://rpc", 10, zap.NewNop())

	body := `{
		"multisigAddress": "` + walletID + `",
		"amountToInvest": "50",
		"assetAddress": "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"network": "base",
		"destinationAddress": "0x2000000000000000000000000000000000000002"
	}`
	w := doJSON(t, e.handler, http.MethodPost, "/transfer", body)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateWallet(t *testing.T) {
	e := newEnv()

	w := doJSON(t, e.handler, http.MethodPost, "/createWallet", `{"ownerAddress": "0x2000000000000000000000000000000000000002"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	tx := body["deploymentTransaction"].(map[string]any)
	require.Equal(t, "0", tx["value"])
	require.True(t, strings.HasPrefix(tx["data"].(string), "0x1688f0b9"))
}

func TestCreateWalletMissingAddressIs400(t *testing.T) {
	e := newEnv()
	w := doJSON(t, e.handler, http.MethodPost, "/createWallet", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateWalletUnconfiguredIs500(t *testing.T) {
	e := newEnv()
	e.handler = NewHandler(e.store, e.classifier, e.proposer, e.dir, "", "", 10, zap.NewNop())

	w := doJSON(t, e.handler, http.MethodPost, "/createWallet", `{"ownerAddress": "0x2000000000000000000000000000000000000002"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListSafesFindsSharedWallet(t *testing.T) {
	e := newEnv()
	e.dir.order = []string{"0x5000000000000000000000000000000000000005", walletID}
	e.dir.safes["0x5000000000000000000000000000000000000005"] = &safe.Info{
		Address: "0x5000000000000000000000000000000000000005",
		Owners:  []string{"0x9000000000000000000000000000000000000009"},
	}
	e.dir.safes[walletID] = &safe.Info{
		Address:   walletID,
		Threshold: 2,
		Owners:    []string{strings.ToLower(agentAddr), "0x9000000000000000000000000000000000000009"},
	}

	w := doJSON(t, e.handler, http.MethodGet, "/listSafes?ownerAddress=0x9000000000000000000000000000000000000009", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	info := body["safeResponse"].(map[string]any)
	require.Equal(t, walletID, info["address"])
}

func TestListSafesRequiresOwnerParam(t *testing.T) {
	e := newEnv()
	w := doJSON(t, e.handler, http.MethodGet, "/listSafes", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSafesNoSharedWallet(t *testing.T) {
	e := newEnv()
	e.dir.order = nil

	w := doJSON(t, e.handler, http.MethodGet, "/listSafes?ownerAddress=0x9000000000000000000000000000000000000009", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, present := decodeBody(t, w)["safeResponse"]
	require.False(t, present)
}
