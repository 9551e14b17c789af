// Package safe talks to the Safe transaction service: safe lookups, gas
// estimation, nonce discovery, and multisig transaction proposals. The
// service, not this process, owns all proposal state after submission.
package safe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is a JSON client for one network's Safe transaction service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Info describes a deployed multisig as the transaction service sees it.
type Info struct {
	Address   string   `json:"address"`
	Nonce     int64    `json:"nonce"`
	Threshold int64    `json:"threshold"`
	Owners    []string `json:"owners"`
	Modules   []string `json:"modules"`
}

// SafeInfo fetches the current state of one multisig.
func (c *Client) SafeInfo(ctx context.Context, address string) (*Info, error) {
	var info Info
	if err := c.getJSON(ctx, fmt.Sprintf("/api/v1/safes/%s/", address), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SafesByOwner lists the multisig addresses the owner participates in.
func (c *Client) SafesByOwner(ctx context.Context, owner string) ([]string, error) {
	var resp struct {
		Safes []string `json:"safes"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/api/v1/owners/%s/safes/", owner), &resp); err != nil {
		return nil, err
	}
	return resp.Safes, nil
}

// EstimateSafeTxGas asks the service for a safeTxGas estimate.
func (c *Client) EstimateSafeTxGas(ctx context.Context, safeAddress, to, value, data string, operation uint8) (string, error) {
	body := map[string]any{
		"to":        to,
		"value":     value,
		"data":      data,
		"operation": operation,
	}
	var resp struct {
		SafeTxGas string `json:"safeTxGas"`
	}
	path := fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/estimations/", safeAddress)
	if err := c.postJSON(ctx, path, body, &resp); err != nil {
		return "", err
	}
	return resp.SafeTxGas, nil
}

// NextNonce returns the next unused nonce: the on-chain nonce, or one past the
// highest queued proposal if the queue is ahead of the chain.
func (c *Client) NextNonce(ctx context.Context, safeAddress string) (int64, error) {
	info, err := c.SafeInfo(ctx, safeAddress)
	if err != nil {
		return 0, err
	}

	var queued struct {
		Results []struct {
			Nonce int64 `json:"nonce"`
		} `json:"results"`
	}
	path := fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/?executed=false&ordering=-nonce&limit=1", safeAddress)
	if err := c.getJSON(ctx, path, &queued); err != nil {
		return 0, err
	}

	next := info.Nonce
	if len(queued.Results) > 0 && queued.Results[0].Nonce >= next {
		next = queued.Results[0].Nonce + 1
	}
	return next, nil
}

// proposal is the submission payload for one multisig transaction.
type proposal struct {
	To                      string `json:"to"`
	Value                   string `json:"value"`
	Data                    string `json:"data"`
	Operation               uint8  `json:"operation"`
	SafeTxGas               string `json:"safeTxGas"`
	BaseGas                 string `json:"baseGas"`
	GasPrice                string `json:"gasPrice"`
	GasToken                string `json:"gasToken"`
	RefundReceiver          string `json:"refundReceiver"`
	Nonce                   int64  `json:"nonce"`
	ContractTransactionHash string `json:"contractTransactionHash"`
	Sender                  string `json:"sender"`
	Signature               string `json:"signature"`
	Origin                  string `json:"origin"`
}

// submitProposal posts a signed transaction proposal. A stale nonce is
// rejected here by the service.
func (c *Client) submitProposal(ctx context.Context, safeAddress string, p *proposal) error {
	path := fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/", safeAddress)
	return c.postJSON(ctx, path, p, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("transaction service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("transaction service rejected request",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return fmt.Errorf("transaction service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode transaction service response: %w", err)
	}
	return nil
}
