package models

import "time"

// Roles persisted in the conversation log. Nothing else is stored.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one persisted message in a wallet's conversation. Turns are
// append-only and ordered by creation time.
type ChatTurn struct {
	ID            int64     `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	Role          string    `json:"role"` // user or assistant
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}
