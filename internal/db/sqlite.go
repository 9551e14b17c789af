package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tmoura/safepilot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    wallet_address TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
    content TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS chat_turns_wallet_created
    ON chat_turns (wallet_address, created_at);`

// Database is the append-only conversation store. Turns are never updated or
// deleted, so the classifier always replays a stable context window.
type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (db *Database) Close() error {
	return db.db.Close()
}

// SaveTurn appends one turn and fills in its ID and CreatedAt.
func (db *Database) SaveTurn(turn *models.ChatTurn) error {
	if err := checkTurn(turn.WalletAddress, turn.Role, turn.Content); err != nil {
		return err
	}

	query := `
        INSERT INTO chat_turns (wallet_address, role, content, created_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        RETURNING id, created_at`

	return db.db.QueryRow(query, turn.WalletAddress, turn.Role, turn.Content).Scan(&turn.ID, &turn.CreatedAt)
}

// SaveExchange appends the user turn and the assistant turn of one chat cycle
// in a single transaction, so a failure leaves no one-sided history.
func (db *Database) SaveExchange(walletAddress, userText, assistantText string) error {
	if err := checkTurn(walletAddress, models.RoleUser, userText); err != nil {
		return err
	}
	if err := checkTurn(walletAddress, models.RoleAssistant, assistantText); err != nil {
		return err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insert = `
        INSERT INTO chat_turns (wallet_address, role, content, created_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)`

	if _, err := tx.Exec(insert, walletAddress, models.RoleUser, userText); err != nil {
		return err
	}
	if _, err := tx.Exec(insert, walletAddress, models.RoleAssistant, assistantText); err != nil {
		return err
	}

	return tx.Commit()
}

// RecentHistory returns the newest limit turns for the wallet in chronological
// order. Retrieval is newest-first; the slice is reversed before returning
// because model context reads oldest-first.
func (db *Database) RecentHistory(walletAddress string, limit int) ([]models.ChatTurn, error) {
	query := `
        SELECT id, wallet_address, role, content, created_at
        FROM chat_turns
        WHERE wallet_address = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?`

	rows, err := db.db.Query(query, walletAddress, limit)
	if err != nil {
		return []models.ChatTurn{}, err
	}
	defer rows.Close()

	turns := make([]models.ChatTurn, 0)
	for rows.Next() {
		var turn models.ChatTurn
		err := rows.Scan(&turn.ID, &turn.WalletAddress, &turn.Role, &turn.Content, &turn.CreatedAt)
		if err != nil {
			return []models.ChatTurn{}, err
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return []models.ChatTurn{}, err
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func checkTurn(walletAddress, role, content string) error {
	if walletAddress == "" {
		return fmt.Errorf("wallet address is required")
	}
	if role != models.RoleUser && role != models.RoleAssistant {
		return fmt.Errorf("unknown role %q", role)
	}
	if content == "" {
		return fmt.Errorf("turn content must not be empty")
	}
	return nil
}
