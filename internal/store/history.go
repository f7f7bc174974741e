package store

import (
	"database/sql"
	"encoding/json"

	_ "github.com/glebarez/go-sqlite"
	"github.com/tmc/langchaingo/llms"
)

// HistoryStore persists conversation transcripts and finished task
// records. It belongs to the caller layer: the agent core consumes
// history passed in and owns no persistence itself.
type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			role TEXT,
			content TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			task_id TEXT,
			goal TEXT,
			final_output TEXT,
			steps_json TEXT,
			created DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return nil, err
		}
	}

	return &HistoryStore{DB: db}, nil
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

func (h *HistoryStore) AddMessage(sessionID string, role string, content string) error {
	query := `INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)`
	_, err := h.DB.Exec(query, sessionID, role, content)
	return err
}

// RecordRun stores one finished task: its goal, final output, and the
// step list serialized as JSON.
func (h *HistoryStore) RecordRun(sessionID, taskID, goal, finalOutput string, steps any) error {
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return err
	}
	query := `INSERT INTO runs (session_id, task_id, goal, final_output, steps_json) VALUES (?, ?, ?, ?, ?)`
	_, err = h.DB.Exec(query, sessionID, taskID, goal, finalOutput, string(stepsJSON))
	return err
}

// GetHistory returns the last limit messages of a session in
// chronological order, converted to chat messages.
func (h *HistoryStore) GetHistory(sessionID string, limit int) ([]llms.MessageContent, error) {
	query := `SELECT role, content FROM messages WHERE session_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`
	rows, err := h.DB.Query(query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []llms.MessageContent
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}

		var msgRole llms.ChatMessageType
		switch role {
		case "human":
			msgRole = llms.ChatMessageTypeHuman
		case "ai":
			msgRole = llms.ChatMessageTypeAI
		case "system":
			msgRole = llms.ChatMessageTypeSystem
		default:
			msgRole = llms.ChatMessageTypeHuman
		}

		history = append(history, llms.MessageContent{
			Role: msgRole,
			Parts: []llms.ContentPart{
				llms.TextPart(content),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, nil
}
