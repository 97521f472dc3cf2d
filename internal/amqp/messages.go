package amqp

import (
	"encoding/json"
	"time"
)

// Message actions understood by the export worker.
const (
	ActionSync   = "sync"
	ActionDelete = "delete"
)

// LedgerMessage is the lightweight queue message for spreadsheet export.
// It carries only the transaction id and action; the worker fetches the
// installments from the database.
type LedgerMessage struct {
	Action        string    `json:"action"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerSyncMessage creates a message asking the worker to export the
// transaction's installments.
func NewLedgerSyncMessage(transactionID string) *LedgerMessage {
	return &LedgerMessage{
		Action:        ActionSync,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// NewLedgerDeleteMessage creates a message noting the transaction was
// removed, so the worker can stop retrying its rows.
func NewLedgerDeleteMessage(transactionID string) *LedgerMessage {
	return &LedgerMessage{
		Action:        ActionDelete,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerMessageFromJSON creates a message from JSON bytes
func LedgerMessageFromJSON(data []byte) (*LedgerMessage, error) {
	var msg LedgerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
