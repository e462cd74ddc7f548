package amqp

import (
	"encoding/json"
	"time"
)

// Transaction change actions carried on the wire.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is the lightweight change notification published after a
// transaction mutation commits. Consumers (the export worker, live UI
// feeds) fetch the full document by ID when they need it.
type TransactionEvent struct {
	TransactionID string    `json:"transactionId"`
	WalletID      string    `json:"walletId"`
	UID           string    `json:"uid"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(transactionID, walletID, uid, action string) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: transactionID,
		WalletID:      walletID,
		UID:           uid,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
