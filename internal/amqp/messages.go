package amqp

import (
	"encoding/json"
	"time"
)

// Message types carried in the AMQP Type property so one queue can hold
// both sync and delete traffic.
const (
	TypeTransactionSync   = "transaction.sync"
	TypeTransactionDelete = "transaction.delete"
	TypeReminderDue       = "reminder.due"
)

// TransactionSyncMessage asks the worker to mirror one transaction to the
// spreadsheet. It carries only the id; the worker loads the row from
// storage so the payload can never go stale.
type TransactionSyncMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionDeleteMessage carries the row data needed to locate and remove
// the spreadsheet row, since the local record is already gone.
type TransactionDeleteMessage struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Type         string    `json:"type"`
	CategoryName string    `json:"category_name"`
	Amount       float64   `json:"amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReminderDueMessage is the scheduled-notification side channel: fire the
// reminder notice at FireAt.
type ReminderDueMessage struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	FireAt    time.Time `json:"fire_at"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id string) *TransactionSyncMessage {
	return &TransactionSyncMessage{ID: id, Timestamp: time.Now()}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *TransactionDeleteMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func TransactionDeleteMessageFromJSON(data []byte) (*TransactionDeleteMessage, error) {
	var msg TransactionDeleteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *ReminderDueMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func ReminderDueMessageFromJSON(data []byte) (*ReminderDueMessage, error) {
	var msg ReminderDueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
