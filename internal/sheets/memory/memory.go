package memory

import (
	"context"
	"fmt"
	"sync"

	"kharcha/internal/core"
)

// Store is an in-memory spreadsheet stand-in used in tests and local runs.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New() *Store {
	return &Store{}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, txn core.Transaction) (string, error) {
	if err := txn.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, txn)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Delete removes the stored transaction with the given id, if present.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, txn := range s.items {
		if txn.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Items returns a copy of the stored transactions.
func (s *Store) Items() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}
