package sheets

import (
	"context"

	"kharcha/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	TransactionWriter interface {
		Append(ctx context.Context, txn core.Transaction) (rowRef string, err error)
	}

	TransactionDeleter interface {
		Delete(ctx context.Context, id string) error
	}
)
