// Package sheets defines the ports for the spreadsheet export backend.
package sheets

import (
	"context"

	"walletbook/internal/core"
)

// TransactionAppender writes a transaction as a row to the export
// spreadsheet. Appends are idempotent only at the sweep level: the caller
// marks a transaction exported after a successful append.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, t core.Transaction) error
}
