package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"walletbook/internal/core"
)

// CascadeBatchSize bounds one batch of the wallet cascade delete. It
// mirrors the classic document-store batched-write limit.
const CascadeBatchSize = 500

// Ports for the document store backends. Implementations return
// core.ErrWalletNotFound / core.ErrTransactionNotFound for absent
// documents so callers can match business failures with errors.Is.
type (
	WalletStore interface {
		// GetWallet reads a wallet fresh; there is no caching layer in
		// front of a backend.
		GetWallet(ctx context.Context, id string) (core.Wallet, error)

		// SaveWallet writes the full wallet document, assigning an ID
		// when w.ID is empty, and returns the stored wallet.
		SaveWallet(ctx context.Context, w core.Wallet) (core.Wallet, error)

		// UpdateWalletFunds is the partial-field ledger write: only the
		// balance and the one running total selected by kind change.
		UpdateWalletFunds(ctx context.Context, id string, amount, total decimal.Decimal, kind core.TransactionKind) error

		DeleteWallet(ctx context.Context, id string) error

		// ListWallets returns a user's wallets, newest first.
		ListWallets(ctx context.Context, uid string) ([]core.Wallet, error)
	}

	TransactionStore interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)

		// SaveTransaction writes the full transaction document, assigning
		// an ID when t.ID is empty, and returns the stored transaction.
		SaveTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)

		DeleteTransaction(ctx context.Context, id string) error

		// DeleteTransactions removes one batch of documents. A batch
		// either succeeds or fails as a whole.
		DeleteTransactions(ctx context.Context, ids []string) error

		// ListByWallet returns up to limit transactions referencing the
		// wallet, in no particular order; used to page the cascade delete.
		ListByWallet(ctx context.Context, walletID string, limit int) ([]core.Transaction, error)

		// ListByUser returns a user's transactions ordered by date
		// descending. Zero from/to mean an unbounded range.
		ListByUser(ctx context.Context, uid string, from, to time.Time) ([]core.Transaction, error)
	}

	// ExportQueue feeds the spreadsheet export worker: transactions that
	// were written but not exported yet, as a backup for lost change
	// events.
	ExportQueue interface {
		ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error)
		MarkExported(ctx context.Context, id string) error
	}

	// Store is the full document-store surface the services need.
	Store interface {
		WalletStore
		TransactionStore
	}
)
