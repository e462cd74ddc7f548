// Package worker contains the spreadsheet export worker. It consumes
// transaction change events from the broker and keeps a periodic sweep as
// backup for events lost while the broker or worker was down.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"walletbook/internal/amqp"
	"walletbook/internal/core"
	"walletbook/internal/sheets"
	"walletbook/internal/store"
)

// Store is the slice of the data layer the worker needs: reading
// transactions plus the export bookkeeping.
type Store interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	store.ExportQueue
}

type ExportWorker struct {
	store    Store
	appender sheets.TransactionAppender
}

func NewExportWorker(st Store, appender sheets.TransactionAppender) *ExportWorker {
	return &ExportWorker{store: st, appender: appender}
}

// HandleEvent exports the transaction a change event refers to. Delete
// events are acknowledged without work: rows already exported stay in the
// sheet as history. A transaction that no longer exists is also
// acknowledged, since requeueing could never make it reappear.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if ev.Action == amqp.ActionDeleted {
		slog.InfoContext(ctx, "Skipping export for deleted transaction",
			"transaction_id", ev.TransactionID)
		return nil
	}

	t, err := w.store.GetTransaction(ctx, ev.TransactionID)
	if errors.Is(err, core.ErrTransactionNotFound) {
		slog.WarnContext(ctx, "Transaction gone before export",
			"transaction_id", ev.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", ev.TransactionID, err)
	}

	return w.export(ctx, t)
}

// ProcessPending sweeps up to batchSize unexported transactions and
// exports them. It returns how many were exported; the first failure
// stops the sweep so the remainder is retried next round.
func (w *ExportWorker) ProcessPending(ctx context.Context, batchSize int) (int, error) {
	pending, err := w.store.ListUnexported(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list unexported: %w", err)
	}

	for i, t := range pending {
		if err := w.export(ctx, t); err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

// Run sweeps pending exports on the given interval until the context is
// cancelled. Sweep failures are logged and retried next tick.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration, batchSize int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.ProcessPending(ctx, batchSize)
			if err != nil {
				slog.ErrorContext(ctx, "Export sweep failed",
					"exported", n,
					"error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "Export sweep finished", "exported", n)
			}
		}
	}
}

func (w *ExportWorker) export(ctx context.Context, t core.Transaction) error {
	if err := w.appender.AppendTransaction(ctx, t); err != nil {
		return fmt.Errorf("append transaction %s: %w", t.ID, err)
	}
	if err := w.store.MarkExported(ctx, t.ID); err != nil {
		return fmt.Errorf("mark exported %s: %w", t.ID, err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"transaction_id", t.ID,
		"wallet_id", t.WalletID)
	return nil
}
