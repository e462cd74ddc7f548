// Package services orchestrates wallet and transaction operations against
// the document store, keeping wallet balances and running totals consistent
// with the transactions applied to them.
package services

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"walletbook/internal/core"
	"walletbook/internal/store"
)

// Ledger applies and reverts a single transaction's monetary effect on a
// wallet. Every call reads the wallet fresh and issues one partial-field
// write touching only the balance and the total matching the kind.
type Ledger struct {
	wallets store.WalletStore
}

func NewLedger(wallets store.WalletStore) *Ledger {
	return &Ledger{wallets: wallets}
}

// Apply records a transaction's effect for the first time. It fails with
// core.ErrWalletNotFound when the wallet is absent and with
// core.ErrInsufficientBalance when an expense exceeds the balance; in both
// cases nothing is written.
func (l *Ledger) Apply(ctx context.Context, walletID string, amount decimal.Decimal, kind core.TransactionKind) error {
	w, err := l.wallets.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}

	updated, err := core.ApplyToWallet(w, amount, kind)
	if err != nil {
		return err
	}

	if err := l.wallets.UpdateWalletFunds(ctx, walletID, updated.Amount, updated.TotalFor(kind), kind); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Applied transaction effect",
		"wallet_id", walletID,
		"kind", string(kind),
		"amount", amount.String(),
		"balance", updated.Amount.String())

	return nil
}

// Revert undoes a previously applied effect. It restores prior state and
// therefore performs no sufficiency check.
func (l *Ledger) Revert(ctx context.Context, walletID string, amount decimal.Decimal, kind core.TransactionKind) error {
	w, err := l.wallets.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}

	updated, err := core.RevertFromWallet(w, amount, kind)
	if err != nil {
		return err
	}

	if err := l.wallets.UpdateWalletFunds(ctx, walletID, updated.Amount, updated.TotalFor(kind), kind); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Reverted transaction effect",
		"wallet_id", walletID,
		"kind", string(kind),
		"amount", amount.String(),
		"balance", updated.Amount.String())

	return nil
}
