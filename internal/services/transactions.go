package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"walletbook/internal/amqp"
	"walletbook/internal/core"
	"walletbook/internal/images"
	"walletbook/internal/store"
)

// EventPublisher feeds change events to downstream consumers (the export
// worker, live client feeds). Publishing is best-effort: a committed
// mutation is never failed because the broker is down.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

// TransactionService is the reconciler: the public entry points that keep
// one or two wallets' ledgers consistent with a transaction's current
// effect as it is created, edited, moved between wallets, or deleted.
type TransactionService struct {
	store    store.Store
	ledger   *Ledger
	uploader images.Uploader
	events   EventPublisher
	now      func() time.Time
}

func NewTransactionService(st store.Store, uploader images.Uploader, events EventPublisher) *TransactionService {
	return &TransactionService{
		store:    st,
		ledger:   NewLedger(st),
		uploader: uploader,
		events:   events,
		now:      time.Now,
	}
}

// CreateOrUpdate persists a transaction and applies its monetary effect.
//
// Create path: the effect is applied first; if the wallet is missing or
// the balance insufficient, the operation aborts and no document is
// written. Update path: when amount, kind or wallet changed, the old
// effect is reverted and the new one applied (possibly against a second
// wallet); edits that touch only description, date or image never mutate
// a wallet.
func (s *TransactionService) CreateOrUpdate(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var old core.Transaction
	updating := in.ID != ""
	if updating {
		var err error
		old, err = s.store.GetTransaction(ctx, in.ID)
		if err != nil {
			return core.Transaction{}, err
		}
		changed := old.Kind != in.Kind ||
			!old.Amount.Equal(in.Amount) ||
			old.WalletID != in.WalletID
		if changed {
			if err := s.moveEffect(ctx, old, in); err != nil {
				return core.Transaction{}, err
			}
		}
	} else {
		if err := s.ledger.Apply(ctx, in.WalletID, in.Amount, in.Kind); err != nil {
			return core.Transaction{}, err
		}
	}

	image := in.Image
	if image.NeedsUpload() {
		if s.uploader == nil {
			return core.Transaction{}, errors.New("image uploads are not configured")
		}
		url, err := s.uploader.Upload(ctx, image, "transactions")
		if err != nil {
			return core.Transaction{}, fmt.Errorf("upload receipt image: %w", err)
		}
		image = &core.ImageRef{URL: url}
	}

	saved, err := s.store.SaveTransaction(ctx, s.buildDocument(old, in, image, updating))
	if err != nil {
		return core.Transaction{}, err
	}

	action := amqp.ActionCreated
	if updating {
		action = amqp.ActionUpdated
	}
	s.publish(ctx, saved, action)

	return saved, nil
}

// Delete reverts the transaction's effect on its wallet, then removes the
// document. The revert is computed from the stored amount and kind before
// the delete, since deletion discards that information.
func (s *TransactionService) Delete(ctx context.Context, transactionID, walletID string) error {
	t, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	if err := s.ledger.Revert(ctx, walletID, t.Amount, t.Kind); err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, transactionID); err != nil {
		return err
	}

	s.publish(ctx, t, amqp.ActionDeleted)
	return nil
}

// Get returns a single transaction.
func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// ListByUser returns a user's transactions, newest first.
func (s *TransactionService) ListByUser(ctx context.Context, uid string) ([]core.Transaction, error) {
	return s.store.ListByUser(ctx, uid, time.Time{}, time.Time{})
}

// ListByWallet returns all transactions referencing a wallet.
func (s *TransactionService) ListByWallet(ctx context.Context, walletID string) ([]core.Transaction, error) {
	return s.store.ListByWallet(ctx, walletID, 0)
}

// moveEffect reverts the old effect and applies the new one, against one
// wallet or two. Sufficiency is checked before anything is written, so a
// rejected edit leaves both wallets untouched. The revert and the reapply
// are still two independent writes: a fault between them leaves the old
// wallet reverted with the document unchanged, a documented limitation of
// the store.
func (s *TransactionService) moveEffect(ctx context.Context, old core.Transaction, in core.TransactionInput) error {
	oldWallet, err := s.store.GetWallet(ctx, old.WalletID)
	if err != nil {
		return err
	}

	reverted, err := core.RevertFromWallet(oldWallet, old.Amount, old.Kind)
	if err != nil {
		return err
	}

	sameWallet := old.WalletID == in.WalletID
	if in.Kind == core.Expense {
		if sameWallet {
			if in.Amount.GreaterThan(reverted.Amount) {
				return core.ErrInsufficientBalance
			}
		} else {
			dest, err := s.store.GetWallet(ctx, in.WalletID)
			if err != nil {
				return err
			}
			if in.Amount.GreaterThan(dest.Amount) {
				return core.ErrInsufficientBalance
			}
		}
	} else if !sameWallet {
		// The destination must exist before the old wallet is touched.
		if _, err := s.store.GetWallet(ctx, in.WalletID); err != nil {
			return err
		}
	}

	if err := s.ledger.Revert(ctx, old.WalletID, old.Amount, old.Kind); err != nil {
		return err
	}
	return s.ledger.Apply(ctx, in.WalletID, in.Amount, in.Kind)
}

// buildDocument merges the payload into the stored document. Fields absent
// from the payload keep their previous value on update.
func (s *TransactionService) buildDocument(old core.Transaction, in core.TransactionInput, image *core.ImageRef, updating bool) core.Transaction {
	now := s.now()

	t := core.Transaction{
		ID:       in.ID,
		UID:      in.UID,
		WalletID: in.WalletID,
		Kind:     in.Kind,
		Amount:   in.Amount,
		Category: in.Category,
		Date:     now,
		Created:  now,
	}

	if updating {
		t.Created = old.Created
		t.Description = old.Description
		t.Date = old.Date
		t.Image = old.Image
		if in.UID == "" {
			t.UID = old.UID
		}
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Date != nil {
		t.Date = *in.Date
	}
	if image != nil {
		t.Image = image
	}
	return t
}

func (s *TransactionService) publish(ctx context.Context, t core.Transaction, action string) {
	if s.events == nil {
		return
	}
	ev := amqp.NewTransactionEvent(t.ID, t.WalletID, t.UID, action)
	if err := s.events.PublishTransactionEvent(ctx, ev); err != nil {
		// The mutation already committed; the periodic export sweep
		// covers lost events.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", t.ID,
			"action", action,
			"error", err)
	}
}
