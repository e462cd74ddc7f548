package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"walletbook/internal/core"
	"walletbook/internal/images"
	"walletbook/internal/store"
)

// WalletService manages wallet metadata and lifecycle. Balance fields are
// never set from a payload: new wallets start at zero and the ledger is
// the only writer of funds afterwards.
type WalletService struct {
	store    store.Store
	uploader images.Uploader
	now      func() time.Time
}

func NewWalletService(st store.Store, uploader images.Uploader) *WalletService {
	return &WalletService{
		store:    st,
		uploader: uploader,
		now:      time.Now,
	}
}

// CreateOrUpdate creates a wallet or edits its name/image. The image is
// uploaded first when it is a local file; an upload failure aborts before
// any document write. Existing totals are always preserved.
func (s *WalletService) CreateOrUpdate(ctx context.Context, in core.WalletInput) (core.Wallet, error) {
	if err := in.Validate(); err != nil {
		return core.Wallet{}, err
	}

	image := in.Image
	if image.NeedsUpload() {
		if s.uploader == nil {
			return core.Wallet{}, errors.New("image uploads are not configured")
		}
		url, err := s.uploader.Upload(ctx, image, "wallets")
		if err != nil {
			return core.Wallet{}, fmt.Errorf("upload wallet image: %w", err)
		}
		image = &core.ImageRef{URL: url}
	}

	if in.ID == "" {
		return s.store.SaveWallet(ctx, core.Wallet{
			UID:           in.UID,
			Name:          in.Name,
			Image:         image,
			Amount:        decimal.Zero,
			TotalIncome:   decimal.Zero,
			TotalExpenses: decimal.Zero,
			Created:       s.now(),
		})
	}

	existing, err := s.store.GetWallet(ctx, in.ID)
	if err != nil {
		return core.Wallet{}, err
	}
	existing.Name = in.Name
	if image != nil {
		existing.Image = image
	}
	return s.store.SaveWallet(ctx, existing)
}

// Get returns a single wallet.
func (s *WalletService) Get(ctx context.Context, id string) (core.Wallet, error) {
	return s.store.GetWallet(ctx, id)
}

// List returns a user's wallets, newest first.
func (s *WalletService) List(ctx context.Context, uid string) ([]core.Wallet, error) {
	return s.store.ListWallets(ctx, uid)
}

// Delete removes a wallet and every transaction referencing it. The
// cascade runs first, in bounded batches, each batch deleted as a whole
// before the next page is fetched; the wallet document goes last, so a
// failure mid-cascade never leaves orphaned transactions behind a deleted
// wallet. A crash between batches can leave the cascade incomplete.
func (s *WalletService) Delete(ctx context.Context, walletID string) error {
	if _, err := s.store.GetWallet(ctx, walletID); err != nil {
		return err
	}

	for {
		page, err := s.store.ListByWallet(ctx, walletID, store.CascadeBatchSize)
		if err != nil {
			return fmt.Errorf("list wallet transactions: %w", err)
		}
		if len(page) == 0 {
			break
		}

		ids := make([]string, len(page))
		for i, t := range page {
			ids[i] = t.ID
		}
		if err := s.store.DeleteTransactions(ctx, ids); err != nil {
			return fmt.Errorf("delete transaction batch: %w", err)
		}

		slog.InfoContext(ctx, "Deleted transaction batch for wallet",
			"wallet_id", walletID,
			"count", len(ids))
	}

	if err := s.store.DeleteWallet(ctx, walletID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Wallet deleted", "wallet_id", walletID)
	return nil
}
