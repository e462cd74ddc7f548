package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"walletbook/internal/core"
	"walletbook/internal/store/memory"
)

func TestCreateWalletStartsAtZero(t *testing.T) {
	st := memory.New()
	svc := NewWalletService(st, &fakeUploader{})
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }

	w, err := svc.CreateOrUpdate(context.Background(), core.WalletInput{UID: "u1", Name: "Savings"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.ID == "" {
		t.Fatal("expected assigned wallet ID")
	}
	if !w.Amount.IsZero() || !w.TotalIncome.IsZero() || !w.TotalExpenses.IsZero() {
		t.Fatalf("new wallet carries funds: %+v", w)
	}
	if w.Created.IsZero() {
		t.Fatal("created timestamp not stamped")
	}
}

func TestCreateWalletRejectsEmptyName(t *testing.T) {
	svc := NewWalletService(memory.New(), &fakeUploader{})

	_, err := svc.CreateOrUpdate(context.Background(), core.WalletInput{UID: "u1", Name: "   "})
	if !errors.Is(err, core.ErrEmptyWalletName) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateWalletPreservesTotals(t *testing.T) {
	st := memory.New()
	svc := NewWalletService(st, &fakeUploader{})
	ctx := context.Background()

	w, _ := st.SaveWallet(ctx, core.Wallet{
		UID: "u1", Name: "Cash",
		Amount: dec("70"), TotalIncome: dec("100"), TotalExpenses: dec("30"),
		Created: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	updated, err := svc.CreateOrUpdate(ctx, core.WalletInput{ID: w.ID, UID: "u1", Name: "Cash (renamed)"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Cash (renamed)" {
		t.Fatalf("name = %q", updated.Name)
	}
	if !updated.Amount.Equal(dec("70")) ||
		!updated.TotalIncome.Equal(dec("100")) ||
		!updated.TotalExpenses.Equal(dec("30")) {
		t.Fatalf("totals changed: %+v", updated)
	}
	if !updated.Created.Equal(w.Created) {
		t.Fatal("created timestamp changed on update")
	}
}

func TestUpdateMissingWallet(t *testing.T) {
	svc := NewWalletService(memory.New(), &fakeUploader{})

	_, err := svc.CreateOrUpdate(context.Background(), core.WalletInput{ID: "ghost", UID: "u1", Name: "x"})
	if !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestWalletImageUploadFailureAborts(t *testing.T) {
	st := memory.New()
	svc := NewWalletService(st, &fakeUploader{err: errors.New("hosting unavailable")})
	ctx := context.Background()

	_, err := svc.CreateOrUpdate(ctx, core.WalletInput{
		UID: "u1", Name: "Cash",
		Image: &core.ImageRef{URI: "/tmp/logo.png"},
	})
	if err == nil {
		t.Fatal("expected upload failure")
	}

	ws, _ := st.ListWallets(ctx, "u1")
	if len(ws) != 0 {
		t.Fatalf("wallet written despite upload failure: %d", len(ws))
	}
}

func TestDeleteWalletCascades(t *testing.T) {
	st := memory.New()
	svc := NewWalletService(st, &fakeUploader{})
	ctx := context.Background()

	w, _ := st.SaveWallet(ctx, core.Wallet{UID: "u1", Name: "Cash", Amount: dec("0")})
	other, _ := st.SaveWallet(ctx, core.Wallet{UID: "u1", Name: "Other", Amount: dec("0")})

	for i := 0; i < 25; i++ {
		if _, err := st.SaveTransaction(ctx, core.Transaction{
			UID: "u1", WalletID: w.ID, Kind: core.Income, Amount: dec("1"),
			Date: time.Now(), Created: time.Now(),
		}); err != nil {
			t.Fatalf("seed tx %d: %v", i, err)
		}
	}
	keep, _ := st.SaveTransaction(ctx, core.Transaction{
		UID: "u1", WalletID: other.ID, Kind: core.Income, Amount: dec("1"),
		Date: time.Now(), Created: time.Now(),
	})

	if err := svc.Delete(ctx, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := st.GetWallet(ctx, w.ID); !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("wallet still present: %v", err)
	}
	orphans, _ := st.ListByWallet(ctx, w.ID, 0)
	if len(orphans) != 0 {
		t.Fatalf("%d transactions survived the cascade", len(orphans))
	}
	if _, err := st.GetTransaction(ctx, keep.ID); err != nil {
		t.Fatalf("cascade crossed wallets: %v", err)
	}
}

func TestDeleteMissingWallet(t *testing.T) {
	svc := NewWalletService(memory.New(), &fakeUploader{})

	err := svc.Delete(context.Background(), "ghost")
	if !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestListWalletsScopedByUser(t *testing.T) {
	st := memory.New()
	svc := NewWalletService(st, &fakeUploader{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		st.SaveWallet(ctx, core.Wallet{
			UID: "u1", Name: fmt.Sprintf("w%d", i),
			Created: time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC),
		})
	}
	st.SaveWallet(ctx, core.Wallet{UID: "u2", Name: "foreign"})

	ws, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ws) != 3 {
		t.Fatalf("len = %d", len(ws))
	}
	// Newest first.
	if ws[0].Name != "w2" || ws[2].Name != "w0" {
		t.Fatalf("order = %s..%s", ws[0].Name, ws[2].Name)
	}
}
