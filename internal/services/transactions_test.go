package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"walletbook/internal/amqp"
	"walletbook/internal/core"
	"walletbook/internal/store/memory"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, ref *core.ImageRef, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if ref.IsRemote() {
		return ref.URL, nil
	}
	return f.url, nil
}

type recordingPublisher struct {
	events []*amqp.TransactionEvent
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, ev *amqp.TransactionEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func newTestSetup(t *testing.T) (*memory.Store, *TransactionService, *recordingPublisher) {
	t.Helper()
	st := memory.New()
	pub := &recordingPublisher{}
	svc := NewTransactionService(st, &fakeUploader{url: "https://img.example/up.jpg"}, pub)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return st, svc, pub
}

func seedWallet(t *testing.T, st *memory.Store, amount string) core.Wallet {
	t.Helper()
	w, err := st.SaveWallet(context.Background(), core.Wallet{
		UID:           "u1",
		Name:          "Cash",
		Amount:        dec(amount),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		Created:       time.Now(),
	})
	if err != nil {
		t.Fatalf("seed wallet: %v", err)
	}
	return w
}

func getWallet(t *testing.T, st *memory.Store, id string) core.Wallet {
	t.Helper()
	w, err := st.GetWallet(context.Background(), id)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return w
}

func TestCreateIncomeTransaction(t *testing.T) {
	st, svc, pub := newTestSetup(t)
	w := seedWallet(t, st, "100")

	tx, err := svc.CreateOrUpdate(context.Background(), core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Income, Amount: dec("40"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected assigned transaction ID")
	}

	got := getWallet(t, st, w.ID)
	if !got.Amount.Equal(dec("140")) || !got.TotalIncome.Equal(dec("40")) {
		t.Fatalf("wallet = %s / income %s", got.Amount, got.TotalIncome)
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionCreated {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestCreateExpenseInsufficientBalance(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	w := seedWallet(t, st, "20")

	_, err := svc.CreateOrUpdate(context.Background(), core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("25"), Category: "food",
	})
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want insufficient balance", err)
	}

	// Wallet untouched, no document created.
	got := getWallet(t, st, w.ID)
	if !got.Amount.Equal(dec("20")) || !got.TotalExpenses.Equal(dec("0")) {
		t.Fatalf("wallet mutated: %s / %s", got.Amount, got.TotalExpenses)
	}
	txs, _ := st.ListByWallet(context.Background(), w.ID, 0)
	if len(txs) != 0 {
		t.Fatalf("transaction document written: %d", len(txs))
	}
}

func TestCreateInvalidInputWritesNothing(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	w := seedWallet(t, st, "50")

	cases := []core.TransactionInput{
		{UID: "u1", WalletID: w.ID, Kind: core.Income, Amount: dec("0")},
		{UID: "u1", WalletID: w.ID, Kind: core.Income, Amount: dec("-1")},
		{UID: "u1", Kind: core.Income, Amount: dec("5")},
		{UID: "u1", WalletID: w.ID, Amount: dec("5")},
	}
	for _, in := range cases {
		if _, err := svc.CreateOrUpdate(context.Background(), in); err == nil {
			t.Fatalf("expected validation failure for %+v", in)
		}
	}

	got := getWallet(t, st, w.ID)
	if !got.Amount.Equal(dec("50")) {
		t.Fatalf("wallet mutated: %s", got.Amount)
	}
}

func TestCreateMissingWalletFails(t *testing.T) {
	_, svc, _ := newTestSetup(t)

	_, err := svc.CreateOrUpdate(context.Background(), core.TransactionInput{
		UID: "u1", WalletID: "nope", Kind: core.Income, Amount: dec("5"),
	})
	if !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("err = %v", err)
	}
}

// Wallet W starts at 100. Expense 30 -> 70/30. Edit to 50 -> 50/50.
// Delete -> back to 100/0.
func TestExpenseEditAndDeleteScenario(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	w := seedWallet(t, st, "100")
	ctx := context.Background()

	tx, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("30"), Category: "food",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got := getWallet(t, st, w.ID)
	if !got.Amount.Equal(dec("70")) || !got.TotalExpenses.Equal(dec("30")) {
		t.Fatalf("after create: %s / %s", got.Amount, got.TotalExpenses)
	}

	if _, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		ID: tx.ID, UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("50"), Category: "food",
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got = getWallet(t, st, w.ID)
	if !got.Amount.Equal(dec("50")) || !got.TotalExpenses.Equal(dec("50")) {
		t.Fatalf("after edit: %s / %s", got.Amount, got.TotalExpenses)
	}

	if err := svc.Delete(ctx, tx.ID, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got = getWallet(t, st, w.ID)
	if !got.Amount.Equal(dec("100")) || !got.TotalExpenses.Equal(dec("0")) {
		t.Fatalf("after delete: %s / %s", got.Amount, got.TotalExpenses)
	}
	if _, err := st.GetTransaction(ctx, tx.ID); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("document still present: %v", err)
	}
}

func TestMetadataEditDoesNotTouchWallet(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	w := seedWallet(t, st, "100")
	ctx := context.Background()

	tx, _ := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("30"), Category: "food",
	})
	before := getWallet(t, st, w.ID)

	desc := "groceries at the market"
	date := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	updated, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		ID: tx.ID, UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("30"), Category: "food",
		Description: &desc, Date: &date,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Description != desc || !updated.Date.Equal(date) {
		t.Fatalf("merge failed: %+v", updated)
	}
	if updated.Category != "food" {
		t.Fatalf("category lost: %q", updated.Category)
	}

	after := getWallet(t, st, w.ID)
	if !after.Amount.Equal(before.Amount) || !after.TotalExpenses.Equal(before.TotalExpenses) {
		t.Fatal("metadata edit mutated the wallet")
	}
}

func TestMergePreservesAbsentFields(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	w := seedWallet(t, st, "100")
	ctx := context.Background()

	desc := "dinner"
	tx, _ := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("10"), Category: "food",
		Description: &desc, Image: &core.ImageRef{URL: "https://img.example/r.jpg"},
	})

	// Amount-only edit: description and image must survive.
	updated, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		ID: tx.ID, UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("15"), Category: "food",
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Description != "dinner" {
		t.Fatalf("description lost: %q", updated.Description)
	}
	if !updated.Image.IsRemote() {
		t.Fatal("image lost")
	}
	if !updated.Created.Equal(tx.Created) {
		t.Fatal("created timestamp changed on update")
	}
	_ = st
}

func TestMoveTransactionBetweenWallets(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	src := seedWallet(t, st, "100")
	dst := seedWallet(t, st, "80")
	bystander := seedWallet(t, st, "7")
	ctx := context.Background()

	tx, _ := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: src.ID, Kind: core.Expense, Amount: dec("30"), Category: "food",
	})

	if _, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		ID: tx.ID, UID: "u1", WalletID: dst.ID, Kind: core.Expense, Amount: dec("30"), Category: "food",
	}); err != nil {
		t.Fatalf("move: %v", err)
	}

	gotSrc := getWallet(t, st, src.ID)
	if !gotSrc.Amount.Equal(dec("100")) || !gotSrc.TotalExpenses.Equal(dec("0")) {
		t.Fatalf("old wallet not fully reverted: %s / %s", gotSrc.Amount, gotSrc.TotalExpenses)
	}
	gotDst := getWallet(t, st, dst.ID)
	if !gotDst.Amount.Equal(dec("50")) || !gotDst.TotalExpenses.Equal(dec("30")) {
		t.Fatalf("new wallet not applied: %s / %s", gotDst.Amount, gotDst.TotalExpenses)
	}
	gotBystander := getWallet(t, st, bystander.ID)
	if !gotBystander.Amount.Equal(dec("7")) {
		t.Fatalf("unrelated wallet touched: %s", gotBystander.Amount)
	}

	moved, _ := st.GetTransaction(ctx, tx.ID)
	if moved.WalletID != dst.ID {
		t.Fatalf("document walletId = %q", moved.WalletID)
	}
}

func TestKindChangeRebalancesTotals(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	w := seedWallet(t, st, "100")
	ctx := context.Background()

	tx, _ := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Income, Amount: dec("40"),
	})
	// income 40: balance 140

	if _, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		ID: tx.ID, UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("40"), Category: "misc",
	}); err != nil {
		t.Fatalf("retype: %v", err)
	}

	got := getWallet(t, st, w.ID)
	if !got.Amount.Equal(dec("60")) {
		t.Fatalf("amount = %s, want 60", got.Amount)
	}
	if !got.TotalIncome.Equal(dec("0")) || !got.TotalExpenses.Equal(dec("40")) {
		t.Fatalf("totals = %s / %s", got.TotalIncome, got.TotalExpenses)
	}
}

func TestEditInsufficientBalanceSameWallet(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	w := seedWallet(t, st, "100")
	ctx := context.Background()

	tx, _ := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("30"), Category: "food",
	})
	// balance 70; reverted balance would be 100, so 120 must fail

	_, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		ID: tx.ID, UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("120"), Category: "food",
	})
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("err = %v", err)
	}

	// Nothing committed: wallet still reflects the original expense.
	got := getWallet(t, st, w.ID)
	if !got.Amount.Equal(dec("70")) || !got.TotalExpenses.Equal(dec("30")) {
		t.Fatalf("wallet = %s / %s", got.Amount, got.TotalExpenses)
	}
	doc, _ := st.GetTransaction(ctx, tx.ID)
	if !doc.Amount.Equal(dec("30")) {
		t.Fatalf("document changed: %s", doc.Amount)
	}
}

func TestEditInsufficientBalanceOnDestinationWallet(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	src := seedWallet(t, st, "100")
	dst := seedWallet(t, st, "10")
	ctx := context.Background()

	tx, _ := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: src.ID, Kind: core.Expense, Amount: dec("30"), Category: "food",
	})

	_, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		ID: tx.ID, UID: "u1", WalletID: dst.ID, Kind: core.Expense, Amount: dec("30"), Category: "food",
	})
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("err = %v", err)
	}

	// Neither wallet committed anything.
	gotSrc := getWallet(t, st, src.ID)
	if !gotSrc.Amount.Equal(dec("70")) || !gotSrc.TotalExpenses.Equal(dec("30")) {
		t.Fatalf("src = %s / %s", gotSrc.Amount, gotSrc.TotalExpenses)
	}
	gotDst := getWallet(t, st, dst.ID)
	if !gotDst.Amount.Equal(dec("10")) || !gotDst.TotalExpenses.Equal(dec("0")) {
		t.Fatalf("dst = %s / %s", gotDst.Amount, gotDst.TotalExpenses)
	}
}

func TestUpdateMissingTransaction(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	w := seedWallet(t, st, "100")

	_, err := svc.CreateOrUpdate(context.Background(), core.TransactionInput{
		ID: "ghost", UID: "u1", WalletID: w.ID, Kind: core.Income, Amount: dec("5"),
	})
	if !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestDeleteMissingTransaction(t *testing.T) {
	st, svc, _ := newTestSetup(t)
	w := seedWallet(t, st, "100")

	err := svc.Delete(context.Background(), "ghost", w.ID)
	if !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestImageUploadedBeforeDocumentWrite(t *testing.T) {
	st := memory.New()
	up := &fakeUploader{url: "https://img.example/receipt.jpg"}
	svc := NewTransactionService(st, up, nil)
	ctx := context.Background()

	w, _ := st.SaveWallet(ctx, core.Wallet{UID: "u1", Name: "Cash", Amount: dec("100")})

	tx, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("10"), Category: "food",
		Image: &core.ImageRef{URI: "/tmp/receipt.jpg"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if up.calls != 1 {
		t.Fatalf("uploader calls = %d", up.calls)
	}
	if tx.Image == nil || tx.Image.URL != "https://img.example/receipt.jpg" {
		t.Fatalf("image = %+v", tx.Image)
	}
}

func TestImageUploadFailureAbortsDocumentWrite(t *testing.T) {
	st := memory.New()
	up := &fakeUploader{err: errors.New("hosting unavailable")}
	svc := NewTransactionService(st, up, nil)
	ctx := context.Background()

	w, _ := st.SaveWallet(ctx, core.Wallet{UID: "u1", Name: "Cash", Amount: dec("100")})

	_, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Expense, Amount: dec("10"), Category: "food",
		Image: &core.ImageRef{URI: "/tmp/receipt.jpg"},
	})
	if err == nil {
		t.Fatal("expected upload failure")
	}

	txs, _ := st.ListByWallet(ctx, w.ID, 0)
	if len(txs) != 0 {
		t.Fatalf("document written despite upload failure: %d", len(txs))
	}
}

func TestRemoteImagePassesThroughWithoutUpload(t *testing.T) {
	st := memory.New()
	up := &fakeUploader{url: "https://img.example/should-not-be-used.jpg"}
	svc := NewTransactionService(st, up, nil)
	ctx := context.Background()

	w, _ := st.SaveWallet(ctx, core.Wallet{UID: "u1", Name: "Cash", Amount: dec("100")})

	tx, err := svc.CreateOrUpdate(ctx, core.TransactionInput{
		UID: "u1", WalletID: w.ID, Kind: core.Income, Amount: dec("10"),
		Image: &core.ImageRef{URL: "https://img.example/existing.jpg"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if up.calls != 0 {
		t.Fatalf("uploader called for remote reference: %d", up.calls)
	}
	if tx.Image.URL != "https://img.example/existing.jpg" {
		t.Fatalf("image = %+v", tx.Image)
	}
}
