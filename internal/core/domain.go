package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

type (
	// TransactionKind discriminates the two supported transaction kinds.
	// A "transfer" kind shows up in old client option lists but never had
	// ledger semantics, so it is not represented here.
	TransactionKind string

	// ImageRef references an attached image. URI points at a local file
	// that still has to be uploaded; URL is the hosted location once the
	// upload happened. At most one of the two is meaningful at a time.
	ImageRef struct {
		URI string `json:"uri,omitempty"`
		URL string `json:"url,omitempty"`
	}

	// Wallet is a named balance-holding account with running totals.
	// Amount tracks TotalIncome - TotalExpenses under normal sequential
	// operation; every mutation of Amount is paired with the matching
	// total mutation.
	Wallet struct {
		ID            string          `json:"id"`
		UID           string          `json:"uid"`
		Name          string          `json:"name"`
		Image         *ImageRef       `json:"image,omitempty"`
		Amount        decimal.Decimal `json:"amount"`
		TotalIncome   decimal.Decimal `json:"totalIncome"`
		TotalExpenses decimal.Decimal `json:"totalExpenses"`
		Created       time.Time       `json:"created"`
	}

	// Transaction is a single income or expense event attributed to
	// exactly one wallet.
	Transaction struct {
		ID          string          `json:"id"`
		UID         string          `json:"uid"`
		WalletID    string          `json:"walletId"`
		Kind        TransactionKind `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category,omitempty"`
		Description string          `json:"description,omitempty"`
		Date        time.Time       `json:"date"`
		Image       *ImageRef       `json:"image,omitempty"`
		Created     time.Time       `json:"created"`
	}

	// TransactionInput is the payload accepted by the reconciler. An empty
	// ID means create. Description, Date and Image are optional; absent
	// fields are preserved on update (merge write).
	TransactionInput struct {
		ID          string          `json:"id,omitempty"`
		UID         string          `json:"uid"`
		WalletID    string          `json:"walletId"`
		Kind        TransactionKind `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category,omitempty"`
		Description *string         `json:"description,omitempty"`
		Date        *time.Time      `json:"date,omitempty"`
		Image       *ImageRef       `json:"image,omitempty"`
	}

	// WalletInput is the payload accepted by the wallet lifecycle manager.
	// Balance fields are never part of the payload; new wallets start at
	// zero and existing totals are preserved.
	WalletInput struct {
		ID    string    `json:"id,omitempty"`
		UID   string    `json:"uid"`
		Name  string    `json:"name"`
		Image *ImageRef `json:"image,omitempty"`
	}
)

// Business-rule failures. These are returned as values, matched with
// errors.Is at the public boundary and rendered as structured failure
// responses, never as panics.
var (
	ErrInvalidAmount       = errors.New("transaction amount must be positive")
	ErrMissingWallet       = errors.New("missing wallet reference")
	ErrMissingKind         = errors.New("missing or unsupported transaction type")
	ErrMissingCategory     = errors.New("missing expense category")
	ErrEmptyWalletName     = errors.New("empty wallet name")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientBalance = errors.New("selected wallet does not have enough balance")
)

// Valid reports whether the kind is one of the two supported kinds.
func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

// IsRemote reports whether the reference already points at a hosted URL,
// in which case upload is a pass-through.
func (r *ImageRef) IsRemote() bool {
	return r != nil && r.URL != ""
}

// NeedsUpload reports whether the reference carries a local file that has
// not been uploaded yet.
func (r *ImageRef) NeedsUpload() bool {
	return r != nil && r.URL == "" && strings.TrimSpace(r.URI) != ""
}

// Validate checks the reconciler preconditions. It runs before any write:
// a payload that fails here must not touch a wallet or a document.
func (in TransactionInput) Validate() error {
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(in.WalletID) == "" {
		return ErrMissingWallet
	}
	switch in.Kind {
	case Income:
	case Expense:
		if strings.TrimSpace(in.Category) == "" {
			return ErrMissingCategory
		}
	default:
		return ErrMissingKind
	}
	return nil
}

func (in WalletInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyWalletName
	}
	return nil
}
