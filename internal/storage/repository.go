// Package storage is the SQLite-backed document store. Wallets and
// transactions are rows with string IDs; monetary values are stored as
// decimal strings to avoid float drift.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"walletbook/internal/core"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) GetWallet(ctx context.Context, id string) (core.Wallet, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, uid, name, image_url, amount, total_income, total_expenses, created
		FROM wallets WHERE id = ?`, id)
	w, err := scanWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, core.ErrWalletNotFound
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func (r *SQLiteRepository) SaveWallet(ctx context.Context, w core.Wallet) (core.Wallet, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (id, uid, name, image_url, amount, total_income, total_expenses, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uid = excluded.uid,
			name = excluded.name,
			image_url = excluded.image_url,
			amount = excluded.amount,
			total_income = excluded.total_income,
			total_expenses = excluded.total_expenses`,
		w.ID, w.UID, w.Name, imageURL(w.Image),
		w.Amount.String(), w.TotalIncome.String(), w.TotalExpenses.String(), w.Created)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("save wallet: %w", err)
	}
	return w, nil
}

// UpdateWalletFunds writes only the balance and the running total that
// corresponds to kind; all other fields stay untouched.
func (r *SQLiteRepository) UpdateWalletFunds(ctx context.Context, id string, amount, total decimal.Decimal, kind core.TransactionKind) error {
	var column string
	switch kind {
	case core.Income:
		column = "total_income"
	case core.Expense:
		column = "total_expenses"
	default:
		return core.ErrMissingKind
	}

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE wallets SET amount = ?, %s = ? WHERE id = ?", column),
		amount.String(), total.String(), id)
	if err != nil {
		return fmt.Errorf("update wallet funds: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrWalletNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteWallet(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM wallets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrWalletNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListWallets(ctx context.Context, uid string) ([]core.Wallet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, uid, name, image_url, amount, total_income, total_expenses, created
		FROM wallets WHERE uid = ? ORDER BY created DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var out []core.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, uid, wallet_id, kind, amount, category, description, date, image_url, created
		FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) SaveTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, uid, wallet_id, kind, amount, category, description, date, image_url, created, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			uid = excluded.uid,
			wallet_id = excluded.wallet_id,
			kind = excluded.kind,
			amount = excluded.amount,
			category = excluded.category,
			description = excluded.description,
			date = excluded.date,
			image_url = excluded.image_url,
			exported_at = NULL`,
		t.ID, t.UID, t.WalletID, string(t.Kind), t.Amount.String(),
		t.Category, t.Description, t.Date, imageURL(t.Image), t.Created)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"wallet_id", t.WalletID,
		"kind", string(t.Kind),
		"amount", t.Amount.String())

	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

// DeleteTransactions removes one cascade batch inside a single database
// transaction, so the batch commits or rolls back as a whole.
func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch delete: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transactions WHERE id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("batch delete transactions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch delete: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByWallet(ctx context.Context, walletID string, limit int) ([]core.Transaction, error) {
	q := `
		SELECT id, uid, wallet_id, kind, amount, category, description, date, image_url, created
		FROM transactions WHERE wallet_id = ?`
	args := []any{walletID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryTransactions(ctx, q, args...)
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, uid string, from, to time.Time) ([]core.Transaction, error) {
	q := `
		SELECT id, uid, wallet_id, kind, amount, category, description, date, image_url, created
		FROM transactions WHERE uid = ?`
	args := []any{uid}
	if !from.IsZero() {
		q += " AND date >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		q += " AND date <= ?"
		args = append(args, to)
	}
	q += " ORDER BY date DESC"
	return r.queryTransactions(ctx, q, args...)
}

func (r *SQLiteRepository) ListUnexported(ctx context.Context, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx, `
		SELECT id, uid, wallet_id, kind, amount, category, description, date, image_url, created
		FROM transactions WHERE exported_at IS NULL ORDER BY created LIMIT ?`, limit)
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET exported_at = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, q string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (core.Wallet, error) {
	var (
		w                     core.Wallet
		img                   string
		amount, income, spent string
	)
	if err := row.Scan(&w.ID, &w.UID, &w.Name, &img, &amount, &income, &spent, &w.Created); err != nil {
		return core.Wallet{}, err
	}
	var err error
	if w.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Wallet{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if w.TotalIncome, err = decimal.NewFromString(income); err != nil {
		return core.Wallet{}, fmt.Errorf("parse total_income %q: %w", income, err)
	}
	if w.TotalExpenses, err = decimal.NewFromString(spent); err != nil {
		return core.Wallet{}, fmt.Errorf("parse total_expenses %q: %w", spent, err)
	}
	if img != "" {
		w.Image = &core.ImageRef{URL: img}
	}
	return w, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t            core.Transaction
		kind, amount string
		img          string
	)
	if err := row.Scan(&t.ID, &t.UID, &t.WalletID, &kind, &amount, &t.Category, &t.Description, &t.Date, &img, &t.Created); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.TransactionKind(kind)
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if img != "" {
		t.Image = &core.ImageRef{URL: img}
	}
	return t, nil
}

func imageURL(r *core.ImageRef) string {
	if r == nil {
		return ""
	}
	return r.URL
}
