// Package core holds the domain model of walletbook: wallets, transactions
// and the pure ledger arithmetic that keeps a wallet's balance and
// income/expense totals consistent with the transactions applied to it.
package core

import "github.com/shopspring/decimal"

// ApplyToWallet returns a copy of w with the monetary effect of a
// transaction applied for the first time: income raises the balance and
// TotalIncome, expense lowers the balance and raises TotalExpenses.
//
// An expense larger than the current balance fails with
// ErrInsufficientBalance; a wallet balance never goes negative through
// this path.
func ApplyToWallet(w Wallet, amount decimal.Decimal, kind TransactionKind) (Wallet, error) {
	switch kind {
	case Income:
		w.Amount = w.Amount.Add(amount)
		w.TotalIncome = w.TotalIncome.Add(amount)
	case Expense:
		if amount.GreaterThan(w.Amount) {
			return w, ErrInsufficientBalance
		}
		w.Amount = w.Amount.Sub(amount)
		w.TotalExpenses = w.TotalExpenses.Add(amount)
	default:
		return w, ErrMissingKind
	}
	return w, nil
}

// RevertFromWallet is the exact inverse of ApplyToWallet. It restores the
// state the wallet had before the transaction was applied, so it performs
// no sufficiency check: the prior state is assumed to have been valid when
// the effect was first applied.
func RevertFromWallet(w Wallet, amount decimal.Decimal, kind TransactionKind) (Wallet, error) {
	switch kind {
	case Income:
		w.Amount = w.Amount.Sub(amount)
		w.TotalIncome = w.TotalIncome.Sub(amount)
	case Expense:
		w.Amount = w.Amount.Add(amount)
		w.TotalExpenses = w.TotalExpenses.Sub(amount)
	default:
		return w, ErrMissingKind
	}
	return w, nil
}

// TotalFor returns the running total that corresponds to the given kind.
// Dispatch is an explicit two-case switch; there is deliberately no
// string-keyed field selection anywhere in the ledger.
func (w Wallet) TotalFor(kind TransactionKind) decimal.Decimal {
	if kind == Income {
		return w.TotalIncome
	}
	return w.TotalExpenses
}
