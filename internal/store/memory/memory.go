// Package memory is the in-process document store backend. It backs unit
// tests and the default development configuration.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"walletbook/internal/core"
)

type Store struct {
	mu           sync.Mutex
	wallets      map[string]core.Wallet
	transactions map[string]core.Transaction
	exported     map[string]bool
}

func New() *Store {
	return &Store{
		wallets:      make(map[string]core.Wallet),
		transactions: make(map[string]core.Transaction),
		exported:     make(map[string]bool),
	}
}

func (s *Store) GetWallet(_ context.Context, id string) (core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return core.Wallet{}, core.ErrWalletNotFound
	}
	return w, nil
}

func (s *Store) SaveWallet(_ context.Context, w core.Wallet) (core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	s.wallets[w.ID] = w
	return w, nil
}

func (s *Store) UpdateWalletFunds(_ context.Context, id string, amount, total decimal.Decimal, kind core.TransactionKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return core.ErrWalletNotFound
	}
	w.Amount = amount
	switch kind {
	case core.Income:
		w.TotalIncome = total
	case core.Expense:
		w.TotalExpenses = total
	default:
		return core.ErrMissingKind
	}
	s.wallets[id] = w
	return nil
}

func (s *Store) DeleteWallet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[id]; !ok {
		return core.ErrWalletNotFound
	}
	delete(s.wallets, id)
	return nil
}

func (s *Store) ListWallets(_ context.Context, uid string) ([]core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Wallet
	for _, w := range s.wallets {
		if w.UID == uid {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	return t, nil
}

func (s *Store) SaveTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.transactions[t.ID] = t
	s.exported[t.ID] = false
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return core.ErrTransactionNotFound
	}
	delete(s.transactions, id)
	delete(s.exported, id)
	return nil
}

func (s *Store) DeleteTransactions(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.transactions, id)
		delete(s.exported, id)
	}
	return nil
}

func (s *Store) ListByWallet(_ context.Context, walletID string, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.WalletID != walletID {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) ListByUser(_ context.Context, uid string, from, to time.Time) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UID != uid {
			continue
		}
		if !from.IsZero() && t.Date.Before(from) {
			continue
		}
		if !to.IsZero() && t.Date.After(to) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) ListUnexported(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for id, t := range s.transactions {
		if s.exported[id] {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return core.ErrTransactionNotFound
	}
	s.exported[id] = true
	return nil
}
