// Package memory provides an in-memory TransactionAppender for tests and
// local runs without Google credentials.
package memory

import (
	"context"
	"sync"

	"walletbook/internal/core"
	ports "walletbook/internal/sheets"
)

type Appender struct {
	mu   sync.Mutex
	rows []core.Transaction
	err  error
}

var _ ports.TransactionAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

// FailWith makes every subsequent append return err. Passing nil clears
// the failure.
func (a *Appender) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

func (a *Appender) AppendTransaction(_ context.Context, t core.Transaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.rows = append(a.rows, t)
	return nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []core.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Transaction, len(a.rows))
	copy(out, a.rows)
	return out
}
