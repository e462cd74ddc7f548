package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"walletbook/internal/core"
	"walletbook/internal/store"
)

// StatsService aggregates a user's transactions into the income/expense
// buckets the client charts: per day over the last week, per month over
// the last year, per year over all history.
type StatsService struct {
	store store.TransactionStore
	now   func() time.Time
}

func NewStatsService(st store.TransactionStore) *StatsService {
	return &StatsService{store: st, now: time.Now}
}

// Weekly returns one bucket per day for the last 7 days, oldest first.
// Empty days are present with zero totals.
func (s *StatsService) Weekly(ctx context.Context, uid string) (core.StatsOverview, error) {
	now := s.now()
	from := now.AddDate(0, 0, -7)

	txs, err := s.store.ListByUser(ctx, uid, from, now)
	if err != nil {
		return core.StatsOverview{}, fmt.Errorf("list weekly transactions: %w", err)
	}

	buckets := make([]core.PeriodStat, 0, 7)
	index := make(map[string]int, 7)
	for i := 6; i >= 0; i-- {
		label := now.AddDate(0, 0, -i).Format("2006-01-02")
		index[label] = len(buckets)
		buckets = append(buckets, core.PeriodStat{Label: label})
	}

	for _, t := range txs {
		if i, ok := index[t.Date.Format("2006-01-02")]; ok {
			addToBucket(&buckets[i], t)
		}
	}

	return core.StatsOverview{Buckets: buckets, Transactions: txs}, nil
}

// Monthly returns one bucket per month for the last 12 months, oldest
// first, labeled like "Mar26".
func (s *StatsService) Monthly(ctx context.Context, uid string) (core.StatsOverview, error) {
	now := s.now()
	from := now.AddDate(0, -12, 0)

	txs, err := s.store.ListByUser(ctx, uid, from, now)
	if err != nil {
		return core.StatsOverview{}, fmt.Errorf("list monthly transactions: %w", err)
	}

	buckets := make([]core.PeriodStat, 0, 12)
	index := make(map[string]int, 12)
	for i := 11; i >= 0; i-- {
		label := monthLabel(now.AddDate(0, -i, 0))
		index[label] = len(buckets)
		buckets = append(buckets, core.PeriodStat{Label: label})
	}

	for _, t := range txs {
		if i, ok := index[monthLabel(t.Date)]; ok {
			addToBucket(&buckets[i], t)
		}
	}

	return core.StatsOverview{Buckets: buckets, Transactions: txs}, nil
}

// Yearly returns one bucket per calendar year over the user's whole
// history, ascending. Only years with activity appear.
func (s *StatsService) Yearly(ctx context.Context, uid string) (core.StatsOverview, error) {
	txs, err := s.store.ListByUser(ctx, uid, time.Time{}, time.Time{})
	if err != nil {
		return core.StatsOverview{}, fmt.Errorf("list yearly transactions: %w", err)
	}

	byYear := make(map[string]*core.PeriodStat)
	for _, t := range txs {
		label := t.Date.Format("2006")
		b, ok := byYear[label]
		if !ok {
			b = &core.PeriodStat{Label: label}
			byYear[label] = b
		}
		addToBucket(b, t)
	}

	buckets := make([]core.PeriodStat, 0, len(byYear))
	for _, b := range byYear {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Label < buckets[j].Label })

	return core.StatsOverview{Buckets: buckets, Transactions: txs}, nil
}

func addToBucket(b *core.PeriodStat, t core.Transaction) {
	switch t.Kind {
	case core.Income:
		b.Income = b.Income.Add(t.Amount)
	case core.Expense:
		b.Expense = b.Expense.Add(t.Amount)
	}
}

func monthLabel(t time.Time) string {
	return t.Format("Jan06")
}
