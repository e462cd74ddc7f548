package core

import "github.com/shopspring/decimal"

// PeriodStat is income and expense aggregated over one bucket of a
// statistics range (a day, a month or a year).
type PeriodStat struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// StatsOverview is the result of a statistics query: the bucketed totals
// plus the transactions that fed them, newest first.
type StatsOverview struct {
	Buckets      []PeriodStat  `json:"stats"`
	Transactions []Transaction `json:"transactions"`
}
