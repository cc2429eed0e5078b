package repository

import "context"

// TxRepos 同一事务内的仓储
type TxRepos struct {
	Events     EventRepository
	Series     EventSeriesRepository
	Exceptions EventExceptionRepository
	Shares     SharedTargetRepository
}

type CalendarUnitOfWork interface {
	Transaction(ctx context.Context, fn func(repos TxRepos) error) error
}
