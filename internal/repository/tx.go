package repository

import "context"

// TxRepos exposes the repositories bound to one database transaction.
type TxRepos interface {
	Trips() TripRepository
	Requests() RequestRepository
}

// Transactor runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}
