package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"rideshare/internal/geo"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// psql builds statements with PostgreSQL placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
	defaultLimit    = 100
)

// isConstraintError reports whether err is a unique or check violation.
func isConstraintError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation || pqErr.Code == checkViolation
	}
	return false
}

// expectOneRow maps a write that touched no rows to noRows.
func expectOneRow(result sql.Result, noRows error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return noRows
	}
	return nil
}

func splitPoints(points []geo.Point) ([]float64, []float64) {
	lats := make([]float64, len(points))
	lngs := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lngs[i] = p.Lng
	}
	return lats, lngs
}

func joinPoints(lats, lngs []float64) []geo.Point {
	n := min(len(lats), len(lngs))
	if n == 0 {
		return nil
	}
	points := make([]geo.Point, n)
	for i := 0; i < n; i++ {
		points[i] = geo.Point{Lat: lats[i], Lng: lngs[i]}
	}
	return points
}

func daysToInts(days []time.Weekday) []int64 {
	out := make([]int64, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func intsToDays(values []int64) []time.Weekday {
	out := make([]time.Weekday, len(values))
	for i, v := range values {
		out[i] = time.Weekday(v)
	}
	return out
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func limitOrDefault(limit uint64) uint64 {
	if limit == 0 {
		return defaultLimit
	}
	return limit
}
