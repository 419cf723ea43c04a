package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coindash/coindash/internal/models"
)

type QuoteRepo struct {
	pool *pgxpool.Pool
}

func NewQuoteRepo(pool *pgxpool.Pool) *QuoteRepo {
	return &QuoteRepo{pool: pool}
}

func (r *QuoteRepo) Record(ctx context.Context, symbol string, price float64, source string, ts time.Time) (*models.QuoteRecord, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO quote_history (symbol, price, source, timestamp, day)
		 VALUES ($1, $2, $3, $4, $5) RETURNING *`,
		symbol, price, source, ts, UTCDay(ts),
	)
	return scanQuote(row)
}

func (r *QuoteRepo) GetLatest(ctx context.Context, symbol string) (*models.QuoteRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT * FROM quote_history WHERE symbol = $1 ORDER BY timestamp DESC LIMIT 1`,
		symbol,
	)
	rec, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *QuoteRepo) GetByDay(ctx context.Context, symbol, day string) ([]models.QuoteRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM quote_history WHERE symbol = $1 AND day = $2 ORDER BY timestamp ASC`,
		symbol, day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuotes(rows)
}

func (r *QuoteRepo) GetAvailableDays(ctx context.Context, symbol string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT day FROM quote_history WHERE symbol = $1 ORDER BY day ASC LIMIT 90`,
		symbol,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d.Format("2006-01-02"))
	}
	return days, rows.Err()
}

// Prune removes records older than the retention window and returns the
// number of rows deleted.
func (r *QuoteRepo) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM quote_history WHERE timestamp < $1`,
		time.Now().Add(-olderThan),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanQuote(row scannable) (*models.QuoteRecord, error) {
	var q models.QuoteRecord
	var day time.Time
	err := row.Scan(&q.ID, &q.Symbol, &q.Price, &q.Source, &q.Timestamp, &day, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.Day = day.Format("2006-01-02")
	return &q, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectQuotes(rows rowsIter) ([]models.QuoteRecord, error) {
	var out []models.QuoteRecord
	for rows.Next() {
		var q models.QuoteRecord
		var day time.Time
		if err := rows.Scan(&q.ID, &q.Symbol, &q.Price, &q.Source, &q.Timestamp, &day, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Day = day.Format("2006-01-02")
		out = append(out, q)
	}
	return out, rows.Err()
}
