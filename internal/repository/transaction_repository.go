package repository

import (
	"context"
	"errors"
	"fmt"

	"ledgerd/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	// ErrNotFound means the referenced transaction id does not exist.
	ErrNotFound = errors.New("transaction not found")
	// ErrUnavailable wraps infrastructure failures of the backing store.
	ErrUnavailable = errors.New("transaction store unavailable")
)

// TransactionRepository owns all persisted transactions. Every query goes
// through squirrel with bound parameters; no value is ever interpolated
// into SQL text.
type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists tx and fills in the store-assigned id and creation time.
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	sql, args, err := createQuery(tx)
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&tx.ID, &tx.CreatedAt); err != nil {
		return storeErr("insert transaction", err)
	}

	return nil
}

// ListByOwner returns the owner's transactions, most recently created
// first; equal creation times are broken by the larger id. An owner with
// no transactions gets an empty slice, not an error.
func (r *TransactionRepository) ListByOwner(ctx context.Context, owner string) ([]*models.Transaction, error) {
	sql, args, err := listByOwnerQuery(owner)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	defer rows.Close()

	transactions := make([]*models.Transaction, 0)
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.Owner, &tx.Title, &tx.Amount, &tx.Category, &tx.CreatedAt,
		); err != nil {
			return nil, storeErr("scan transaction", err)
		}
		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list transactions", err)
	}

	return transactions, nil
}

// DeleteByID removes one transaction. A second delete of the same id
// reports ErrNotFound; ids are never reused.
func (r *TransactionRepository) DeleteByID(ctx context.Context, id int64) error {
	sql, args, err := deleteByIDQuery(id)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return storeErr("delete transaction", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Summarize aggregates the owner's transactions in SQL so summation stays
// in exact NUMERIC arithmetic end to end. Expenses keep their negative
// sign. An owner with no transactions gets all-zero sums.
func (r *TransactionRepository) Summarize(ctx context.Context, owner string) (*models.Summary, error) {
	sql, args, err := summarizeQuery(owner)
	if err != nil {
		return nil, err
	}

	var summary models.Summary
	if err := r.db.QueryRow(ctx, sql, args...).Scan(
		&summary.Balance, &summary.Income, &summary.Expenses,
	); err != nil {
		return nil, storeErr("summarize transactions", err)
	}

	return &summary, nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func createQuery(tx *models.Transaction) (string, []interface{}, error) {
	return squirrel.Insert("transactions").
		Columns("owner", "title", "amount", "category").
		Values(tx.Owner, tx.Title, tx.Amount, tx.Category).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func listByOwnerQuery(owner string) (string, []interface{}, error) {
	return squirrel.Select("id", "owner", "title", "amount", "category", "created_at").
		From("transactions").
		Where(squirrel.Eq{"owner": owner}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func deleteByIDQuery(id int64) (string, []interface{}, error) {
	return squirrel.Delete("transactions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func summarizeQuery(owner string) (string, []interface{}, error) {
	return squirrel.Select(
		"COALESCE(SUM(amount), 0) AS balance",
		"COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0) AS income",
		"COALESCE(SUM(amount) FILTER (WHERE amount < 0), 0) AS expenses",
	).
		From("transactions").
		Where(squirrel.Eq{"owner": owner}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}
