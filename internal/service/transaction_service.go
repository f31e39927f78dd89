package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"ledgerd/internal/dto"
	"ledgerd/internal/models"

	"go.uber.org/zap"
)

// ErrRateLimited means the caller key exhausted its window budget. The
// backing store is never touched for a denied request.
var ErrRateLimited = errors.New("rate limit exceeded")

const defaultOpTimeout = 5 * time.Second

// TransactionStore is the ledger persistence the service dispatches to.
type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	ListByOwner(ctx context.Context, owner string) ([]*models.Transaction, error)
	DeleteByID(ctx context.Context, id int64) error
	Summarize(ctx context.Context, owner string) (*models.Summary, error)
}

// RateLimiter decides admission for a caller key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TransactionService sequences every operation the same way: limiter
// first, then input validation, then the store. It holds no state of its
// own; store errors pass through unchanged.
type TransactionService struct {
	store     TransactionStore
	limiter   RateLimiter
	opTimeout time.Duration
	logger    *zap.Logger
}

func NewTransactionService(store TransactionStore, limiter RateLimiter, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		limiter:   limiter,
		opTimeout: defaultOpTimeout,
		logger:    logger,
	}
}

func (s *TransactionService) Create(ctx context.Context, callerKey string, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.admit(ctx, callerKey); err != nil {
		return nil, err
	}

	if req.Amount == nil {
		return nil, &models.ValidationError{Field: "amount"}
	}

	tx := &models.Transaction{
		Owner:    req.Owner,
		Title:    req.Title,
		Amount:   *req.Amount,
		Category: req.Category,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction created",
		zap.Int64("id", tx.ID),
		zap.String("owner", tx.Owner),
	)

	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, callerKey, owner string) ([]*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.admit(ctx, callerKey); err != nil {
		return nil, err
	}

	return s.store.ListByOwner(ctx, owner)
}

// Delete validates rawID before any store access: a non-numeric id is a
// validation failure, not a not-found.
func (s *TransactionService) Delete(ctx context.Context, callerKey, rawID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.admit(ctx, callerKey); err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, &models.ValidationError{Field: "id"}
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return 0, err
	}

	s.logger.Info("Transaction deleted", zap.Int64("id", id))

	return id, nil
}

func (s *TransactionService) Summarize(ctx context.Context, callerKey, owner string) (*models.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.admit(ctx, callerKey); err != nil {
		return nil, err
	}

	return s.store.Summarize(ctx, owner)
}

func (s *TransactionService) admit(ctx context.Context, callerKey string) error {
	allowed, err := s.limiter.Allow(ctx, callerKey)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}
