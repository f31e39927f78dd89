package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"ledgerd/internal/dto"
	"ledgerd/internal/limiter"
	"ledgerd/internal/models"
	"ledgerd/internal/repository"
	"ledgerd/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	txService  *service.TransactionService
	retryAfter time.Duration
	logger     *zap.Logger
}

// NewTransactionHandler wires the dispatcher to HTTP. retryAfter is the
// limiter window; it fills the Retry-After header on 429 responses.
func NewTransactionHandler(txService *service.TransactionService, retryAfter time.Duration, logger *zap.Logger) *TransactionHandler {
	if retryAfter <= 0 {
		retryAfter = time.Minute
	}
	return &TransactionHandler{
		txService:  txService,
		retryAfter: retryAfter,
		logger:     logger,
	}
}

// List godoc
// @Summary List an owner's transactions
// @Description Returns all transactions of one owner, most recent first
// @Tags transactions
// @Produce json
// @Param owner path string true "Owner identifier"
// @Success 200 {array} dto.TransactionResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /transactions/{owner} [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	txs, err := h.txService.List(c.Context(), c.IP(), c.Params("owner"))
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(dto.NewTransactionListResponse(txs))
}

// Create godoc
// @Summary Record a transaction
// @Description Creates a ledger entry; positive amounts are income, negative are expenses
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body dto.CreateTransactionRequest true "Transaction to record"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Invalid request body",
			Kind:  "validation",
		})
	}

	tx, err := h.txService.Create(c.Context(), c.IP(), &req)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewTransactionResponse(tx))
}

// Delete godoc
// @Summary Delete a transaction
// @Description Removes the transaction with the given id
// @Tags transactions
// @Produce json
// @Param id path int true "Transaction id"
// @Success 200 {object} dto.DeleteTransactionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	id, err := h.txService.Delete(c.Context(), c.IP(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(dto.DeleteTransactionResponse{Deleted: true, ID: id})
}

// Summary godoc
// @Summary Summarize an owner's ledger
// @Description Balance, income, and expenses over all of the owner's transactions; expenses keep their negative sign
// @Tags transactions
// @Produce json
// @Param owner path string true "Owner identifier"
// @Success 200 {object} dto.SummaryResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /transactions/summary/{owner} [get]
func (h *TransactionHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.txService.Summarize(c.Context(), c.IP(), c.Params("owner"))
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(dto.NewSummaryResponse(summary))
}

// respondError maps the error taxonomy to statuses. Client-caused kinds
// (validation, not_found) get 4xx; infrastructure kinds are logged and get
// 5xx. Nothing is swallowed.
func (h *TransactionHandler) respondError(c *fiber.Ctx, err error) error {
	var validationErr *models.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: validationErr.Error(),
			Kind:  "validation",
		})

	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "Transaction not found",
			Kind:  "not_found",
		})

	case errors.Is(err, service.ErrRateLimited):
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(h.retryAfter.Seconds())))
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Error: "Too many requests",
			Kind:  "rate_limited",
		})

	case errors.Is(err, limiter.ErrUnavailable):
		h.logger.Error("Rate limiter unavailable", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: "Rate limiter unavailable",
			Kind:  "limiter_unavailable",
		})

	case errors.Is(err, repository.ErrUnavailable):
		h.logger.Error("Transaction store unavailable", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "Transaction store unavailable",
			Kind:  "store_unavailable",
		})

	default:
		h.logger.Error("Unhandled error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: fmt.Sprintf("Internal error: %v", err),
			Kind:  "internal",
		})
	}
}
