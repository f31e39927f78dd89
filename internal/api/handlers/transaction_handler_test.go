package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"ledgerd/internal/api"
	"ledgerd/internal/api/handlers"
	"ledgerd/internal/dto"
	"ledgerd/internal/limiter"
	"ledgerd/internal/models"
	"ledgerd/internal/repository"
	"ledgerd/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStore struct {
	mu     sync.Mutex
	nextID int64
	txs    map[int64]*models.Transaction
}

func newStubStore() *stubStore {
	return &stubStore{nextID: 1, txs: make(map[int64]*models.Transaction)}
}

func (s *stubStore) Create(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.nextID
	s.nextID++
	tx.CreatedAt = time.Now()
	cp := *tx
	s.txs[tx.ID] = &cp
	return nil
}

func (s *stubStore) ListByOwner(_ context.Context, owner string) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Transaction, 0)
	for _, tx := range s.txs {
		if tx.Owner == owner {
			cp := *tx
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *stubStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *stubStore) Summarize(_ context.Context, owner string) (*models.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := &models.Summary{Balance: decimal.Zero, Income: decimal.Zero, Expenses: decimal.Zero}
	for _, tx := range s.txs {
		if tx.Owner != owner {
			continue
		}
		sum.Balance = sum.Balance.Add(tx.Amount)
		if tx.Amount.IsPositive() {
			sum.Income = sum.Income.Add(tx.Amount)
		} else if tx.Amount.IsNegative() {
			sum.Expenses = sum.Expenses.Add(tx.Amount)
		}
	}
	return sum, nil
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (l *stubLimiter) Allow(context.Context, string) (bool, error) {
	return l.allowed, l.err
}

func newApp(store service.TransactionStore, lim service.RateLimiter) *fiber.App {
	log := zap.NewNop()
	svc := service.NewTransactionService(store, lim, log)
	txHandler := handlers.NewTransactionHandler(svc, time.Minute, log)
	healthHandler := handlers.NewHealthHandler(nil, nil, log)
	return api.SetupRouter(txHandler, healthHandler, log)
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func TestCreateTransaction_Returns201WithAssignedID(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{allowed: true})

	resp, payload := doJSON(t, app, fiber.MethodPost, "/transactions",
		`{"owner":"u1","title":"Salary","amount":2000,"category":"Income"}`)

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created dto.TransactionResponse
	require.NoError(t, json.Unmarshal(payload, &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "u1", created.Owner)
	assert.True(t, created.Amount.Equal(decimal.NewFromInt(2000)))
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCreateTransaction_MissingFieldReturns400(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{allowed: true})

	resp, payload := doJSON(t, app, fiber.MethodPost, "/transactions",
		`{"owner":"u1","amount":2000,"category":"Income"}`)

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(payload, &errResp))
	assert.Equal(t, "validation", errResp.Kind)
	assert.Contains(t, errResp.Error, "title")
}

func TestCreateTransaction_MalformedBodyReturns400(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{allowed: true})

	resp, _ := doJSON(t, app, fiber.MethodPost, "/transactions", `{"owner":`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListTransactions_ReturnsOwnersRecords(t *testing.T) {
	store := newStubStore()
	app := newApp(store, &stubLimiter{allowed: true})

	_, _ = doJSON(t, app, fiber.MethodPost, "/transactions",
		`{"owner":"u1","title":"Salary","amount":2000,"category":"Income"}`)
	_, _ = doJSON(t, app, fiber.MethodPost, "/transactions",
		`{"owner":"u2","title":"Rent","amount":-800,"category":"Housing"}`)

	resp, payload := doJSON(t, app, fiber.MethodGet, "/transactions/u1", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var txs []dto.TransactionResponse
	require.NoError(t, json.Unmarshal(payload, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "Salary", txs[0].Title)
}

func TestListTransactions_UnknownOwnerReturnsEmptyArray(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{allowed: true})

	resp, payload := doJSON(t, app, fiber.MethodGet, "/transactions/nobody", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", strings.TrimSpace(string(payload)))
}

func TestSummaryRoute_NotShadowedByOwnerRoute(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{allowed: true})

	_, _ = doJSON(t, app, fiber.MethodPost, "/transactions",
		`{"owner":"u1","title":"Salary","amount":2000,"category":"Income"}`)
	_, _ = doJSON(t, app, fiber.MethodPost, "/transactions",
		`{"owner":"u1","title":"Rent","amount":-800,"category":"Housing"}`)

	resp, payload := doJSON(t, app, fiber.MethodGet, "/transactions/summary/u1", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary dto.SummaryResponse
	require.NoError(t, json.Unmarshal(payload, &summary))
	assert.True(t, summary.Balance.Equal(decimal.NewFromInt(1200)), "balance = %s", summary.Balance)
	assert.True(t, summary.Income.Equal(decimal.NewFromInt(2000)))
	assert.True(t, summary.Expenses.Equal(decimal.NewFromInt(-800)))
}

func TestDeleteTransaction_UnknownIDReturns404(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{allowed: true})

	resp, payload := doJSON(t, app, fiber.MethodDelete, "/transactions/99", "")

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(payload, &errResp))
	assert.Equal(t, "not_found", errResp.Kind)
}

func TestDeleteTransaction_NonNumericIDReturns400(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{allowed: true})

	resp, payload := doJSON(t, app, fiber.MethodDelete, "/transactions/abc", "")

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(payload, &errResp))
	assert.Equal(t, "validation", errResp.Kind)
}

func TestDeleteTransaction_SucceedsThenReports404(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{allowed: true})

	_, _ = doJSON(t, app, fiber.MethodPost, "/transactions",
		`{"owner":"u1","title":"Rent","amount":-800,"category":"Housing"}`)

	resp, payload := doJSON(t, app, fiber.MethodDelete, "/transactions/1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var deleted dto.DeleteTransactionResponse
	require.NoError(t, json.Unmarshal(payload, &deleted))
	assert.True(t, deleted.Deleted)
	assert.Equal(t, int64(1), deleted.ID)

	resp, _ = doJSON(t, app, fiber.MethodDelete, "/transactions/1", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRateLimitDenial_Returns429OnEveryEndpoint(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{allowed: false})

	endpoints := []struct {
		method string
		path   string
		body   string
	}{
		{fiber.MethodGet, "/transactions/u1", ""},
		{fiber.MethodGet, "/transactions/summary/u1", ""},
		{fiber.MethodPost, "/transactions", `{"owner":"u1","title":"x","amount":1,"category":"c"}`},
		{fiber.MethodDelete, "/transactions/1", ""},
	}

	for _, e := range endpoints {
		resp, payload := doJSON(t, app, e.method, e.path, e.body)

		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode, "%s %s", e.method, e.path)
		assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

		var errResp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(payload, &errResp))
		assert.Equal(t, "rate_limited", errResp.Kind)
	}
}

func TestLimiterUnavailable_Returns503(t *testing.T) {
	app := newApp(newStubStore(), &stubLimiter{err: limiter.ErrUnavailable})

	resp, payload := doJSON(t, app, fiber.MethodGet, "/transactions/u1", "")

	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(payload, &errResp))
	assert.Equal(t, "limiter_unavailable", errResp.Kind)
}
