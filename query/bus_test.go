// Package query_test contains tests for the query dispatcher.
package query_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/code19m/errx"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/cqrsbus"
	"github.com/rise-and-shine/cqrsbus/cache"
	"github.com/rise-and-shine/cqrsbus/metrics"
	"github.com/rise-and-shine/cqrsbus/query"
	"github.com/rise-and-shine/cqrsbus/request"
	"github.com/rise-and-shine/cqrsbus/validation"
)

type GetBalance struct {
	request.Base

	AccountID string `json:"account_id" validate:"required"`
}

func (q GetBalance) Cacheable() bool { return true }

func (q GetBalance) CacheKey() string { return "balance:" + q.AccountID }

// BrokenKeyQuery declares itself cacheable but never yields a key.
type BrokenKeyQuery struct {
	request.Base
}

func (BrokenKeyQuery) Cacheable() bool { return true }

func (BrokenKeyQuery) CacheKey() string { return "" }

type ListAccounts struct {
	request.Base
	query.NotCacheable
}

type getBalanceHandler struct {
	calls   atomic.Int64
	balance float64
}

func (h *getBalanceHandler) Handle(_ context.Context, _ GetBalance) (float64, error) {
	h.calls.Add(1)
	return h.balance, nil
}

// uncachedBalanceHandler opts out of caching entirely.
type uncachedBalanceHandler struct {
	getBalanceHandler
}

func (*uncachedBalanceHandler) SupportsCaching() bool { return false }

// shortTTLBalanceHandler overrides the bus default TTL.
type shortTTLBalanceHandler struct {
	getBalanceHandler
}

func (*shortTTLBalanceHandler) CacheTTL() time.Duration { return 20 * time.Millisecond }

type brokenKeyHandler struct{}

func (brokenKeyHandler) Handle(_ context.Context, _ BrokenKeyQuery) (int, error) {
	return 0, nil
}

type listAccountsHandler struct {
	calls atomic.Int64
}

func (h *listAccountsHandler) Handle(_ context.Context, _ ListAccounts) ([]string, error) {
	h.calls.Add(1)
	return []string{"A1", "A2"}, nil
}

func newStore(t *testing.T) *cache.Memory {
	t.Helper()

	store, err := cache.NewMemory(cache.MemoryConfig{})
	require.NoError(t, err)
	t.Cleanup(store.Stop)

	return store
}

func counterValue(reg gometrics.Registry, name string) int64 {
	return gometrics.GetOrRegisterCounter(name, reg).Count()
}

func TestDispatchCachesResult(t *testing.T) {
	handler := &getBalanceHandler{balance: 100.00}
	reg := gometrics.NewRegistry()

	bus := query.NewBus(nil,
		[]query.Registration{query.NewRegistration[GetBalance, float64](handler)},
		query.WithStore(newStore(t)),
		query.WithMetrics(metrics.NewRecorder(reg)),
	)

	qry := GetBalance{Base: request.New(), AccountID: "A1"}

	// First dispatch invokes the handler and stores the result.
	result, err := query.Dispatch[GetBalance, float64](t.Context(), bus, qry)
	require.NoError(t, err)
	assert.Equal(t, 100.00, result)
	assert.Equal(t, int64(1), handler.calls.Load())

	// Second dispatch with the same key is served from the cache.
	result, err = query.Dispatch[GetBalance, float64](t.Context(), bus, qry)
	require.NoError(t, err)
	assert.Equal(t, 100.00, result)
	assert.Equal(t, int64(1), handler.calls.Load())

	// The hit bypassed the metrics-record step.
	assert.Equal(t, int64(1), counterValue(reg, metrics.QueriesProcessed))
}

func TestClearCacheForcesReinvocation(t *testing.T) {
	handler := &getBalanceHandler{balance: 100.00}

	bus := query.NewBus(nil,
		[]query.Registration{query.NewRegistration[GetBalance, float64](handler)},
		query.WithStore(newStore(t)),
	)

	qry := GetBalance{Base: request.New(), AccountID: "A1"}

	_, err := bus.Dispatch(t.Context(), qry)
	require.NoError(t, err)
	require.Equal(t, int64(1), handler.calls.Load())

	require.NoError(t, bus.ClearCache(t.Context(), "balance:A1"))

	_, err = bus.Dispatch(t.Context(), qry)
	require.NoError(t, err)
	assert.Equal(t, int64(2), handler.calls.Load())
}

func TestClearAllCache(t *testing.T) {
	handler := &getBalanceHandler{balance: 100.00}

	bus := query.NewBus(nil,
		[]query.Registration{query.NewRegistration[GetBalance, float64](handler)},
		query.WithStore(newStore(t)),
	)

	for _, account := range []string{"A1", "A2"} {
		_, err := bus.Dispatch(t.Context(), GetBalance{Base: request.New(), AccountID: account})
		require.NoError(t, err)
	}
	require.Equal(t, int64(2), handler.calls.Load())

	require.NoError(t, bus.ClearAllCache(t.Context()))

	_, err := bus.Dispatch(t.Context(), GetBalance{Base: request.New(), AccountID: "A1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), handler.calls.Load())
}

func TestDispatchWithoutStoreSkipsCaching(t *testing.T) {
	handler := &getBalanceHandler{balance: 100.00}

	bus := query.NewBus(nil, []query.Registration{
		query.NewRegistration[GetBalance, float64](handler),
	})

	qry := GetBalance{Base: request.New(), AccountID: "A1"}

	for range 2 {
		_, err := bus.Dispatch(t.Context(), qry)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(2), handler.calls.Load())
}

func TestDispatchHandlerOptsOutOfCaching(t *testing.T) {
	handler := &uncachedBalanceHandler{}
	handler.balance = 100.00

	bus := query.NewBus(nil,
		[]query.Registration{query.NewRegistration[GetBalance, float64](handler)},
		query.WithStore(newStore(t)),
	)

	qry := GetBalance{Base: request.New(), AccountID: "A1"}

	for range 2 {
		_, err := bus.Dispatch(t.Context(), qry)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(2), handler.calls.Load())
}

func TestDispatchNonCacheableQuery(t *testing.T) {
	handler := &listAccountsHandler{}

	bus := query.NewBus(nil,
		[]query.Registration{query.NewRegistration[ListAccounts, []string](handler)},
		query.WithStore(newStore(t)),
	)

	for range 2 {
		_, err := bus.Dispatch(t.Context(), ListAccounts{Base: request.New()})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(2), handler.calls.Load())
}

func TestDispatchEmptyCacheKeyIsConfigurationError(t *testing.T) {
	bus := query.NewBus(nil,
		[]query.Registration{query.NewRegistration[BrokenKeyQuery, int](brokenKeyHandler{})},
		query.WithStore(newStore(t)),
	)

	_, err := bus.Dispatch(t.Context(), BrokenKeyQuery{Base: request.New()})
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, cqrsbus.CodeProcessingFailed))
}

func TestDispatchHandlerTTLOverride(t *testing.T) {
	handler := &shortTTLBalanceHandler{}
	handler.balance = 100.00

	bus := query.NewBus(nil,
		[]query.Registration{query.NewRegistration[GetBalance, float64](handler)},
		query.WithStore(newStore(t)),
	)

	qry := GetBalance{Base: request.New(), AccountID: "A1"}

	_, err := bus.Dispatch(t.Context(), qry)
	require.NoError(t, err)
	require.Equal(t, int64(1), handler.calls.Load())

	time.Sleep(40 * time.Millisecond)

	_, err = bus.Dispatch(t.Context(), qry)
	require.NoError(t, err)
	assert.Equal(t, int64(2), handler.calls.Load())
}

func TestDispatchHandlerNotFound(t *testing.T) {
	bus := query.NewBus(nil, nil)

	_, err := bus.Dispatch(t.Context(), GetBalance{Base: request.New(), AccountID: "A1"})
	require.Error(t, err)

	assert.True(t, errx.IsCodeIn(err, cqrsbus.CodeHandlerNotFound))
	assert.Contains(t, err.Error(), "GetBalance")
}

func TestDispatchValidationFailed(t *testing.T) {
	handler := &getBalanceHandler{balance: 100.00}
	store := newStore(t)

	bus := query.NewBus(nil,
		[]query.Registration{query.NewRegistration[GetBalance, float64](handler)},
		query.WithStore(store),
	)

	_, err := bus.Dispatch(t.Context(), GetBalance{Base: request.New(), AccountID: ""})
	require.Error(t, err)

	assert.True(t, errx.IsCodeIn(err, validation.CodeValidationFailed))
	assert.Equal(t, int64(0), handler.calls.Load())

	// Nothing was written to the cache on the failed dispatch.
	assert.Equal(t, 0, store.Len())
}

func TestClearCacheWithoutStore(t *testing.T) {
	bus := query.NewBus(nil, nil)

	require.NoError(t, bus.ClearCache(t.Context(), "balance:A1"))
	require.NoError(t, bus.ClearAllCache(t.Context()))
}
