package service

import (
	"context"
	"sync"
	"sync/atomic"

	"whalewatch/internal/domain/entity"
)

// fakeAPI is a scriptable port.WhaleAPI for scheduler and coordinator
// tests.
type fakeAPI struct {
	mu sync.Mutex

	healthErr    error
	whales       []entity.RawWallet
	whalesErr    error
	positions    []entity.RawPosition
	positionsErr error
	trades       []entity.RawTrade
	tradesErr    error
	addErr       error
	removeErr    error
	alerting     entity.AlertingStatus
	alertingErr  error

	healthCalls   int64
	listCalls     int64
	addCalls      int64
	removeCalls   int64
	alertingCalls int64

	// blockHealth, when set, makes Health wait until released so tests
	// can hold a cycle in flight.
	blockHealth chan struct{}
}

func (f *fakeAPI) Health(ctx context.Context) error {
	atomic.AddInt64(&f.healthCalls, 1)
	f.mu.Lock()
	block := f.blockHealth
	err := f.healthErr
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeAPI) ListWhales(ctx context.Context) ([]entity.RawWallet, error) {
	atomic.AddInt64(&f.listCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.whales, f.whalesErr
}

func (f *fakeAPI) GetWhale(ctx context.Context, address string) (entity.RawWallet, error) {
	return nil, &entity.HTTPError{Endpoint: "/whales/" + address, Status: 404}
}

func (f *fakeAPI) GetPositions(ctx context.Context, address string) ([]entity.RawPosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.positions, f.positionsErr
}

func (f *fakeAPI) GetTrades(ctx context.Context, address string, limit int) ([]entity.RawTrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trades, f.tradesErr
}

func (f *fakeAPI) AddWhale(ctx context.Context, address, nickname string) error {
	atomic.AddInt64(&f.addCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addErr
}

func (f *fakeAPI) RemoveWhale(ctx context.Context, address string) error {
	atomic.AddInt64(&f.removeCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeErr
}

func (f *fakeAPI) AlertingStatus(ctx context.Context) (entity.AlertingStatus, error) {
	atomic.AddInt64(&f.alertingCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alerting, f.alertingErr
}

// fakeRefresher counts RefreshNow invocations.
type fakeRefresher struct {
	calls int64
}

func (f *fakeRefresher) RefreshNow(ctx context.Context) {
	atomic.AddInt64(&f.calls, 1)
}

// nopLogger satisfies port.Logger without output.
type nopLogger struct{}

func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
