package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"whalewatch/internal/domain/entity"
)

const validAddress = "0x1234567890abcdef1234567890abcdef12345678"

func TestAddWallet_ValidatesBeforeAnyNetworkCall(t *testing.T) {
	api := &fakeAPI{}
	refresher := &fakeRefresher{}
	m := NewMutationCoordinator(api, refresher, nopLogger{})

	err := m.AddWallet(context.Background(), "not-an-address", "x")
	if _, ok := err.(*entity.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if n := atomic.LoadInt64(&api.addCalls); n != 0 {
		t.Errorf("validation failure must issue zero network calls, saw %d", n)
	}
	if atomic.LoadInt64(&refresher.calls) != 0 {
		t.Error("no refresh expected after a validation failure")
	}
}

func TestAddWallet_SuccessTriggersRefresh(t *testing.T) {
	api := &fakeAPI{}
	refresher := &fakeRefresher{}
	m := NewMutationCoordinator(api, refresher, nopLogger{})

	if err := m.AddWallet(context.Background(), validAddress, "shrimp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt64(&api.addCalls) != 1 {
		t.Error("expected exactly one upstream call")
	}
	if atomic.LoadInt64(&refresher.calls) != 1 {
		t.Error("expected an immediate post-mutation refresh")
	}
}

func TestAddWallet_RefreshHonoredDuringInFlightCycle(t *testing.T) {
	block := make(chan struct{})
	api := &fakeAPI{
		blockHealth: block,
		whales:      []entity.RawWallet{{"address": validAddress, "accountValue": 100.0}},
	}
	store := NewStore()
	sched := NewRefreshScheduler(api, store, time.Hour, 50, nopLogger{})
	m := NewMutationCoordinator(api, sched, nopLogger{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.RefreshNow(context.Background())
	}()

	deadline := time.After(time.Second)
	for !sched.Refreshing() {
		select {
		case <-deadline:
			t.Fatal("cycle never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// The add lands while the held cycle's bulk list may predate it; a
	// follow-up cycle must still fetch the post-mutation collection.
	if err := m.AddWallet(context.Background(), validAddress, "shrimp"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	close(block)
	wg.Wait()

	if n := atomic.LoadInt64(&api.listCalls); n != 2 {
		t.Errorf("expected a post-mutation bulk fetch after the in-flight cycle, saw %d", n)
	}
	if _, ok := store.RecordByAddress(validAddress); !ok {
		t.Error("added wallet missing from the canonical collection after the follow-up cycle")
	}
}

func TestAddWallet_ServerFailureSurfacedVerbatim(t *testing.T) {
	api := &fakeAPI{addErr: &entity.HTTPError{Endpoint: "/whales", Status: 409, Detail: "already tracked"}}
	refresher := &fakeRefresher{}
	m := NewMutationCoordinator(api, refresher, nopLogger{})

	err := m.AddWallet(context.Background(), validAddress, "")
	if entity.ErrorDetail(err) != "already tracked" {
		t.Errorf("expected verbatim detail, got %q", entity.ErrorDetail(err))
	}
	if atomic.LoadInt64(&refresher.calls) != 0 {
		t.Error("no refresh expected after a failed add")
	}
}

func TestRemoval_TwoStepIntent(t *testing.T) {
	api := &fakeAPI{}
	refresher := &fakeRefresher{}
	m := NewMutationCoordinator(api, refresher, nopLogger{})

	if err := m.RequestRemoval(validAddress); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt64(&api.removeCalls) != 0 {
		t.Fatal("delete must not be issued before confirmation")
	}
	if m.PendingRemoval() != validAddress {
		t.Errorf("expected pending removal %s, got %s", validAddress, m.PendingRemoval())
	}

	if err := m.ConfirmRemoval(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt64(&api.removeCalls) != 1 {
		t.Error("expected exactly one delete after confirmation")
	}
	if atomic.LoadInt64(&refresher.calls) != 1 {
		t.Error("expected an immediate post-removal refresh")
	}
	if m.PendingRemoval() != "" {
		t.Error("pending removal must be cleared after confirmation")
	}
}

func TestRemoval_ConfirmWithoutRequest(t *testing.T) {
	m := NewMutationCoordinator(&fakeAPI{}, &fakeRefresher{}, nopLogger{})
	err := m.ConfirmRemoval(context.Background())
	if _, ok := err.(*entity.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestRemoval_Cancel(t *testing.T) {
	api := &fakeAPI{}
	m := NewMutationCoordinator(api, &fakeRefresher{}, nopLogger{})

	if err := m.RequestRemoval(validAddress); err != nil {
		t.Fatal(err)
	}
	m.CancelRemoval()
	if m.PendingRemoval() != "" {
		t.Error("cancel must clear the pending intent")
	}
	if err := m.ConfirmRemoval(context.Background()); err == nil {
		t.Error("confirm after cancel must fail")
	}
	if atomic.LoadInt64(&api.removeCalls) != 0 {
		t.Error("no delete expected after a cancelled intent")
	}
}

func TestRemoval_ServerFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{removeErr: &entity.HTTPError{Endpoint: "/whales/" + validAddress, Status: 500, Detail: "db locked"}}
	refresher := &fakeRefresher{}
	m := NewMutationCoordinator(api, refresher, nopLogger{})

	store := NewStore()
	store.ApplyRefresh([]entity.WalletRecord{{Address: validAddress}}, entity.PortfolioStats{})

	if err := m.RequestRemoval(validAddress); err != nil {
		t.Fatal(err)
	}
	err := m.ConfirmRemoval(context.Background())
	if entity.ErrorDetail(err) != "db locked" {
		t.Errorf("expected verbatim detail %q, got %q", "db locked", entity.ErrorDetail(err))
	}
	if atomic.LoadInt64(&refresher.calls) != 0 {
		t.Error("no refresh expected after a failed delete")
	}
	if _, ok := store.RecordByAddress(validAddress); !ok {
		t.Error("wallet must remain in the canonical collection after a failed delete")
	}
}

func TestRequestRemoval_ValidatesAddress(t *testing.T) {
	m := NewMutationCoordinator(&fakeAPI{}, &fakeRefresher{}, nopLogger{})
	if err := m.RequestRemoval("0xzz"); err == nil {
		t.Error("expected validation error for malformed address")
	}
}
