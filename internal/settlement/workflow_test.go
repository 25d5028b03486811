package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/paisapredict/predictctl/internal/domain"
	"github.com/paisapredict/predictctl/internal/platform/paisa"
)

// fakeMarketService simulates the service's side of the lock/resolve
// lifecycle for a single market.
type fakeMarketService struct {
	mu       sync.Mutex
	market   map[string]any
	lockHits int
	failLock bool
}

func newFakeMarketService(t *testing.T) (*fakeMarketService, *Workflow) {
	t.Helper()
	f := &fakeMarketService{
		market: map[string]any{
			"id":        int64(7),
			"title":     "Will the home team win?",
			"catagory":  "Sports",
			"isOpen":    true,
			"isLocked":  false,
			"end_time":  time.Now().Add(time.Hour).Format(time.RFC3339),
			"createdAt": time.Now().Add(-time.Hour).Format(time.RFC3339),
			"creatorId": int64(1),
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/getmarket/7", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"market": f.market})
	})
	mux.HandleFunc("POST /markets/lockbets/7", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lockHits++
		if f.failLock {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message":"lock failed"}`)
			return
		}
		f.market["isLocked"] = true
		json.NewEncoder(w).Encode(map[string]any{"lockedMarket": f.market})
	})
	mux.HandleFunc("POST /markets/resolvemarket/7", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var req struct {
			Outcome string `json:"outcome"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.market["outcome"] = req.Outcome
		fmt.Fprint(w, `{"message":"resolved"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := paisa.NewClient(srv.URL, 5*time.Second)
	return f, NewWorkflow(client, slog.New(slog.DiscardHandler))
}

func TestLockActiveMarket(t *testing.T) {
	_, wf := newFakeMarketService(t)

	m, err := wf.Lock(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsLocked {
		t.Error("returned snapshot is not locked")
	}
	if got := statusOf(m); got != domain.MarketStatusLocked {
		t.Errorf("status after lock = %s, want LOCKED", got)
	}
}

func TestLockIsNotIdempotent(t *testing.T) {
	f, wf := newFakeMarketService(t)

	if _, err := wf.Lock(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	hitsAfterFirst := f.lockHits

	_, err := wf.Lock(context.Background(), 7)
	var transErr *domain.InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("second Lock() = %v, want *domain.InvalidTransitionError", err)
	}
	if transErr.Status != domain.MarketStatusLocked {
		t.Errorf("reported status = %s, want LOCKED", transErr.Status)
	}
	if f.lockHits != hitsAfterFirst {
		t.Error("rejected lock still reached the service")
	}
}

func TestResolveRequiresLocked(t *testing.T) {
	_, wf := newFakeMarketService(t)

	// Market is still ACTIVE.
	_, err := wf.Resolve(context.Background(), 7, domain.OutcomeYes)
	var transErr *domain.InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("Resolve() on active market = %v, want *domain.InvalidTransitionError", err)
	}
	if transErr.Action != "resolve" || transErr.Status != domain.MarketStatusActive {
		t.Errorf("got %+v, want resolve/ACTIVE", transErr)
	}
}

func TestResolveLifecycle(t *testing.T) {
	_, wf := newFakeMarketService(t)
	ctx := context.Background()

	if _, err := wf.Lock(ctx, 7); err != nil {
		t.Fatal(err)
	}

	resolved, err := wf.Resolve(ctx, 7, domain.OutcomeYes)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Outcome == nil || *resolved.Outcome != domain.OutcomeYes {
		t.Errorf("outcome = %v, want YES", resolved.Outcome)
	}
	if got := statusOf(resolved); got != domain.MarketStatusResolved {
		t.Errorf("status after resolve = %s, want RESOLVED", got)
	}

	// Resolution is terminal: a second resolve must fail.
	_, err = wf.Resolve(ctx, 7, domain.OutcomeNo)
	var transErr *domain.InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("second Resolve() = %v, want *domain.InvalidTransitionError", err)
	}
	if transErr.Status != domain.MarketStatusResolved {
		t.Errorf("reported status = %s, want RESOLVED", transErr.Status)
	}

	// Same for lock: a resolved market cannot be re-frozen.
	if _, err := wf.Lock(ctx, 7); !errors.As(err, &transErr) {
		t.Errorf("Lock() on resolved market = %v, want *domain.InvalidTransitionError", err)
	}
}

func TestResolveRejectsUnknownOutcome(t *testing.T) {
	_, wf := newFakeMarketService(t)
	if _, err := wf.Resolve(context.Background(), 7, domain.Outcome("MAYBE")); err == nil {
		t.Fatal("Resolve() accepted outcome MAYBE")
	}
}

func TestFailedLockLeavesMarketUntouched(t *testing.T) {
	f, wf := newFakeMarketService(t)
	f.failLock = true

	_, err := wf.Lock(context.Background(), 7)
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Lock() = %v, want *domain.NetworkError", err)
	}

	// The market must still read as ACTIVE afterwards: no partial
	// transition is observable.
	f.failLock = false
	m, err := wf.Lock(context.Background(), 7)
	if err != nil {
		t.Fatalf("lock retry after failure = %v (market state was corrupted?)", err)
	}
	if !m.IsLocked {
		t.Error("retry did not lock the market")
	}
}

// statusOf mirrors the engine derivation for assertion readability.
func statusOf(m domain.Market) domain.MarketStatus {
	switch {
	case m.Outcome != nil:
		return domain.MarketStatusResolved
	case m.IsLocked:
		return domain.MarketStatusLocked
	case m.IsOpen:
		return domain.MarketStatusActive
	default:
		return domain.MarketStatusClosed
	}
}
