package holdingsdb

import (
	"context"
	"errors"
	"testing"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

func newUnitTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	logger := common.NewLogger("error")
	store, err := NewStore(logger, dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHoldingCRUD(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	h := &models.Holding{
		Symbol:   "AAPL",
		Market:   models.MarketUS,
		Shares:   10,
		AvgCost:  150.0,
		Currency: "USD",
	}
	if err := store.Put(ctx, h); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if h.Version != 1 {
		t.Errorf("expected version 1, got %d", h.Version)
	}
	if h.CreatedAt.IsZero() || h.UpdatedAt.IsZero() {
		t.Error("expected timestamps set on first put")
	}

	got, err := store.Get(ctx, "AAPL", models.MarketUS)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Shares != 10 || got.AvgCost != 150.0 {
		t.Errorf("unexpected holding: %+v", got)
	}

	// Update increments version and keeps the creation time
	created := got.CreatedAt
	h.Shares = 15
	if err := store.Put(ctx, h); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	got, _ = store.Get(ctx, "AAPL", models.MarketUS)
	if got.Version != 2 {
		t.Errorf("expected version 2, got %d", got.Version)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on update: %v -> %v", created, got.CreatedAt)
	}
	if got.Shares != 15 {
		t.Errorf("expected 15 shares, got %v", got.Shares)
	}

	if err := store.Delete(ctx, "AAPL", models.MarketUS); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = store.Get(ctx, "AAPL", models.MarketUS)
	if !errors.Is(err, interfaces.ErrNotFound) {
		t.Errorf("Get after delete should wrap ErrNotFound, got %v", err)
	}
}

func TestSameSymbolDifferentMarkets(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	store.Put(ctx, &models.Holding{Symbol: "TSM", Market: models.MarketUS, Shares: 5})
	store.Put(ctx, &models.Holding{Symbol: "TSM", Market: models.MarketTW, Shares: 1000})

	us, err := store.Get(ctx, "TSM", models.MarketUS)
	if err != nil {
		t.Fatalf("Get US: %v", err)
	}
	tw, err := store.Get(ctx, "TSM", models.MarketTW)
	if err != nil {
		t.Fatalf("Get TW: %v", err)
	}
	if us.Shares != 5 || tw.Shares != 1000 {
		t.Errorf("markets collided: US %v shares, TW %v shares", us.Shares, tw.Shares)
	}
}

func TestList_Sorted(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	store.Put(ctx, &models.Holding{Symbol: "MSFT", Market: models.MarketUS})
	store.Put(ctx, &models.Holding{Symbol: "AAPL", Market: models.MarketUS})
	store.Put(ctx, &models.Holding{Symbol: "2330.TW", Market: models.MarketTW})

	holdings, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(holdings) != 3 {
		t.Fatalf("expected 3 holdings, got %d", len(holdings))
	}
	want := []string{"2330.TW", "AAPL", "MSFT"}
	for i, w := range want {
		if holdings[i].Symbol != w {
			t.Errorf("position %d = %s, want %s", i, holdings[i].Symbol, w)
		}
	}
}

func TestDeleteSymbol_AllMarkets(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	store.Put(ctx, &models.Holding{Symbol: "TSM", Market: models.MarketUS})
	store.Put(ctx, &models.Holding{Symbol: "TSM", Market: models.MarketTW})
	store.Put(ctx, &models.Holding{Symbol: "MSFT", Market: models.MarketUS})

	count, err := store.DeleteSymbol(ctx, "TSM")
	if err != nil {
		t.Fatalf("DeleteSymbol: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 deleted, got %d", count)
	}

	// MSFT should survive
	holdings, _ := store.List(ctx)
	if len(holdings) != 1 || holdings[0].Symbol != "MSFT" {
		t.Errorf("expected MSFT to survive, got %+v", holdings)
	}
}

func TestDeleteNonexistent(t *testing.T) {
	store := newUnitTestStore(t)
	ctx := context.Background()

	if err := store.Delete(ctx, "NOPE", models.MarketUS); err != nil {
		t.Errorf("Delete nonexistent should not error: %v", err)
	}

	count, err := store.DeleteSymbol(ctx, "NOPE")
	if err != nil {
		t.Errorf("DeleteSymbol nonexistent should not error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 deleted, got %d", count)
	}
}

func TestCloseNilDB(t *testing.T) {
	store := &Store{}
	if err := store.Close(); err != nil {
		t.Errorf("Close on nil db should not error: %v", err)
	}
}
