package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"customerapp/internal/apperr"
	"customerapp/internal/events"
	"customerapp/internal/models"
	"customerapp/internal/pricing"
	"customerapp/internal/testutil"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestEnsureDefaultWithoutProducts(t *testing.T) {
	f := newFixture(t)
	c := testutil.CreateCustomer(t, f.db, "nothing@example.com")

	_, created, err := f.coord.EnsureDefault(context.Background(), c.ID)
	if !errors.Is(err, apperr.ErrNoProducts) {
		t.Fatalf("expected ErrNoProducts, got %v", err)
	}
	if created {
		t.Fatal("expected created to be false")
	}
	if n := countDashboards(t, f.db); n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

func TestEnsureDefaultCreatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, f.db, "default@example.com")
	f.addProduct(t, c.ID, "25")

	d, created, err := f.coord.EnsureDefault(ctx, c.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !created {
		t.Fatal("expected first call to create")
	}
	if d.Name != DefaultName {
		t.Fatalf("expected name %q, got %q", DefaultName, d.Name)
	}

	again, created, err := f.coord.EnsureDefault(ctx, c.ID)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if created {
		t.Fatal("expected second call to reuse the row")
	}
	if again.ID != d.ID {
		t.Fatalf("expected id %d, got %d", d.ID, again.ID)
	}
}

func TestOnProductsChangedWithoutDashboard(t *testing.T) {
	logs := observeLogs(t)
	f := newFixture(t)
	c := testutil.CreateCustomer(t, f.db, "quiet@example.com")

	f.addProduct(t, c.ID, "5")

	if n := countDashboards(t, f.db); n != 0 {
		t.Fatalf("expected no dashboard, got %d", n)
	}
	if logs.FilterMessage("dashboard recompute skipped: no dashboard").Len() != 1 {
		t.Fatalf("expected one skip log, got %v", logs.All())
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 0 {
		t.Fatalf("expected no error logs, got %v", logs.All())
	}
}

func TestOnProductsChangedAbsorbsStorageErrors(t *testing.T) {
	logs := observeLogs(t)
	f := newFixture(t)
	c := testutil.CreateCustomer(t, f.db, "broken@example.com")

	sqlDB, err := f.db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := f.store.Recompute(context.Background(), c.ID); !apperr.IsStorage(err) {
		t.Fatalf("expected storage error, got %v", err)
	}

	f.coord.OnProductsChanged(context.Background(), events.ProductsChanged{
		CustomerID: c.ID,
		Reason:     events.ReasonUpdated,
	})

	failed := logs.FilterMessage("dashboard recompute failed")
	if failed.Len() != 1 {
		t.Fatalf("expected one failure log, got %v", logs.All())
	}
	fields := failed.All()[0].ContextMap()
	if fields["storage"] != true {
		t.Fatalf("expected storage=true, got %v", fields)
	}
	if fields["reason"] != events.ReasonUpdated {
		t.Fatalf("expected reason %q, got %v", events.ReasonUpdated, fields["reason"])
	}
}

func TestConcurrentProductWritesConverge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, f.db, "busy@example.com")
	f.addProduct(t, c.ID, "1")
	if _, err := f.coord.Create(ctx, c.ID, "Main"); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				p := models.Product{
					CustomerID: c.ID,
					Name:       fmt.Sprintf("p%d", i),
					Price:      decimal.NewFromInt(int64(i + 2)),
				}
				if err := f.db.Create(&p).Error; err != nil {
					errs <- err
					return
				}
			}
			f.coord.OnProductsChanged(ctx, events.ProductsChanged{CustomerID: c.ID, Reason: events.ReasonCreated})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("insert: %v", err)
	}

	f.coord.OnProductsChanged(ctx, events.ProductsChanged{CustomerID: c.ID, Reason: events.ReasonUpdated})

	want, err := f.repo.ListPrices(ctx, c.ID)
	if err != nil {
		t.Fatalf("list prices: %v", err)
	}
	d, err := f.coord.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assertDecimals(t, "price_per_month", d.PricePerMonth, want)
	assertDecimals(t, "total", d.Total, pricing.Project(decimal.NewFromInt(1)))
}

func TestConcurrentCreateYieldsOneDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, f.db, "race@example.com")
	f.addProduct(t, c.ID, "10")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		exists  int
		unknown []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.Create(ctx, c.ID, "Main")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrDashboardExists):
				exists++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	if len(unknown) > 0 {
		t.Fatalf("unexpected errors: %v", unknown)
	}
	if ok != 1 || exists != 7 {
		t.Fatalf("expected 1 success and 7 conflicts, got %d and %d", ok, exists)
	}
}
