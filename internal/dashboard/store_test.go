package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"customerapp/internal/apperr"
	"customerapp/internal/events"
	"customerapp/internal/models"
	"customerapp/internal/pricing"
	"customerapp/internal/products"
	"customerapp/internal/testutil"
)

type fixture struct {
	db    *gorm.DB
	repo  *products.Repository
	store *Store
	coord *Coordinator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gdb := testutil.OpenDB(t)
	bus := events.NewBus()
	repo := products.NewRepository(gdb, bus)
	store := NewStore(gdb, repo)
	coord := NewCoordinator(store)
	if err := coord.Attach(bus); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return fixture{db: gdb, repo: repo, store: store, coord: coord}
}

func (f fixture) addProduct(t *testing.T, customerID uint, price string) models.Product {
	t.Helper()
	p, err := f.repo.Create(context.Background(), customerID, products.Input{
		Name:  "item " + price,
		Price: decimal.RequireFromString(price),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func assertDecimals(t *testing.T, label string, got, want []decimal.Decimal) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected %d values, got %d (%v)", label, len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("%s[%d]: expected %s, got %s", label, i, want[i], got[i])
		}
	}
}

func decimals(values ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func countDashboards(t *testing.T, gdb *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(&models.Dashboard{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCreateWithoutProducts(t *testing.T) {
	f := newFixture(t)
	c := testutil.CreateCustomer(t, f.db, "empty@example.com")

	_, err := f.store.Create(context.Background(), c.ID, "Main")
	if !errors.Is(err, apperr.ErrNoProducts) {
		t.Fatalf("expected ErrNoProducts, got %v", err)
	}
	if n := countDashboards(t, f.db); n != 0 {
		t.Fatalf("expected no dashboard rows, got %d", n)
	}
}

func TestCreateSeedsFromCurrentProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, f.db, "a@example.com")
	f.addProduct(t, c.ID, "50")
	f.addProduct(t, c.ID, "75")

	id, err := f.store.Create(ctx, c.ID, "Main")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 {
		t.Fatal("expected dashboard id")
	}

	d, err := f.store.GetByCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Name != "Main" || d.CustomerID != c.ID {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if len(d.Months) != pricing.MonthCount || d.Months[0] != 1 || d.Months[11] != 12 {
		t.Fatalf("unexpected months %v", d.Months)
	}
	assertDecimals(t, "price_per_month", d.PricePerMonth, decimals(50, 75))
	assertDecimals(t, "total", d.Total, pricing.Project(decimal.NewFromInt(50)))
}

func TestCreateTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, f.db, "twice@example.com")
	f.addProduct(t, c.ID, "10")

	if _, err := f.store.Create(ctx, c.ID, "First"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := f.store.Create(ctx, c.ID, "Second")
	if !errors.Is(err, apperr.ErrDashboardExists) {
		t.Fatalf("expected ErrDashboardExists, got %v", err)
	}
	if n := countDashboards(t, f.db); n != 1 {
		t.Fatalf("expected one dashboard row, got %d", n)
	}
}

func TestUniqueIndexRejectsSecondRow(t *testing.T) {
	f := newFixture(t)
	c := testutil.CreateCustomer(t, f.db, "unique@example.com")
	row := func() *models.Dashboard {
		return &models.Dashboard{CustomerID: c.ID, Name: "x", Month: "[]", PricePerMonth: "[]", Total: "[]"}
	}
	if err := f.db.Create(row()).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := f.db.Create(row()).Error
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !isUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestGetByCustomerNotFound(t *testing.T) {
	f := newFixture(t)
	c := testutil.CreateCustomer(t, f.db, "none@example.com")

	_, err := f.store.GetByCustomer(context.Background(), c.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByCustomerMalformedSeries(t *testing.T) {
	cases := []struct {
		name   string
		column string
		text   string
	}{
		{"month truncated", "month", "[1, oops"},
		{"month null element", "month", "[null,2,3]"},
		{"month short axis", "month", "[1,2]"},
		{"price_per_month truncated", "price_per_month", "[1, oops"},
		{"price_per_month null element", "price_per_month", "[null]"},
		{"total truncated", "total", "[1, oops"},
		{"total null element", "total", "[null, 400]"},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			c := testutil.CreateCustomer(t, f.db, fmt.Sprintf("malformed%d@example.com", i))
			f.addProduct(t, c.ID, "20")
			if _, err := f.store.Create(ctx, c.ID, "Main"); err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := f.db.Model(&models.Dashboard{}).
				Where("customer_id = ?", c.ID).
				Update(tc.column, tc.text).Error; err != nil {
				t.Fatalf("corrupt: %v", err)
			}

			d, err := f.store.GetByCustomer(ctx, c.ID)
			var malformed *apperr.MalformedSeriesError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedSeriesError, got %v (%+v)", err, d)
			}
			if malformed.Field != tc.column {
				t.Fatalf("expected field %s, got %s", tc.column, malformed.Field)
			}
		})
	}
}

func TestConsistencyAcrossDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, f.db, "flow@example.com")
	p50 := f.addProduct(t, c.ID, "50")
	p75 := f.addProduct(t, c.ID, "75")

	if _, err := f.coord.Create(ctx, c.ID, "Main"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.repo.Delete(ctx, c.ID, p50.ID); err != nil {
		t.Fatalf("delete 50: %v", err)
	}
	d, err := f.store.GetByCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assertDecimals(t, "price_per_month", d.PricePerMonth, decimals(75))
	assertDecimals(t, "total", d.Total, pricing.Project(decimal.NewFromInt(75)))

	if _, err := f.repo.Delete(ctx, c.ID, p75.ID); err != nil {
		t.Fatalf("delete 75: %v", err)
	}
	d, err = f.store.GetByCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.PricePerMonth == nil || len(d.PricePerMonth) != 0 {
		t.Fatalf("expected empty price snapshot, got %v", d.PricePerMonth)
	}
	if d.Total == nil || len(d.Total) != 0 {
		t.Fatalf("expected empty total, got %v", d.Total)
	}
	if len(d.Months) != pricing.MonthCount {
		t.Fatalf("expected month axis to be untouched, got %v", d.Months)
	}
}

func TestConsistencyOnCreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, f.db, "update@example.com")
	p := f.addProduct(t, c.ID, "40")
	if _, err := f.coord.Create(ctx, c.ID, "Main"); err != nil {
		t.Fatalf("create: %v", err)
	}

	f.addProduct(t, c.ID, "60")
	d, err := f.store.GetByCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assertDecimals(t, "price_per_month", d.PricePerMonth, decimals(40, 60))

	if _, err := f.repo.Update(ctx, c.ID, p.ID, products.Input{Name: "renamed", Price: decimal.NewFromInt(100)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	d, err = f.store.GetByCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assertDecimals(t, "price_per_month", d.PricePerMonth, decimals(100, 60))
	assertDecimals(t, "total", d.Total, pricing.Project(decimal.NewFromInt(100)))
	if d.Total[2].StringFixed(2) != "395.20" {
		t.Fatalf("expected month 3 to be 395.20, got %s", d.Total[2].StringFixed(2))
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, f.db, "idem@example.com")
	f.addProduct(t, c.ID, "12.34")
	f.addProduct(t, c.ID, "5")
	if _, err := f.store.Create(ctx, c.ID, "Main"); err != nil {
		t.Fatalf("create: %v", err)
	}

	read := func() models.Dashboard {
		var row models.Dashboard
		if err := f.db.Where("customer_id = ?", c.ID).First(&row).Error; err != nil {
			t.Fatalf("select: %v", err)
		}
		return row
	}

	if err := f.store.Recompute(ctx, c.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	first := read()
	if err := f.store.Recompute(ctx, c.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	second := read()

	if first.PricePerMonth != second.PricePerMonth || first.Total != second.Total {
		t.Fatalf("expected identical series, got %q/%q then %q/%q",
			first.PricePerMonth, first.Total, second.PricePerMonth, second.Total)
	}
	if first.Month != second.Month {
		t.Fatalf("month axis changed: %q -> %q", first.Month, second.Month)
	}
}

func TestRecomputeWithoutDashboardIsNoop(t *testing.T) {
	f := newFixture(t)
	c := testutil.CreateCustomer(t, f.db, "nodash@example.com")
	testutil.CreateProduct(t, f.db, c.ID, "9.99")

	if err := f.store.Recompute(context.Background(), c.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if n := countDashboards(t, f.db); n != 0 {
		t.Fatalf("expected no dashboard to be created, got %d", n)
	}
}

func TestRecomputeScopedToCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateCustomer(t, f.db, "a@example.com")
	b := testutil.CreateCustomer(t, f.db, "b@example.com")
	f.addProduct(t, a.ID, "10")
	f.addProduct(t, b.ID, "99")
	if _, err := f.store.Create(ctx, a.ID, "A"); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if _, err := f.store.Create(ctx, b.ID, "B"); err != nil {
		t.Fatalf("create b: %v", err)
	}

	f.addProduct(t, b.ID, "1")

	da, err := f.store.GetByCustomer(ctx, a.ID)
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	assertDecimals(t, "a price_per_month", da.PricePerMonth, decimals(10))
	db2, err := f.store.GetByCustomer(ctx, b.ID)
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	assertDecimals(t, "b price_per_month", db2.PricePerMonth, decimals(99, 1))
}

func TestCustomerDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := testutil.CreateCustomer(t, f.db, "gone@example.com")
	f.addProduct(t, c.ID, "10")
	if _, err := f.store.Create(ctx, c.ID, "Main"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.db.Delete(&models.Customer{}, c.ID).Error; err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	if n := countDashboards(t, f.db); n != 0 {
		t.Fatalf("expected dashboard to cascade, got %d rows", n)
	}
	var productRows int64
	f.db.Model(&models.Product{}).Where("customer_id = ?", c.ID).Count(&productRows)
	if productRows != 0 {
		t.Fatalf("expected products to cascade, got %d rows", productRows)
	}
}
