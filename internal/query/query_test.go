package query_test

import (
	"context"
	"testing"
	"time"

	"assetline/internal/config"
	"assetline/internal/db"
	"assetline/internal/domain"
	"assetline/internal/engine"
	"assetline/internal/migrate"
	"assetline/internal/query"
	"assetline/internal/repo"
)

var admin = engine.Actor{ID: "tester", Role: domain.RoleAdmin}

type testEnv struct {
	Engine   engine.Engine
	Queries  query.Queries
	Ctx      context.Context
	Employee domain.Employee
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	eng := engine.New(conn, config.Default("org-1"))
	eng.Now = now
	q := query.New(conn, 30)
	q.Now = now
	ctx := context.Background()
	emp, err := eng.CreateEmployee(ctx, engine.EmployeeCreateOptions{
		EmployeeID: "EMP-001",
		FirstName:  "Alan",
		LastName:   "Turing",
		Email:      "alan@example.com",
		Department: "Research",
	}, admin)
	if err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return testEnv{Engine: eng, Queries: q, Ctx: ctx, Employee: emp}
}

func createAsset(t *testing.T, env testEnv, opts engine.AssetCreateOptions) domain.Asset {
	t.Helper()
	if opts.Category == "" {
		opts.Category = domain.CategoryLaptop
	}
	if opts.Brand == "" {
		opts.Brand = "Framework"
	}
	if opts.Model == "" {
		opts.Model = "13"
	}
	a, err := env.Engine.CreateAsset(env.Ctx, opts, admin)
	if err != nil {
		t.Fatalf("create asset %s: %v", opts.AssetTag, err)
	}
	return a
}

func TestIsOverdue(t *testing.T) {
	env := newTestEnv(t)
	past := "2024-05-01T00:00:00Z"
	future := "2024-07-01T00:00:00Z"
	returned := "2024-05-15T00:00:00Z"

	if got := env.Queries.IsOverdue(domain.Assignment{AssignedDate: "2024-04-01T00:00:00Z", ExpectedReturnDate: &past}); !got {
		t.Fatalf("past expected date should be overdue")
	}
	if got := env.Queries.IsOverdue(domain.Assignment{AssignedDate: "2024-04-01T00:00:00Z", ExpectedReturnDate: &future}); got {
		t.Fatalf("future expected date should not be overdue")
	}
	if got := env.Queries.IsOverdue(domain.Assignment{AssignedDate: "2024-04-01T00:00:00Z"}); got {
		t.Fatalf("no expected date is never overdue")
	}
	if got := env.Queries.IsOverdue(domain.Assignment{AssignedDate: "2024-04-01T00:00:00Z", ExpectedReturnDate: &past, ActualReturnDate: &returned}); got {
		t.Fatalf("returned assignment is never overdue")
	}
}

func TestDaysAssigned(t *testing.T) {
	env := newTestEnv(t)
	ret := "2024-05-11T00:00:00Z"
	as := domain.Assignment{AssignedDate: "2024-05-01T00:00:00Z", ActualReturnDate: &ret}
	if got := env.Queries.DaysAssigned(as); got != 10 {
		t.Fatalf("expected 10 days, got %d", got)
	}
	// open assignment measures up to now (2024-06-01)
	open := domain.Assignment{AssignedDate: "2024-05-02T12:00:00Z"}
	if got := env.Queries.DaysAssigned(open); got != 30 {
		t.Fatalf("expected 30 days, got %d", got)
	}
}

func TestFindAvailableAssets(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, engine.AssetCreateOptions{AssetTag: "IT-0200"})
	createAsset(t, env, engine.AssetCreateOptions{AssetTag: "IT-0201"})
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, admin); err != nil {
		t.Fatalf("assign: %v", err)
	}
	available, err := env.Queries.FindAvailableAssets(env.Ctx, repo.AssetFilters{})
	if err != nil {
		t.Fatalf("find available: %v", err)
	}
	if len(available) != 1 || available[0].AssetTag != "IT-0201" {
		t.Fatalf("expected only IT-0201 available, got %+v", available)
	}
}

func TestWarrantyExpiring(t *testing.T) {
	env := newTestEnv(t)
	createAsset(t, env, engine.AssetCreateOptions{AssetTag: "IT-0202", WarrantyExpiry: "2024-06-15"})
	createAsset(t, env, engine.AssetCreateOptions{AssetTag: "IT-0203", WarrantyExpiry: "2025-01-01"})
	createAsset(t, env, engine.AssetCreateOptions{AssetTag: "IT-0204"})

	expiring, err := env.Queries.WarrantyExpiring(env.Ctx, 0)
	if err != nil {
		t.Fatalf("warranty expiring: %v", err)
	}
	if len(expiring) != 1 || expiring[0].AssetTag != "IT-0202" {
		t.Fatalf("expected IT-0202 in 30-day window, got %+v", expiring)
	}
	// widening the window picks up the later expiry too
	expiring, err = env.Queries.WarrantyExpiring(env.Ctx, 365)
	if err != nil {
		t.Fatalf("warranty expiring wide: %v", err)
	}
	if len(expiring) != 2 {
		t.Fatalf("expected 2 in 365-day window, got %d", len(expiring))
	}
}

func TestOverdueAssignments(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, engine.AssetCreateOptions{AssetTag: "IT-0205"})
	b := createAsset(t, env, engine.AssetCreateOptions{AssetTag: "IT-0206"})
	late, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{
		AssetID:            a.ID,
		EmployeeID:         env.Employee.ID,
		AssignedDate:       "2024-04-01",
		ExpectedReturnDate: "2024-05-01",
	}, admin)
	if err != nil {
		t.Fatalf("assign late: %v", err)
	}
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{
		AssetID:            b.ID,
		EmployeeID:         env.Employee.ID,
		AssignedDate:       "2024-05-20",
		ExpectedReturnDate: "2024-07-01",
	}, admin); err != nil {
		t.Fatalf("assign on-time: %v", err)
	}
	overdue, err := env.Queries.OverdueAssignments(env.Ctx)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Fatalf("expected one overdue assignment, got %+v", overdue)
	}
}

func TestDashboardSummary(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, engine.AssetCreateOptions{AssetTag: "IT-0207"})
	createAsset(t, env, engine.AssetCreateOptions{AssetTag: "IT-0208", Category: domain.CategoryMonitor})
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{
		AssetID:            a.ID,
		EmployeeID:         env.Employee.ID,
		ExpectedReturnDate: "2024-05-01",
		AssignedDate:       "2024-04-01",
	}, admin); err != nil {
		t.Fatalf("assign: %v", err)
	}
	summary, err := env.Queries.DashboardSummary(env.Ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if summary.TotalAssets != 2 {
		t.Fatalf("expected 2 assets, got %d", summary.TotalAssets)
	}
	if summary.ByStatus[domain.StatusAssigned] != 1 || summary.ByStatus[domain.StatusAvailable] != 1 {
		t.Fatalf("unexpected status counts %+v", summary.ByStatus)
	}
	if summary.ByCategory[domain.CategoryLaptop] != 1 || summary.ByCategory[domain.CategoryMonitor] != 1 {
		t.Fatalf("unexpected category counts %+v", summary.ByCategory)
	}
	if summary.OverdueAssignments != 1 {
		t.Fatalf("expected 1 overdue, got %d", summary.OverdueAssignments)
	}
	if len(summary.ByDepartment) != 1 || summary.ByDepartment[0].Department != "Research" || summary.ByDepartment[0].Count != 1 {
		t.Fatalf("unexpected department counts %+v", summary.ByDepartment)
	}
}
