package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"assetline/internal/config"
	"assetline/internal/db"
	"assetline/internal/domain"
	"assetline/internal/engine"
	"assetline/internal/engine/auth"
	"assetline/internal/migrate"
)

var (
	admin   = engine.Actor{ID: "tester", Role: domain.RoleAdmin}
	officer = engine.Actor{ID: "officer", Role: domain.RoleITOfficer}
	viewer  = engine.Actor{ID: "viewer", Role: domain.RoleViewer}
)

type testEnv struct {
	Engine   engine.Engine
	Ctx      context.Context
	Employee domain.Employee
	Location domain.Location
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
	cfg := config.Default("org-1")
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	emp, err := eng.CreateEmployee(ctx, engine.EmployeeCreateOptions{
		EmployeeID: "EMP-001",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Department: "Engineering",
	}, admin)
	if err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	loc, err := eng.CreateLocation(ctx, engine.LocationCreateOptions{
		Building: "HQ",
		Floor:    3,
		Room:     "3.14",
	}, admin)
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx, Employee: emp, Location: loc}
}

func createAsset(t *testing.T, env testEnv, tag string) domain.Asset {
	t.Helper()
	a, err := env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		AssetTag: tag,
		Category: domain.CategoryLaptop,
		Brand:    "Lenovo",
		Model:    "T14",
	}, admin)
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return a
}

func TestAssignReturnRoundtrip(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0001")
	if a.Status != domain.StatusAvailable {
		t.Fatalf("expected available, got %s", a.Status)
	}
	as, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{
		AssetID:    a.ID,
		EmployeeID: env.Employee.ID,
		LocationID: env.Location.ID,
	}, officer)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	got, err := env.Engine.Repo.GetAsset(env.Ctx, a.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if got.Status != domain.StatusAssigned {
		t.Fatalf("expected assigned, got %s", got.Status)
	}
	returned, err := env.Engine.Return(env.Ctx, engine.ReturnOptions{AssignmentID: as.ID}, officer)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.ActualReturnDate == nil {
		t.Fatalf("expected return date set")
	}
	got, err = env.Engine.Repo.GetAsset(env.Ctx, a.ID)
	if err != nil {
		t.Fatalf("get asset after return: %v", err)
	}
	if got.Status != domain.StatusAvailable {
		t.Fatalf("expected available after return, got %s", got.Status)
	}
}

func TestAssignRequiresAvailable(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0002")
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer)
	var stateErr *engine.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestDoubleReturn(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0003")
	as, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := env.Engine.Return(env.Ctx, engine.ReturnOptions{AssignmentID: as.ID}, officer); err != nil {
		t.Fatalf("return: %v", err)
	}
	_, err = env.Engine.Return(env.Ctx, engine.ReturnOptions{AssignmentID: as.ID}, officer)
	var stateErr *engine.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected already returned error, got %v", err)
	}
}

func TestReturnDateValidation(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0004")
	as, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{
		AssetID:      a.ID,
		EmployeeID:   env.Employee.ID,
		AssignedDate: "2024-01-01",
	}, officer)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	_, err = env.Engine.Return(env.Ctx, engine.ReturnOptions{AssignmentID: as.ID, ActualReturnDate: "2023-12-31"}, officer)
	var inputErr *engine.InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected return-before-assign rejection, got %v", err)
	}
	// same-day return is fine
	if _, err := env.Engine.Return(env.Ctx, engine.ReturnOptions{AssignmentID: as.ID, ActualReturnDate: "2024-01-01"}, officer); err != nil {
		t.Fatalf("same-day return: %v", err)
	}
}

func TestCreateInAssignedStatusRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		AssetTag: "IT-0005",
		Category: domain.CategoryLaptop,
		Brand:    "Dell",
		Model:    "XPS",
		Status:   domain.StatusAssigned,
	}, admin)
	var inputErr *engine.InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestStatusEditToAvailableWhileAssigned(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0006")
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer); err != nil {
		t.Fatalf("assign: %v", err)
	}
	status := domain.StatusAvailable
	_, err := env.Engine.UpdateAsset(env.Ctx, a.ID, engine.AssetPatch{Status: &status}, admin)
	var stateErr *engine.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected edit blocked while assigned, got %v", err)
	}
}

func TestAdminStatusChangeForceClosesAssignment(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0007")
	as, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	status := domain.StatusLost
	updated, err := env.Engine.UpdateAsset(env.Ctx, a.ID, engine.AssetPatch{Status: &status}, admin)
	if err != nil {
		t.Fatalf("status change: %v", err)
	}
	if updated.Status != domain.StatusLost {
		t.Fatalf("expected lost, got %s", updated.Status)
	}
	closed, err := env.Engine.Repo.GetAssignment(env.Ctx, as.ID)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if closed.ActualReturnDate == nil {
		t.Fatalf("expected assignment force-closed")
	}
}

func TestDeleteWhileAssignedConflicts(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0008")
	if _, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer); err != nil {
		t.Fatalf("assign: %v", err)
	}
	err := env.Engine.DeleteAsset(env.Ctx, a.ID, admin)
	var conflict *engine.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDuplicateTagConflicts(t *testing.T) {
	env := newTestEnv(t)
	createAsset(t, env, "IT-0009")
	_, err := env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		AssetTag: "IT-0009",
		Category: domain.CategoryMonitor,
		Brand:    "LG",
		Model:    "27UK",
	}, admin)
	var conflict *engine.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected duplicate tag conflict, got %v", err)
	}
}

func TestRoleEnforcement(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0010")
	_, err := env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		AssetTag: "IT-0011",
		Category: domain.CategoryLaptop,
		Brand:    "HP",
		Model:    "EliteBook",
	}, viewer)
	var forbidden *auth.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected viewer create forbidden, got %v", err)
	}
	// delete is admin-only
	err = env.Engine.DeleteAsset(env.Ctx, a.ID, officer)
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected officer delete forbidden, got %v", err)
	}
	if err := env.Engine.DeleteAsset(env.Ctx, a.ID, admin); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestInactiveEmployeeRejected(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0012")
	if _, err := env.Engine.DeactivateEmployee(env.Ctx, env.Employee.ID, admin); err != nil {
		t.Fatalf("deactivate employee: %v", err)
	}
	_, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer)
	var inactive *engine.InactiveError
	if !errors.As(err, &inactive) {
		t.Fatalf("expected inactive employee rejection, got %v", err)
	}
}

func TestEventAppendOnStateChanges(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0013")
	as, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := env.Engine.Return(env.Ctx, engine.ReturnOptions{AssignmentID: as.ID}, officer); err != nil {
		t.Fatalf("return: %v", err)
	}
	rows, err := env.Engine.DB.QueryContext(env.Ctx, `SELECT type FROM asset_events WHERE asset_id=? ORDER BY seq`, a.ID)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	defer rows.Close()
	var types []string
	for rows.Next() {
		var typ string
		if err := rows.Scan(&typ); err != nil {
			t.Fatalf("scan: %v", err)
		}
		types = append(types, typ)
	}
	if len(types) != 3 {
		t.Fatalf("expected 3 events, got %v", types)
	}
	if types[0] != "asset.created" || types[1] != "asset.assigned" || types[2] != "asset.returned" {
		t.Fatalf("unexpected event sequence %v", types)
	}
}

func TestOptionalTextFieldsPersistEmpty(t *testing.T) {
	env := newTestEnv(t)
	// employee seeded without phone or job title
	emp, err := env.Engine.Repo.GetEmployee(env.Ctx, env.Employee.ID)
	if err != nil {
		t.Fatalf("get employee: %v", err)
	}
	if emp.PhoneNumber != "" || emp.JobTitle != "" {
		t.Fatalf("expected empty phone/title, got %q/%q", emp.PhoneNumber, emp.JobTitle)
	}
	loc, err := env.Engine.CreateLocation(env.Ctx, engine.LocationCreateOptions{Building: "Annex", Floor: 1}, admin)
	if err != nil {
		t.Fatalf("create location without room: %v", err)
	}
	if loc.Room != "" || loc.Description != "" {
		t.Fatalf("expected empty room/description, got %q/%q", loc.Room, loc.Description)
	}
	a := createAsset(t, env, "IT-0020")
	as, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer)
	if err != nil {
		t.Fatalf("assign without notes: %v", err)
	}
	returned, err := env.Engine.Return(env.Ctx, engine.ReturnOptions{AssignmentID: as.ID}, officer)
	if err != nil {
		t.Fatalf("return without notes: %v", err)
	}
	if returned.Notes != "" || returned.ReturnNotes != "" {
		t.Fatalf("expected empty notes, got %q/%q", returned.Notes, returned.ReturnNotes)
	}
	got, err := env.Engine.Repo.GetAsset(env.Ctx, a.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if got.Notes != "" {
		t.Fatalf("expected empty asset notes, got %q", got.Notes)
	}
}

func TestCreateAssetRejectsUnknownEnums(t *testing.T) {
	env := newTestEnv(t)
	var inputErr *engine.InvalidInputError
	_, err := env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		AssetTag: "IT-0021",
		Category: domain.AssetCategory("banana"),
		Brand:    "Acme",
		Model:    "X",
	}, admin)
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected unknown category rejected, got %v", err)
	}
	_, err = env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		AssetTag:  "IT-0021",
		Category:  domain.CategoryLaptop,
		Brand:     "Acme",
		Model:     "X",
		Condition: domain.AssetCondition("shiny"),
	}, admin)
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected unknown condition rejected, got %v", err)
	}
	_, err = env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		AssetTag: "IT-0021",
		Category: domain.CategoryLaptop,
		Brand:    "Acme",
		Model:    "X",
		Status:   domain.AssetStatus("banana"),
	}, admin)
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected unknown status rejected, got %v", err)
	}
}

func TestUpdateAssetRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0022")
	status := domain.AssetStatus("banana")
	_, err := env.Engine.UpdateAsset(env.Ctx, a.ID, engine.AssetPatch{Status: &status}, admin)
	var inputErr *engine.InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected unknown status rejected, got %v", err)
	}
	got, err := env.Engine.Repo.GetAsset(env.Ctx, a.ID)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if got.Status != domain.StatusAvailable {
		t.Fatalf("expected status untouched, got %s", got.Status)
	}
}

func TestReturnAfterForceCloseRejected(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0023")
	as, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	status := domain.StatusLost
	if _, err := env.Engine.UpdateAsset(env.Ctx, a.ID, engine.AssetPatch{Status: &status}, admin); err != nil {
		t.Fatalf("status change: %v", err)
	}
	_, err = env.Engine.Return(env.Ctx, engine.ReturnOptions{AssignmentID: as.ID}, officer)
	var stateErr *engine.InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected return on closed assignment rejected, got %v", err)
	}
}

func TestConcurrentAssignSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	// single connection keeps SQLite writers serialized
	env.Engine.DB.SetMaxOpenConns(1)
	a := createAsset(t, env, "IT-0024")
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, officer)
		}(i)
	}
	wg.Wait()
	var okCount int
	for _, err := range errs {
		if err == nil {
			okCount++
			continue
		}
		var stateErr *engine.InvalidStateError
		var conflict *engine.ConflictError
		if !errors.As(err, &stateErr) && !errors.As(err, &conflict) {
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
	if okCount != 1 {
		t.Fatalf("expected exactly one winner, got %d", okCount)
	}
	var n int
	if err := env.Engine.DB.QueryRowContext(env.Ctx, `SELECT count(*) FROM assignments WHERE asset_id=?`, a.ID).Scan(&n); err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one assignment row, got %d", n)
	}
}

func TestConditionChangeLogged(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0014")
	updated, err := env.Engine.ChangeCondition(env.Ctx, a.ID, domain.ConditionBad, officer)
	if err != nil {
		t.Fatalf("change condition: %v", err)
	}
	if updated.Condition != domain.ConditionBad {
		t.Fatalf("expected bad, got %s", updated.Condition)
	}
	if updated.Version != a.Version+1 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}
}
