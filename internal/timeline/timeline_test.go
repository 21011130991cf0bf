package timeline_test

import (
	"context"
	"testing"
	"time"

	"assetline/internal/config"
	"assetline/internal/db"
	"assetline/internal/domain"
	"assetline/internal/engine"
	"assetline/internal/migrate"
	"assetline/internal/timeline"
)

var admin = engine.Actor{ID: "tester", Role: domain.RoleAdmin}

type testEnv struct {
	Engine    engine.Engine
	Projector timeline.Projector
	Ctx       context.Context
	Employee  domain.Employee
	clock     *time.Time
}

// tick advances the clock so successive commands get distinct timestamps.
func (env testEnv) tick() {
	*env.clock = env.clock.Add(time.Minute)
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
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	eng := engine.New(conn, config.Default("org-1"))
	eng.Now = func() time.Time { return now }
	eng.Events.Now = eng.Now
	ctx := context.Background()
	emp, err := eng.CreateEmployee(ctx, engine.EmployeeCreateOptions{
		EmployeeID: "EMP-001",
		FirstName:  "Grace",
		LastName:   "Hopper",
		Email:      "grace@example.com",
	}, admin)
	if err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return testEnv{
		Engine:    eng,
		Projector: timeline.Projector{Repo: eng.Repo},
		Ctx:       ctx,
		Employee:  emp,
		clock:     &now,
	}
}

func createAsset(t *testing.T, env testEnv, tag string) domain.Asset {
	t.Helper()
	a, err := env.Engine.CreateAsset(env.Ctx, engine.AssetCreateOptions{
		AssetTag: tag,
		Category: domain.CategoryLaptop,
		Brand:    "Apple",
		Model:    "MacBook Air",
	}, admin)
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return a
}

func TestTimelineNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0100")
	env.tick()
	as, err := env.Engine.Assign(env.Ctx, engine.AssignOptions{AssetID: a.ID, EmployeeID: env.Employee.ID}, admin)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	env.tick()
	if _, err := env.Engine.Return(env.Ctx, engine.ReturnOptions{AssignmentID: as.ID}, admin); err != nil {
		t.Fatalf("return: %v", err)
	}
	entries, err := env.Projector.Timeline(env.Ctx, a.ID, 0)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Type != domain.TimelineReturned || entries[2].Type != domain.TimelineCreated {
		t.Fatalf("expected newest first, got %s ... %s", entries[0].Type, entries[2].Type)
	}
	if entries[0].Title != "Returned by Grace Hopper" {
		t.Fatalf("unexpected title %q", entries[0].Title)
	}
}

func TestMaintenanceStatusProjection(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0101")
	env.tick()
	maint := domain.StatusUnderMaintenance
	if _, err := env.Engine.UpdateAsset(env.Ctx, a.ID, engine.AssetPatch{Status: &maint}, admin); err != nil {
		t.Fatalf("to maintenance: %v", err)
	}
	entries, err := env.Projector.Timeline(env.Ctx, a.ID, 0)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	var found bool
	for _, entry := range entries {
		if entry.Type == domain.TimelineMaintenance {
			found = true
			if entry.Status != domain.TimelineInProgress {
				t.Fatalf("open maintenance should be in_progress, got %s", entry.Status)
			}
		}
	}
	if !found {
		t.Fatalf("expected maintenance entry")
	}

	// once the asset moves on, the maintenance entry becomes historical
	env.tick()
	avail := domain.StatusAvailable
	if _, err := env.Engine.UpdateAsset(env.Ctx, a.ID, engine.AssetPatch{Status: &avail}, admin); err != nil {
		t.Fatalf("back to available: %v", err)
	}
	entries, err = env.Projector.Timeline(env.Ctx, a.ID, 0)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	for _, entry := range entries {
		if entry.Type == domain.TimelineMaintenance && entry.Status != domain.TimelinePending {
			t.Fatalf("closed maintenance should be pending, got %s", entry.Status)
		}
	}
}

func TestLostStatusWarns(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0102")
	env.tick()
	lost := domain.StatusLost
	if _, err := env.Engine.UpdateAsset(env.Ctx, a.ID, engine.AssetPatch{Status: &lost}, admin); err != nil {
		t.Fatalf("to lost: %v", err)
	}
	entries, err := env.Projector.Timeline(env.Ctx, a.ID, 0)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	var found bool
	for _, entry := range entries {
		if entry.Type == domain.TimelineStatusChanged {
			found = true
			if entry.Status != domain.TimelineWarning {
				t.Fatalf("lost should project warning, got %s", entry.Status)
			}
			if entry.Description != "available to lost" {
				t.Fatalf("unexpected description %q", entry.Description)
			}
		}
	}
	if !found {
		t.Fatalf("expected status change entry")
	}
}

func TestLimitKeepsTimestampGroups(t *testing.T) {
	env := newTestEnv(t)
	a := createAsset(t, env, "IT-0103")
	// assign emits a single event at one timestamp; status change emits
	// update + status events sharing the next timestamp
	env.tick()
	maint := domain.StatusUnderMaintenance
	if _, err := env.Engine.UpdateAsset(env.Ctx, a.ID, engine.AssetPatch{Status: &maint}, admin); err != nil {
		t.Fatalf("to maintenance: %v", err)
	}
	entries, err := env.Projector.Timeline(env.Ctx, a.ID, 1)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("limit must not split a same-timestamp group, got %d entries", len(entries))
	}
	if entries[0].TS != entries[1].TS {
		t.Fatalf("expected shared timestamp")
	}
}
