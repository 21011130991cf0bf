package query

import (
	"context"
	"database/sql"
	"time"

	"assetline/internal/domain"
	"assetline/internal/repo"
)

// Queries is the read-only surface over the store. It never mutates state;
// derived values like overdue are computed at read time, not persisted.
type Queries struct {
	DB                *sql.DB
	Repo              repo.Repo
	Now               func() time.Time
	WarrantyAlertDays int
}

func New(db *sql.DB, warrantyAlertDays int) Queries {
	if warrantyAlertDays <= 0 {
		warrantyAlertDays = 30
	}
	return Queries{
		DB:                db,
		Repo:              repo.Repo{DB: db},
		Now:               time.Now,
		WarrantyAlertDays: warrantyAlertDays,
	}
}

func (q Queries) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}

// IsAvailable reports whether the asset can be assigned right now.
func (q Queries) IsAvailable(ctx context.Context, assetID string) (bool, error) {
	a, err := q.Repo.GetAsset(ctx, assetID)
	if err != nil {
		return false, err
	}
	return a.Status == domain.StatusAvailable, nil
}

// IsOverdue reports whether an active assignment has passed its expected
// return date. Assignments with no expected date are never overdue.
func (q Queries) IsOverdue(as domain.Assignment) bool {
	if as.ActualReturnDate != nil || as.ExpectedReturnDate == nil {
		return false
	}
	expected, err := time.Parse(time.RFC3339, *as.ExpectedReturnDate)
	if err != nil {
		return false
	}
	return q.now().UTC().After(expected)
}

// DaysAssigned returns the whole days an assignment has been (or was) held.
func (q Queries) DaysAssigned(as domain.Assignment) int {
	start, err := time.Parse(time.RFC3339, as.AssignedDate)
	if err != nil {
		return 0
	}
	end := q.now().UTC()
	if as.ActualReturnDate != nil {
		if t, err := time.Parse(time.RFC3339, *as.ActualReturnDate); err == nil {
			end = t
		}
	}
	days := int(end.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// FindAvailableAssets lists assignable assets with a stable ordering.
func (q Queries) FindAvailableAssets(ctx context.Context, f repo.AssetFilters) ([]domain.Asset, error) {
	f.Status = string(domain.StatusAvailable)
	return q.Repo.ListAssets(ctx, f)
}

func (q Queries) ListAssets(ctx context.Context, f repo.AssetFilters) ([]domain.Asset, error) {
	return q.Repo.ListAssets(ctx, f)
}

// WarrantyExpiring lists assets whose warranty ends within the window.
func (q Queries) WarrantyExpiring(ctx context.Context, days int) ([]domain.Asset, error) {
	if days <= 0 {
		days = q.WarrantyAlertDays
	}
	now := q.now().UTC()
	cutoff := now.AddDate(0, 0, days)
	rows, err := q.DB.QueryContext(ctx, `SELECT id FROM assets WHERE deleted_at IS NULL AND warranty_expiry IS NOT NULL AND warranty_expiry >= ? AND warranty_expiry <= ? ORDER BY warranty_expiry ASC, id ASC`,
		now.Format(time.RFC3339), cutoff.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var res []domain.Asset
	for _, id := range ids {
		a, err := q.Repo.GetAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

// OverdueAssignments lists active assignments past their expected return date.
func (q Queries) OverdueAssignments(ctx context.Context) ([]domain.Assignment, error) {
	active, err := q.Repo.ListAssignments(ctx, repo.AssignmentFilters{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	var res []domain.Assignment
	for _, as := range active {
		if q.IsOverdue(as) {
			res = append(res, as)
		}
	}
	return res, nil
}

// DashboardSummary computes all counts inside one read-only transaction so
// every number reflects the same store snapshot.
func (q Queries) DashboardSummary(ctx context.Context) (domain.DashboardSummary, error) {
	tx, err := q.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	defer tx.Rollback()

	summary := domain.DashboardSummary{
		ByStatus:    map[domain.AssetStatus]int{},
		ByCategory:  map[domain.AssetCategory]int{},
		ByCondition: map[domain.AssetCondition]int{},
	}
	byStatus, err := q.Repo.GroupAssetsBy(ctx, tx, "status")
	if err != nil {
		return summary, err
	}
	for k, v := range byStatus {
		summary.ByStatus[domain.AssetStatus(k)] = v
		summary.TotalAssets += v
	}
	byCategory, err := q.Repo.GroupAssetsBy(ctx, tx, "category")
	if err != nil {
		return summary, err
	}
	for k, v := range byCategory {
		summary.ByCategory[domain.AssetCategory(k)] = v
	}
	byCondition, err := q.Repo.GroupAssetsBy(ctx, tx, "condition")
	if err != nil {
		return summary, err
	}
	for k, v := range byCondition {
		summary.ByCondition[domain.AssetCondition(k)] = v
	}

	locRows, err := tx.QueryContext(ctx, `SELECT l.building, l.floor, count(*) FROM assets a JOIN locations l ON l.id=a.location_id WHERE a.deleted_at IS NULL GROUP BY l.building, l.floor ORDER BY l.building ASC, l.floor ASC`)
	if err != nil {
		return summary, err
	}
	defer locRows.Close()
	for locRows.Next() {
		var lc domain.LocationCount
		if err := locRows.Scan(&lc.Building, &lc.Floor, &lc.Count); err != nil {
			return summary, err
		}
		summary.ByLocation = append(summary.ByLocation, lc)
	}
	if err := locRows.Err(); err != nil {
		return summary, err
	}

	depRows, err := tx.QueryContext(ctx, `SELECT e.department, count(*) FROM assignments s JOIN employees e ON e.id=s.employee_id WHERE s.actual_return_date IS NULL GROUP BY e.department ORDER BY e.department ASC`)
	if err != nil {
		return summary, err
	}
	defer depRows.Close()
	for depRows.Next() {
		var dc domain.DepartmentCount
		if err := depRows.Scan(&dc.Department, &dc.Count); err != nil {
			return summary, err
		}
		summary.ByDepartment = append(summary.ByDepartment, dc)
	}
	if err := depRows.Err(); err != nil {
		return summary, err
	}

	now := q.now().UTC()
	cutoff := now.AddDate(0, 0, q.WarrantyAlertDays)
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM assets WHERE deleted_at IS NULL AND warranty_expiry IS NOT NULL AND warranty_expiry >= ? AND warranty_expiry <= ?`,
		now.Format(time.RFC3339), cutoff.Format(time.RFC3339)).Scan(&summary.WarrantyExpiring); err != nil {
		return summary, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM assignments WHERE actual_return_date IS NULL AND expected_return_date IS NOT NULL AND expected_return_date < ?`,
		now.Format(time.RFC3339)).Scan(&summary.OverdueAssignments); err != nil {
		return summary, err
	}
	return summary, nil
}
