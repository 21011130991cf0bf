package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"assetline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const assetColumns = `id,asset_tag,category,brand,model,serial_number,condition,purchase_date,purchase_price,warranty_expiry,notes,status,location_id,version,created_at,updated_at,deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (domain.Asset, error) {
	var a domain.Asset
	var category, status, condition string
	var serial, purchaseDate, warranty, notes, locationID, deletedAt sql.NullString
	var price sql.NullFloat64
	err := row.Scan(&a.ID, &a.AssetTag, &category, &a.Brand, &a.Model, &serial, &condition,
		&purchaseDate, &price, &warranty, &notes, &status, &locationID, &a.Version,
		&a.CreatedAt, &a.UpdatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	a.Category = domain.AssetCategory(category)
	a.Status = domain.AssetStatus(status)
	a.Condition = domain.AssetCondition(condition)
	if serial.Valid {
		a.SerialNumber = &serial.String
	}
	if purchaseDate.Valid {
		a.PurchaseDate = &purchaseDate.String
	}
	if price.Valid {
		a.PurchasePrice = &price.Float64
	}
	if warranty.Valid {
		a.WarrantyExpiry = &warranty.String
	}
	if notes.Valid {
		a.Notes = notes.String
	}
	if locationID.Valid {
		a.LocationID = &locationID.String
	}
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.String
	}
	return a, nil
}

func (r Repo) InsertAssetTx(ctx context.Context, tx *sql.Tx, a domain.Asset) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO assets(`+assetColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.AssetTag, string(a.Category), a.Brand, a.Model, nullableStringPtr(a.SerialNumber), string(a.Condition),
		nullableStringPtr(a.PurchaseDate), nullableFloatPtr(a.PurchasePrice), nullableStringPtr(a.WarrantyExpiry),
		a.Notes, string(a.Status), nullableStringPtr(a.LocationID), a.Version,
		a.CreatedAt, a.UpdatedAt, nullableStringPtr(a.DeletedAt))
	return err
}

func (r Repo) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	return scanAsset(r.DB.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id=? AND deleted_at IS NULL`, id))
}

func (r Repo) GetAssetTx(ctx context.Context, tx *sql.Tx, id string) (domain.Asset, error) {
	return scanAsset(tx.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id=? AND deleted_at IS NULL`, id))
}

func (r Repo) GetAssetByTag(ctx context.Context, tag string) (domain.Asset, error) {
	return scanAsset(r.DB.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE asset_tag=? AND deleted_at IS NULL`, tag))
}

// UpdateAssetTx rewrites the mutable asset columns guarded by the optimistic
// version check. Zero rows affected means another writer got there first.
func (r Repo) UpdateAssetTx(ctx context.Context, tx *sql.Tx, a domain.Asset, expectedVersion int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE assets SET asset_tag=?, category=?, brand=?, model=?, serial_number=?, condition=?, purchase_date=?, purchase_price=?, warranty_expiry=?, notes=?, status=?, location_id=?, version=?, updated_at=?, deleted_at=? WHERE id=? AND version=? AND deleted_at IS NULL`,
		a.AssetTag, string(a.Category), a.Brand, a.Model, nullableStringPtr(a.SerialNumber), string(a.Condition),
		nullableStringPtr(a.PurchaseDate), nullableFloatPtr(a.PurchasePrice), nullableStringPtr(a.WarrantyExpiry),
		a.Notes, string(a.Status), nullableStringPtr(a.LocationID), expectedVersion+1, a.UpdatedAt,
		nullableStringPtr(a.DeletedAt), a.ID, expectedVersion)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// ErrVersionConflict signals a lost optimistic-concurrency race on an asset row.
var ErrVersionConflict = errors.New("asset version conflict")

type AssetFilters struct {
	Status          string
	Category        string
	LocationID      string
	Search          string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListAssets(ctx context.Context, f AssetFilters) ([]domain.Asset, error) {
	clauses := []string{"deleted_at IS NULL"}
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, f.Category)
	}
	if f.LocationID != "" {
		clauses = append(clauses, "location_id=?")
		args = append(args, f.LocationID)
	}
	if f.Search != "" {
		clauses = append(clauses, "(asset_tag LIKE ? OR brand LIKE ? OR model LIKE ? OR serial_number LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like, like)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + assetColumns + ` FROM assets ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r Repo) CountAssetsByStatus(ctx context.Context, tx *sql.Tx, status domain.AssetStatus) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM assets WHERE status=? AND deleted_at IS NULL`, string(status)).Scan(&n)
	return n, err
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func nullableFloatPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// GroupAssetsBy returns counts per distinct value of a whitelisted column.
func (r Repo) GroupAssetsBy(ctx context.Context, tx *sql.Tx, column string) (map[string]int, error) {
	switch column {
	case "status", "category", "condition":
	default:
		return nil, fmt.Errorf("unsupported group column %q", column)
	}
	rows, err := tx.QueryContext(ctx, `SELECT `+column+`, count(*) FROM assets WHERE deleted_at IS NULL GROUP BY `+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		res[key] = count
	}
	return res, rows.Err()
}
