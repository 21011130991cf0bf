package repo

import (
	"context"
	"database/sql"
	"strings"

	"assetline/internal/domain"
)

const assignmentColumns = `id,asset_id,employee_id,location_id,assigned_date,expected_return_date,actual_return_date,notes,return_notes`

func scanAssignment(row rowScanner) (domain.Assignment, error) {
	var as domain.Assignment
	var locationID, expected, actual, notes, returnNotes sql.NullString
	err := row.Scan(&as.ID, &as.AssetID, &as.EmployeeID, &locationID, &as.AssignedDate, &expected, &actual, &notes, &returnNotes)
	if err == sql.ErrNoRows {
		return as, ErrNotFound
	}
	if err != nil {
		return as, err
	}
	if locationID.Valid {
		as.LocationID = &locationID.String
	}
	if expected.Valid {
		as.ExpectedReturnDate = &expected.String
	}
	if actual.Valid {
		as.ActualReturnDate = &actual.String
	}
	if notes.Valid {
		as.Notes = notes.String
	}
	if returnNotes.Valid {
		as.ReturnNotes = returnNotes.String
	}
	return as, nil
}

func (r Repo) InsertAssignmentTx(ctx context.Context, tx *sql.Tx, as domain.Assignment) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO assignments(`+assignmentColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		as.ID, as.AssetID, as.EmployeeID, nullableStringPtr(as.LocationID), as.AssignedDate,
		nullableStringPtr(as.ExpectedReturnDate), nullableStringPtr(as.ActualReturnDate),
		as.Notes, as.ReturnNotes)
	return err
}

func (r Repo) GetAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	return scanAssignment(r.DB.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id=?`, id))
}

func (r Repo) GetAssignmentTx(ctx context.Context, tx *sql.Tx, id string) (domain.Assignment, error) {
	return scanAssignment(tx.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id=?`, id))
}

// ActiveAssignmentForAssetTx returns the open assignment for an asset, or
// ErrNotFound when none is active.
func (r Repo) ActiveAssignmentForAssetTx(ctx context.Context, tx *sql.Tx, assetID string) (domain.Assignment, error) {
	return scanAssignment(tx.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE asset_id=? AND actual_return_date IS NULL LIMIT 1`, assetID))
}

func (r Repo) ActiveAssignmentForAsset(ctx context.Context, assetID string) (domain.Assignment, error) {
	return scanAssignment(r.DB.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE asset_id=? AND actual_return_date IS NULL LIMIT 1`, assetID))
}

func (r Repo) CloseAssignmentTx(ctx context.Context, tx *sql.Tx, id, actualReturnDate, returnNotes string) error {
	res, err := tx.ExecContext(ctx, `UPDATE assignments SET actual_return_date=?, return_notes=? WHERE id=? AND actual_return_date IS NULL`,
		actualReturnDate, returnNotes, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type AssignmentFilters struct {
	AssetID    string
	EmployeeID string
	ActiveOnly bool
	Limit      int
	CursorDate string
	CursorID   string
}

func (r Repo) ListAssignments(ctx context.Context, f AssignmentFilters) ([]domain.Assignment, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.AssetID != "" {
		clauses = append(clauses, "asset_id=?")
		args = append(args, f.AssetID)
	}
	if f.EmployeeID != "" {
		clauses = append(clauses, "employee_id=?")
		args = append(args, f.EmployeeID)
	}
	if f.ActiveOnly {
		clauses = append(clauses, "actual_return_date IS NULL")
	}
	if f.CursorDate != "" && f.CursorID != "" {
		clauses = append(clauses, "(assigned_date < ? OR (assigned_date = ? AND id < ?))")
		args = append(args, f.CursorDate, f.CursorDate, f.CursorID)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + assignmentColumns + ` FROM assignments ` + where + ` ORDER BY assigned_date DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Assignment
	for rows.Next() {
		as, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, as)
	}
	return res, rows.Err()
}
