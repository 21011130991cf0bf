package repo

import (
	"context"
	"database/sql"
	"strings"

	"assetline/internal/domain"
)

const employeeColumns = `id,employee_id,first_name,last_name,email,phone_number,department,job_title,work_location_id,active,start_date,created_at,updated_at`

func scanEmployee(row rowScanner) (domain.Employee, error) {
	var e domain.Employee
	var phone, jobTitle, workLocationID, startDate sql.NullString
	var active int
	err := row.Scan(&e.ID, &e.EmployeeID, &e.FirstName, &e.LastName, &e.Email, &phone,
		&e.Department, &jobTitle, &workLocationID, &active, &startDate, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	e.Active = active != 0
	if phone.Valid {
		e.PhoneNumber = phone.String
	}
	if jobTitle.Valid {
		e.JobTitle = jobTitle.String
	}
	if workLocationID.Valid {
		e.WorkLocationID = &workLocationID.String
	}
	if startDate.Valid {
		e.StartDate = &startDate.String
	}
	return e, nil
}

func (r Repo) InsertEmployee(ctx context.Context, e domain.Employee) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO employees(`+employeeColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.EmployeeID, e.FirstName, e.LastName, e.Email, e.PhoneNumber,
		e.Department, e.JobTitle, nullableStringPtr(e.WorkLocationID), boolToInt(e.Active),
		nullableStringPtr(e.StartDate), e.CreatedAt, e.UpdatedAt)
	return err
}

func (r Repo) UpdateEmployee(ctx context.Context, e domain.Employee) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE employees SET first_name=?, last_name=?, email=?, phone_number=?, department=?, job_title=?, work_location_id=?, active=?, start_date=?, updated_at=? WHERE id=?`,
		e.FirstName, e.LastName, e.Email, e.PhoneNumber, e.Department, e.JobTitle,
		nullableStringPtr(e.WorkLocationID), boolToInt(e.Active), nullableStringPtr(e.StartDate), e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	return scanEmployee(r.DB.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=?`, id))
}

func (r Repo) GetEmployeeTx(ctx context.Context, tx *sql.Tx, id string) (domain.Employee, error) {
	return scanEmployee(tx.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=?`, id))
}

type EmployeeFilters struct {
	Department string
	ActiveOnly bool
	Search     string
	Limit      int
}

func (r Repo) ListEmployees(ctx context.Context, f EmployeeFilters) ([]domain.Employee, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.Department != "" {
		clauses = append(clauses, "department=?")
		args = append(args, f.Department)
	}
	if f.ActiveOnly {
		clauses = append(clauses, "active=1")
	}
	if f.Search != "" {
		clauses = append(clauses, "(first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR employee_id LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like, like)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT ` + employeeColumns + ` FROM employees ` + where + ` ORDER BY last_name ASC, first_name ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

const locationColumns = `id,building,floor,room,description,active,created_at`

func scanLocation(row rowScanner) (domain.Location, error) {
	var l domain.Location
	var room, description sql.NullString
	var active int
	err := row.Scan(&l.ID, &l.Building, &l.Floor, &room, &description, &active, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return l, ErrNotFound
	}
	if err != nil {
		return l, err
	}
	l.Active = active != 0
	if room.Valid {
		l.Room = room.String
	}
	if description.Valid {
		l.Description = description.String
	}
	return l, nil
}

func (r Repo) InsertLocation(ctx context.Context, l domain.Location) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO locations(`+locationColumns+`) VALUES (?,?,?,?,?,?,?)`,
		l.ID, l.Building, l.Floor, l.Room, l.Description, boolToInt(l.Active), l.CreatedAt)
	return err
}

func (r Repo) UpdateLocation(ctx context.Context, l domain.Location) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE locations SET building=?, floor=?, room=?, description=?, active=? WHERE id=?`,
		l.Building, l.Floor, l.Room, l.Description, boolToInt(l.Active), l.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetLocation(ctx context.Context, id string) (domain.Location, error) {
	return scanLocation(r.DB.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id=?`, id))
}

func (r Repo) GetLocationTx(ctx context.Context, tx *sql.Tx, id string) (domain.Location, error) {
	return scanLocation(tx.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id=?`, id))
}

func (r Repo) ListLocations(ctx context.Context, activeOnly bool) ([]domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations`
	if activeOnly {
		query += ` WHERE active=1`
	}
	query += ` ORDER BY building ASC, floor ASC, room ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
