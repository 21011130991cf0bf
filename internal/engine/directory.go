package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"assetline/internal/domain"
)

// EmployeeCreateOptions are parameters for registering an employee.
type EmployeeCreateOptions struct {
	EmployeeID     string
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	Department     string
	JobTitle       string
	WorkLocationID string
	StartDate      string
}

func (e Engine) CreateEmployee(ctx context.Context, opts EmployeeCreateOptions, actor Actor) (domain.Employee, error) {
	if err := e.authorize(actor, domain.ActionCreate); err != nil {
		return domain.Employee{}, err
	}
	if strings.TrimSpace(opts.EmployeeID) == "" || opts.FirstName == "" || opts.LastName == "" || opts.Email == "" {
		return domain.Employee{}, &InvalidInputError{Reason: "employee id, names and email are required"}
	}
	if opts.WorkLocationID != "" {
		loc, err := e.Repo.GetLocation(ctx, opts.WorkLocationID)
		if err != nil {
			return domain.Employee{}, err
		}
		if !loc.Active {
			return domain.Employee{}, &InactiveError{Kind: "location", ID: loc.ID}
		}
	}
	now := e.now().UTC().Format(time.RFC3339)
	emp := domain.Employee{
		ID:             uuid.New().String(),
		EmployeeID:     opts.EmployeeID,
		FirstName:      opts.FirstName,
		LastName:       opts.LastName,
		Email:          opts.Email,
		PhoneNumber:    opts.PhoneNumber,
		Department:     opts.Department,
		JobTitle:       opts.JobTitle,
		WorkLocationID: optionalString(opts.WorkLocationID),
		Active:         true,
		StartDate:      optionalString(opts.StartDate),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.Repo.InsertEmployee(ctx, emp); err != nil {
		return domain.Employee{}, err
	}
	return emp, nil
}

// EmployeePatch holds field-level employee updates; nil means leave unchanged.
type EmployeePatch struct {
	FirstName      *string
	LastName       *string
	Email          *string
	PhoneNumber    *string
	Department     *string
	JobTitle       *string
	WorkLocationID *string
	Active         *bool
}

func (e Engine) UpdateEmployee(ctx context.Context, id string, patch EmployeePatch, actor Actor) (domain.Employee, error) {
	if err := e.authorize(actor, domain.ActionEdit); err != nil {
		return domain.Employee{}, err
	}
	emp, err := e.Repo.GetEmployee(ctx, id)
	if err != nil {
		return domain.Employee{}, err
	}
	if patch.FirstName != nil {
		emp.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		emp.LastName = *patch.LastName
	}
	if patch.Email != nil {
		emp.Email = *patch.Email
	}
	if patch.PhoneNumber != nil {
		emp.PhoneNumber = *patch.PhoneNumber
	}
	if patch.Department != nil {
		emp.Department = *patch.Department
	}
	if patch.JobTitle != nil {
		emp.JobTitle = *patch.JobTitle
	}
	if patch.WorkLocationID != nil {
		if *patch.WorkLocationID != "" {
			loc, err := e.Repo.GetLocation(ctx, *patch.WorkLocationID)
			if err != nil {
				return domain.Employee{}, err
			}
			if !loc.Active {
				return domain.Employee{}, &InactiveError{Kind: "location", ID: loc.ID}
			}
		}
		emp.WorkLocationID = optionalString(*patch.WorkLocationID)
	}
	if patch.Active != nil {
		emp.Active = *patch.Active
	}
	emp.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateEmployee(ctx, emp); err != nil {
		return domain.Employee{}, err
	}
	return emp, nil
}

// DeactivateEmployee marks an employee inactive; existing assignments stay open.
func (e Engine) DeactivateEmployee(ctx context.Context, id string, actor Actor) (domain.Employee, error) {
	inactive := false
	return e.UpdateEmployee(ctx, id, EmployeePatch{Active: &inactive}, actor)
}

// LocationCreateOptions are parameters for registering a location.
type LocationCreateOptions struct {
	Building    string
	Floor       int
	Room        string
	Description string
}

func (e Engine) CreateLocation(ctx context.Context, opts LocationCreateOptions, actor Actor) (domain.Location, error) {
	if err := e.authorize(actor, domain.ActionCreate); err != nil {
		return domain.Location{}, err
	}
	if strings.TrimSpace(opts.Building) == "" {
		return domain.Location{}, &InvalidInputError{Reason: "building is required"}
	}
	l := domain.Location{
		ID:          uuid.New().String(),
		Building:    opts.Building,
		Floor:       opts.Floor,
		Room:        opts.Room,
		Description: opts.Description,
		Active:      true,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertLocation(ctx, l); err != nil {
		return domain.Location{}, err
	}
	return l, nil
}

type LocationPatch struct {
	Building    *string
	Floor       *int
	Room        *string
	Description *string
	Active      *bool
}

func (e Engine) UpdateLocation(ctx context.Context, id string, patch LocationPatch, actor Actor) (domain.Location, error) {
	if err := e.authorize(actor, domain.ActionEdit); err != nil {
		return domain.Location{}, err
	}
	l, err := e.Repo.GetLocation(ctx, id)
	if err != nil {
		return domain.Location{}, err
	}
	if patch.Building != nil {
		l.Building = *patch.Building
	}
	if patch.Floor != nil {
		l.Floor = *patch.Floor
	}
	if patch.Room != nil {
		l.Room = *patch.Room
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Active != nil {
		l.Active = *patch.Active
	}
	if err := e.Repo.UpdateLocation(ctx, l); err != nil {
		return domain.Location{}, err
	}
	return l, nil
}

func (e Engine) DeactivateLocation(ctx context.Context, id string, actor Actor) (domain.Location, error) {
	inactive := false
	return e.UpdateLocation(ctx, id, LocationPatch{Active: &inactive}, actor)
}

// UserCreateOptions are parameters for creating a console user.
type UserCreateOptions struct {
	Email      string
	FirstName  string
	LastName   string
	Role       domain.Role
	Department string
}

func (e Engine) CreateUser(ctx context.Context, opts UserCreateOptions, actor Actor) (domain.User, error) {
	if err := e.authorize(actor, domain.ActionManageUsers); err != nil {
		return domain.User{}, err
	}
	if strings.TrimSpace(opts.Email) == "" {
		return domain.User{}, &InvalidInputError{Reason: "email is required"}
	}
	if _, err := domain.ParseRole(string(opts.Role)); err != nil {
		return domain.User{}, &InvalidInputError{Reason: err.Error()}
	}
	now := e.now().UTC().Format(time.RFC3339)
	u := domain.User{
		ID:         uuid.New().String(),
		Email:      opts.Email,
		FirstName:  opts.FirstName,
		LastName:   opts.LastName,
		Role:       opts.Role,
		Department: opts.Department,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.Repo.InsertUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

type UserPatch struct {
	Email      *string
	FirstName  *string
	LastName   *string
	Role       *domain.Role
	Department *string
	Active     *bool
}

func (e Engine) UpdateUser(ctx context.Context, id string, patch UserPatch, actor Actor) (domain.User, error) {
	if err := e.authorize(actor, domain.ActionManageUsers); err != nil {
		return domain.User{}, err
	}
	u, err := e.Repo.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Role != nil {
		if _, err := domain.ParseRole(string(*patch.Role)); err != nil {
			return domain.User{}, &InvalidInputError{Reason: err.Error()}
		}
		u.Role = *patch.Role
	}
	if patch.Department != nil {
		u.Department = *patch.Department
	}
	if patch.Active != nil {
		u.Active = *patch.Active
	}
	u.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (e Engine) DeactivateUser(ctx context.Context, id string, actor Actor) (domain.User, error) {
	inactive := false
	return e.UpdateUser(ctx, id, UserPatch{Active: &inactive}, actor)
}
