package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"assetline/internal/config"
	"assetline/internal/domain"
	"assetline/internal/engine/auth"
	"assetline/internal/events"
	"assetline/internal/repo"
)

// Engine is the sole writer of asset status and assignment state. Every
// command runs in one SQL transaction: repo writes and event appends commit
// together or not at all.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Actor identifies who issues a command and with which role. The role travels
// with each call; the engine never reads ambient identity state.
type Actor struct {
	ID   string
	Role domain.Role
}

// AssetCreateOptions are parameters for creating an asset.
type AssetCreateOptions struct {
	ID             string
	AssetTag       string
	Category       domain.AssetCategory
	Brand          string
	Model          string
	SerialNumber   string
	Condition      domain.AssetCondition
	PurchaseDate   string
	PurchasePrice  *float64
	WarrantyExpiry string
	Notes          string
	Status         domain.AssetStatus
	LocationID     string
}

func (e Engine) CreateAsset(ctx context.Context, opts AssetCreateOptions, actor Actor) (domain.Asset, error) {
	if err := e.authorize(actor, domain.ActionCreate); err != nil {
		return domain.Asset{}, err
	}
	if strings.TrimSpace(opts.AssetTag) == "" {
		return domain.Asset{}, &InvalidInputError{Reason: "asset tag is required"}
	}
	if opts.Category == "" || opts.Brand == "" || opts.Model == "" {
		return domain.Asset{}, &InvalidInputError{Reason: "category, brand and model are required"}
	}
	if opts.Status == "" {
		opts.Status = domain.StatusAvailable
	}
	if opts.Status == domain.StatusAssigned {
		return domain.Asset{}, &InvalidInputError{Reason: "assets cannot be created in assigned status; use assign"}
	}
	if opts.Condition == "" {
		opts.Condition = domain.ConditionGood
	}
	if _, err := domain.ParseAssetCategory(string(opts.Category)); err != nil {
		return domain.Asset{}, &InvalidInputError{Reason: err.Error()}
	}
	if _, err := domain.ParseAssetStatus(string(opts.Status)); err != nil {
		return domain.Asset{}, &InvalidInputError{Reason: err.Error()}
	}
	if _, err := domain.ParseAssetCondition(string(opts.Condition)); err != nil {
		return domain.Asset{}, &InvalidInputError{Reason: err.Error()}
	}
	if _, err := e.Repo.GetAssetByTag(ctx, opts.AssetTag); err == nil {
		return domain.Asset{}, &ConflictError{Reason: fmt.Sprintf("asset tag %s already exists", opts.AssetTag)}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Asset{}, err
	}
	if opts.LocationID != "" {
		loc, err := e.Repo.GetLocation(ctx, opts.LocationID)
		if err != nil {
			return domain.Asset{}, err
		}
		if !loc.Active {
			return domain.Asset{}, &InactiveError{Kind: "location", ID: loc.ID}
		}
	}
	for _, d := range []*string{&opts.PurchaseDate, &opts.WarrantyExpiry} {
		if *d == "" {
			continue
		}
		norm, err := normalizeDate(*d)
		if err != nil {
			return domain.Asset{}, &InvalidInputError{Reason: fmt.Sprintf("invalid date %q", *d)}
		}
		*d = norm
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := e.now().UTC().Format(time.RFC3339)
	a := domain.Asset{
		ID:             id,
		AssetTag:       opts.AssetTag,
		Category:       opts.Category,
		Brand:          opts.Brand,
		Model:          opts.Model,
		SerialNumber:   optionalString(opts.SerialNumber),
		Condition:      opts.Condition,
		PurchaseDate:   optionalString(opts.PurchaseDate),
		PurchasePrice:  opts.PurchasePrice,
		WarrantyExpiry: optionalString(opts.WarrantyExpiry),
		Notes:          opts.Notes,
		Status:         opts.Status,
		LocationID:     optionalString(opts.LocationID),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Asset{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertAssetTx(ctx, tx, a); err != nil {
		return domain.Asset{}, fmt.Errorf("insert asset: %w", err)
	}
	if err := e.Events.Append(ctx, tx, events.TypeAssetCreated, a.ID, actor.ID, events.EventPayload{
		"asset_tag": a.AssetTag,
		"status":    string(a.Status),
	}); err != nil {
		return domain.Asset{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

// AssetPatch holds field-level updates; nil means leave unchanged.
type AssetPatch struct {
	AssetTag       *string
	Category       *domain.AssetCategory
	Brand          *string
	Model          *string
	SerialNumber   *string
	Condition      *domain.AssetCondition
	PurchaseDate   *string
	PurchasePrice  *float64
	WarrantyExpiry *string
	Notes          *string
	Status         *domain.AssetStatus
	LocationID     *string
}

func (e Engine) UpdateAsset(ctx context.Context, id string, patch AssetPatch, actor Actor) (domain.Asset, error) {
	if err := e.authorize(actor, domain.ActionEdit); err != nil {
		return domain.Asset{}, err
	}
	if patch.Status != nil && *patch.Status == domain.StatusAssigned {
		return domain.Asset{}, &InvalidInputError{Reason: "status cannot be set to assigned directly; use assign"}
	}
	if patch.Status != nil {
		if _, err := domain.ParseAssetStatus(string(*patch.Status)); err != nil {
			return domain.Asset{}, &InvalidInputError{Reason: err.Error()}
		}
	}
	if patch.Category != nil {
		if _, err := domain.ParseAssetCategory(string(*patch.Category)); err != nil {
			return domain.Asset{}, &InvalidInputError{Reason: err.Error()}
		}
	}
	if patch.Condition != nil {
		if _, err := domain.ParseAssetCondition(string(*patch.Condition)); err != nil {
			return domain.Asset{}, &InvalidInputError{Reason: err.Error()}
		}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Asset{}, err
	}
	defer tx.Rollback()

	a, err := e.Repo.GetAssetTx(ctx, tx, id)
	if err != nil {
		return domain.Asset{}, err
	}
	original := a
	expectedVersion := a.Version

	if patch.AssetTag != nil && *patch.AssetTag != a.AssetTag {
		if strings.TrimSpace(*patch.AssetTag) == "" {
			return domain.Asset{}, &InvalidInputError{Reason: "asset tag cannot be empty"}
		}
		if _, err := e.Repo.GetAssetByTag(ctx, *patch.AssetTag); err == nil {
			return domain.Asset{}, &ConflictError{Reason: fmt.Sprintf("asset tag %s already exists", *patch.AssetTag)}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return domain.Asset{}, err
		}
		a.AssetTag = *patch.AssetTag
	}
	if patch.Category != nil {
		a.Category = *patch.Category
	}
	if patch.Brand != nil {
		a.Brand = *patch.Brand
	}
	if patch.Model != nil {
		a.Model = *patch.Model
	}
	if patch.SerialNumber != nil {
		a.SerialNumber = optionalString(*patch.SerialNumber)
	}
	if patch.Condition != nil {
		a.Condition = *patch.Condition
	}
	if patch.PurchaseDate != nil {
		if *patch.PurchaseDate != "" {
			norm, err := normalizeDate(*patch.PurchaseDate)
			if err != nil {
				return domain.Asset{}, &InvalidInputError{Reason: fmt.Sprintf("invalid date %q", *patch.PurchaseDate)}
			}
			*patch.PurchaseDate = norm
		}
		a.PurchaseDate = optionalString(*patch.PurchaseDate)
	}
	if patch.PurchasePrice != nil {
		a.PurchasePrice = patch.PurchasePrice
	}
	if patch.WarrantyExpiry != nil {
		if *patch.WarrantyExpiry != "" {
			norm, err := normalizeDate(*patch.WarrantyExpiry)
			if err != nil {
				return domain.Asset{}, &InvalidInputError{Reason: fmt.Sprintf("invalid date %q", *patch.WarrantyExpiry)}
			}
			*patch.WarrantyExpiry = norm
		}
		a.WarrantyExpiry = optionalString(*patch.WarrantyExpiry)
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}

	locationChanged := false
	if patch.LocationID != nil && !equalStringPtr(optionalString(*patch.LocationID), original.LocationID) {
		if *patch.LocationID != "" {
			loc, err := e.Repo.GetLocationTx(ctx, tx, *patch.LocationID)
			if err != nil {
				return domain.Asset{}, err
			}
			if !loc.Active {
				return domain.Asset{}, &InactiveError{Kind: "location", ID: loc.ID}
			}
		}
		a.LocationID = optionalString(*patch.LocationID)
		locationChanged = true
	}

	statusChanged := patch.Status != nil && *patch.Status != original.Status
	forceReturned := false
	if statusChanged {
		if *patch.Status == domain.StatusAvailable && original.Status == domain.StatusAssigned {
			// Available is reached through return, never through edit.
			if _, err := e.Repo.ActiveAssignmentForAssetTx(ctx, tx, a.ID); err == nil {
				return domain.Asset{}, &InvalidStateError{Reason: "asset has an active assignment; return it instead of editing status"}
			} else if !errors.Is(err, repo.ErrNotFound) {
				return domain.Asset{}, err
			}
		}
		if original.Status == domain.StatusAssigned {
			// Administrative move off assigned force-closes the open assignment.
			active, err := e.Repo.ActiveAssignmentForAssetTx(ctx, tx, a.ID)
			if err == nil {
				now := e.now().UTC().Format(time.RFC3339)
				if err := e.Repo.CloseAssignmentTx(ctx, tx, active.ID, now, "closed by administrative status change"); err != nil {
					return domain.Asset{}, err
				}
				forceReturned = true
				if err := e.Events.Append(ctx, tx, events.TypeAssetReturned, a.ID, actor.ID, events.EventPayload{
					"assignment_id": active.ID,
					"employee_id":   active.EmployeeID,
					"return_date":   now,
					"forced":        true,
				}); err != nil {
					return domain.Asset{}, err
				}
			} else if !errors.Is(err, repo.ErrNotFound) {
				return domain.Asset{}, err
			}
		}
		a.Status = *patch.Status
	}

	a.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateAssetTx(ctx, tx, a, expectedVersion); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return domain.Asset{}, &ConflictError{Reason: "asset was modified concurrently; retry"}
		}
		return domain.Asset{}, err
	}
	a.Version = expectedVersion + 1

	if err := e.Events.Append(ctx, tx, events.TypeAssetUpdated, a.ID, actor.ID, events.EventPayload{
		"fields": changedFields(original, a),
	}); err != nil {
		return domain.Asset{}, err
	}
	if statusChanged {
		evtType := events.TypeAssetStatusChanged
		if a.Status == domain.StatusUnderMaintenance {
			evtType = events.TypeAssetMaintenance
		}
		if err := e.Events.Append(ctx, tx, evtType, a.ID, actor.ID, events.EventPayload{
			"from":           string(original.Status),
			"to":             string(a.Status),
			"force_returned": forceReturned,
		}); err != nil {
			return domain.Asset{}, err
		}
	}
	if locationChanged {
		if err := e.Events.Append(ctx, tx, events.TypeAssetLocationChanged, a.ID, actor.ID, events.EventPayload{
			"from": stringOrEmpty(original.LocationID),
			"to":   stringOrEmpty(a.LocationID),
		}); err != nil {
			return domain.Asset{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

func (e Engine) DeleteAsset(ctx context.Context, id string, actor Actor) error {
	if err := e.authorize(actor, domain.ActionDelete); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	a, err := e.Repo.GetAssetTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if _, err := e.Repo.ActiveAssignmentForAssetTx(ctx, tx, a.ID); err == nil {
		return &ConflictError{Reason: "asset has an active assignment; return it before deleting"}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	now := e.now().UTC().Format(time.RFC3339)
	a.DeletedAt = &now
	a.UpdatedAt = now
	if err := e.Repo.UpdateAssetTx(ctx, tx, a, a.Version); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return &ConflictError{Reason: "asset was modified concurrently; retry"}
		}
		return err
	}
	if err := e.Events.Append(ctx, tx, events.TypeAssetDeleted, a.ID, actor.ID, events.EventPayload{
		"asset_tag": a.AssetTag,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// AssignOptions are parameters for handing an asset to an employee.
type AssignOptions struct {
	AssetID            string
	EmployeeID         string
	LocationID         string
	AssignedDate       string
	ExpectedReturnDate string
	Notes              string
}

func (e Engine) Assign(ctx context.Context, opts AssignOptions, actor Actor) (domain.Assignment, error) {
	if err := e.authorize(actor, domain.ActionAssign); err != nil {
		return domain.Assignment{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Assignment{}, err
	}
	defer tx.Rollback()

	a, err := e.Repo.GetAssetTx(ctx, tx, opts.AssetID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if a.Status != domain.StatusAvailable {
		return domain.Assignment{}, &InvalidStateError{Reason: fmt.Sprintf("asset %s is %s, not available", a.AssetTag, a.Status)}
	}
	emp, err := e.Repo.GetEmployeeTx(ctx, tx, opts.EmployeeID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if !emp.Active {
		return domain.Assignment{}, &InactiveError{Kind: "employee", ID: emp.ID}
	}
	if opts.LocationID != "" {
		loc, err := e.Repo.GetLocationTx(ctx, tx, opts.LocationID)
		if err != nil {
			return domain.Assignment{}, err
		}
		if !loc.Active {
			return domain.Assignment{}, &InactiveError{Kind: "location", ID: loc.ID}
		}
	}
	assignedDate := opts.AssignedDate
	if assignedDate == "" {
		assignedDate = e.now().UTC().Format(time.RFC3339)
	} else {
		norm, err := normalizeDate(assignedDate)
		if err != nil {
			return domain.Assignment{}, &InvalidInputError{Reason: fmt.Sprintf("invalid assigned date %q", assignedDate)}
		}
		assignedDate = norm
	}
	if opts.ExpectedReturnDate != "" {
		norm, err := normalizeDate(opts.ExpectedReturnDate)
		if err != nil {
			return domain.Assignment{}, &InvalidInputError{Reason: fmt.Sprintf("invalid expected return date %q", opts.ExpectedReturnDate)}
		}
		opts.ExpectedReturnDate = norm
	}
	as := domain.Assignment{
		ID:                 uuid.New().String(),
		AssetID:            a.ID,
		EmployeeID:         emp.ID,
		LocationID:         optionalString(opts.LocationID),
		AssignedDate:       assignedDate,
		ExpectedReturnDate: optionalString(opts.ExpectedReturnDate),
		Notes:              opts.Notes,
	}
	if err := e.Repo.InsertAssignmentTx(ctx, tx, as); err != nil {
		return domain.Assignment{}, fmt.Errorf("insert assignment: %w", err)
	}
	expectedVersion := a.Version
	a.Status = domain.StatusAssigned
	if opts.LocationID != "" {
		a.LocationID = optionalString(opts.LocationID)
	}
	a.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateAssetTx(ctx, tx, a, expectedVersion); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return domain.Assignment{}, &ConflictError{Reason: "asset was modified concurrently; retry"}
		}
		return domain.Assignment{}, err
	}
	if err := e.Events.Append(ctx, tx, events.TypeAssetAssigned, a.ID, actor.ID, events.EventPayload{
		"assignment_id": as.ID,
		"employee_id":   as.EmployeeID,
		"location_id":   stringOrEmpty(as.LocationID),
		"expected":      stringOrEmpty(as.ExpectedReturnDate),
	}); err != nil {
		return domain.Assignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Assignment{}, err
	}
	return as, nil
}

// ReturnOptions are parameters for closing an assignment.
type ReturnOptions struct {
	AssignmentID     string
	ActualReturnDate string
	ReturnNotes      string
}

func (e Engine) Return(ctx context.Context, opts ReturnOptions, actor Actor) (domain.Assignment, error) {
	if err := e.authorize(actor, domain.ActionReturn); err != nil {
		return domain.Assignment{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Assignment{}, err
	}
	defer tx.Rollback()

	as, err := e.Repo.GetAssignmentTx(ctx, tx, opts.AssignmentID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if as.ActualReturnDate != nil {
		return domain.Assignment{}, &InvalidStateError{Reason: fmt.Sprintf("assignment %s is already returned", as.ID)}
	}
	returnDate := opts.ActualReturnDate
	if returnDate == "" {
		returnDate = e.now().UTC().Format(time.RFC3339)
	} else {
		norm, err := normalizeDate(returnDate)
		if err != nil {
			return domain.Assignment{}, &InvalidInputError{Reason: fmt.Sprintf("invalid return date %q", returnDate)}
		}
		returnDate = norm
	}
	ret, err := parseDate(returnDate)
	if err != nil {
		return domain.Assignment{}, &InvalidInputError{Reason: fmt.Sprintf("invalid return date %q", returnDate)}
	}
	assigned, err := parseDate(as.AssignedDate)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("parse assigned date: %w", err)
	}
	if ret.Before(assigned) {
		return domain.Assignment{}, &InvalidInputError{Reason: "return date precedes assigned date"}
	}
	if err := e.Repo.CloseAssignmentTx(ctx, tx, as.ID, returnDate, opts.ReturnNotes); err != nil {
		return domain.Assignment{}, err
	}
	as.ActualReturnDate = &returnDate
	as.ReturnNotes = opts.ReturnNotes

	a, err := e.Repo.GetAssetTx(ctx, tx, as.AssetID)
	if err != nil {
		return domain.Assignment{}, err
	}
	// An administrative status change may have moved the asset off assigned
	// already; the return then only closes the assignment.
	if a.Status == domain.StatusAssigned {
		expectedVersion := a.Version
		a.Status = domain.StatusAvailable
		a.UpdatedAt = e.now().UTC().Format(time.RFC3339)
		if err := e.Repo.UpdateAssetTx(ctx, tx, a, expectedVersion); err != nil {
			if errors.Is(err, repo.ErrVersionConflict) {
				return domain.Assignment{}, &ConflictError{Reason: "asset was modified concurrently; retry"}
			}
			return domain.Assignment{}, err
		}
	}
	if err := e.Events.Append(ctx, tx, events.TypeAssetReturned, a.ID, actor.ID, events.EventPayload{
		"assignment_id": as.ID,
		"employee_id":   as.EmployeeID,
		"return_date":   returnDate,
	}); err != nil {
		return domain.Assignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Assignment{}, err
	}
	return as, nil
}

func (e Engine) ChangeCondition(ctx context.Context, assetID string, condition domain.AssetCondition, actor Actor) (domain.Asset, error) {
	if err := e.authorize(actor, domain.ActionEdit); err != nil {
		return domain.Asset{}, err
	}
	if _, err := domain.ParseAssetCondition(string(condition)); err != nil {
		return domain.Asset{}, &InvalidInputError{Reason: err.Error()}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Asset{}, err
	}
	defer tx.Rollback()

	a, err := e.Repo.GetAssetTx(ctx, tx, assetID)
	if err != nil {
		return domain.Asset{}, err
	}
	from := a.Condition
	expectedVersion := a.Version
	a.Condition = condition
	a.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateAssetTx(ctx, tx, a, expectedVersion); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return domain.Asset{}, &ConflictError{Reason: "asset was modified concurrently; retry"}
		}
		return domain.Asset{}, err
	}
	a.Version = expectedVersion + 1
	if err := e.Events.Append(ctx, tx, events.TypeAssetUpdated, a.ID, actor.ID, events.EventPayload{
		"fields": []string{"condition"},
		"from":   string(from),
		"to":     string(condition),
	}); err != nil {
		return domain.Asset{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Asset{}, err
	}
	return a, nil
}

// LinkSupportTicket records an external ticket reference on the asset's log.
func (e Engine) LinkSupportTicket(ctx context.Context, assetID, ticketNumber, note string, actor Actor) error {
	if err := e.authorize(actor, domain.ActionEdit); err != nil {
		return err
	}
	if strings.TrimSpace(ticketNumber) == "" {
		return &InvalidInputError{Reason: "ticket number is required"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	a, err := e.Repo.GetAssetTx(ctx, tx, assetID)
	if err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.TypeAssetSupportTicket, a.ID, actor.ID, events.EventPayload{
		"ticket_number": ticketNumber,
		"note":          note,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) authorize(actor Actor, action domain.Action) error {
	if _, err := domain.ParseRole(string(actor.Role)); err != nil {
		return &InvalidInputError{Reason: err.Error()}
	}
	return auth.Require(actor.Role, action)
}

// --- helpers ---

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// parseDate accepts RFC3339 timestamps and bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// normalizeDate stores every accepted date as UTC RFC3339 so stored strings
// compare lexicographically.
func normalizeDate(s string) (string, error) {
	t, err := parseDate(s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(time.RFC3339), nil
}

func changedFields(before, after domain.Asset) []string {
	var fields []string
	if before.AssetTag != after.AssetTag {
		fields = append(fields, "asset_tag")
	}
	if before.Category != after.Category {
		fields = append(fields, "category")
	}
	if before.Brand != after.Brand {
		fields = append(fields, "brand")
	}
	if before.Model != after.Model {
		fields = append(fields, "model")
	}
	if !equalStringPtr(before.SerialNumber, after.SerialNumber) {
		fields = append(fields, "serial_number")
	}
	if before.Condition != after.Condition {
		fields = append(fields, "condition")
	}
	if !equalStringPtr(before.PurchaseDate, after.PurchaseDate) {
		fields = append(fields, "purchase_date")
	}
	if !equalFloatPtr(before.PurchasePrice, after.PurchasePrice) {
		fields = append(fields, "purchase_price")
	}
	if !equalStringPtr(before.WarrantyExpiry, after.WarrantyExpiry) {
		fields = append(fields, "warranty_expiry")
	}
	if before.Notes != after.Notes {
		fields = append(fields, "notes")
	}
	if before.Status != after.Status {
		fields = append(fields, "status")
	}
	if !equalStringPtr(before.LocationID, after.LocationID) {
		fields = append(fields, "location_id")
	}
	return fields
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
