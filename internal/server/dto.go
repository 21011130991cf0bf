package server

import (
	"encoding/json"

	"assetline/internal/config"
	"assetline/internal/domain"
	"assetline/internal/query"
)

// Request payloads

type CreateAssetRequest struct {
	ID             *string  `json:"id,omitempty"`
	AssetTag       string   `json:"asset_tag"`
	Category       string   `json:"category" enum:"laptop,desktop,monitor,phone,tablet,printer,server,network,peripheral,software_license,furniture,vehicle,other"`
	Brand          string   `json:"brand"`
	Model          string   `json:"model"`
	SerialNumber   *string  `json:"serial_number,omitempty"`
	Condition      *string  `json:"condition,omitempty" enum:"very_bad,bad,fair,good,very_good,new"`
	PurchaseDate   *string  `json:"purchase_date,omitempty"`
	PurchasePrice  *float64 `json:"purchase_price,omitempty"`
	WarrantyExpiry *string  `json:"warranty_expiry,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
	Status         *string  `json:"status,omitempty" enum:"available,under_maintenance,retired,lost"`
	LocationID     *string  `json:"location_id,omitempty"`
}

type UpdateAssetRequest struct {
	AssetTag       *string  `json:"asset_tag,omitempty"`
	Category       *string  `json:"category,omitempty" enum:"laptop,desktop,monitor,phone,tablet,printer,server,network,peripheral,software_license,furniture,vehicle,other"`
	Brand          *string  `json:"brand,omitempty"`
	Model          *string  `json:"model,omitempty"`
	SerialNumber   *string  `json:"serial_number,omitempty"`
	Condition      *string  `json:"condition,omitempty" enum:"very_bad,bad,fair,good,very_good,new"`
	PurchaseDate   *string  `json:"purchase_date,omitempty"`
	PurchasePrice  *float64 `json:"purchase_price,omitempty"`
	WarrantyExpiry *string  `json:"warranty_expiry,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
	Status         *string  `json:"status,omitempty" enum:"available,under_maintenance,retired,lost"`
	LocationID     *string  `json:"location_id,omitempty"`
}

type AssignAssetRequest struct {
	EmployeeID         string  `json:"employee_id"`
	LocationID         *string `json:"location_id,omitempty"`
	AssignedDate       *string `json:"assigned_date,omitempty"`
	ExpectedReturnDate *string `json:"expected_return_date,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

type ReturnAssetRequest struct {
	ActualReturnDate *string `json:"actual_return_date,omitempty"`
	ReturnNotes      *string `json:"return_notes,omitempty"`
}

type ChangeConditionRequest struct {
	Condition string `json:"condition" enum:"very_bad,bad,fair,good,very_good,new"`
}

type SupportTicketRequest struct {
	TicketNumber string  `json:"ticket_number"`
	Note         *string `json:"note,omitempty"`
}

type CreateEmployeeRequest struct {
	EmployeeID     string  `json:"employee_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	Department     *string `json:"department,omitempty"`
	JobTitle       *string `json:"job_title,omitempty"`
	WorkLocationID *string `json:"work_location_id,omitempty"`
	StartDate      *string `json:"start_date,omitempty"`
}

type UpdateEmployeeRequest struct {
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	Email          *string `json:"email,omitempty"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	Department     *string `json:"department,omitempty"`
	JobTitle       *string `json:"job_title,omitempty"`
	WorkLocationID *string `json:"work_location_id,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

type CreateLocationRequest struct {
	Building    string  `json:"building"`
	Floor       int     `json:"floor,omitempty"`
	Room        *string `json:"room,omitempty"`
	Description *string `json:"description,omitempty"`
}

type UpdateLocationRequest struct {
	Building    *string `json:"building,omitempty"`
	Floor       *int    `json:"floor,omitempty"`
	Room        *string `json:"room,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type CreateUserRequest struct {
	Email      string  `json:"email"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Role       string  `json:"role" enum:"viewer,it_officer,admin"`
	Department *string `json:"department,omitempty"`
}

type UpdateUserRequest struct {
	Email      *string `json:"email,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Role       *string `json:"role,omitempty" enum:"viewer,it_officer,admin"`
	Department *string `json:"department,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty"`
}

type DevLoginRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role,omitempty" enum:"viewer,it_officer,admin"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

// Response payloads

type AssetResponse struct {
	ID             string   `json:"id"`
	AssetTag       string   `json:"asset_tag"`
	Category       string   `json:"category" enum:"laptop,desktop,monitor,phone,tablet,printer,server,network,peripheral,software_license,furniture,vehicle,other"`
	Brand          string   `json:"brand"`
	Model          string   `json:"model"`
	SerialNumber   *string  `json:"serial_number,omitempty"`
	Condition      string   `json:"condition" enum:"very_bad,bad,fair,good,very_good,new"`
	PurchaseDate   *string  `json:"purchase_date,omitempty" format:"date-time"`
	PurchasePrice  *float64 `json:"purchase_price,omitempty"`
	WarrantyExpiry *string  `json:"warranty_expiry,omitempty" format:"date-time"`
	Notes          string   `json:"notes,omitempty"`
	Status         string   `json:"status" enum:"available,assigned,under_maintenance,retired,lost"`
	LocationID     *string  `json:"location_id,omitempty"`
	Version        int64    `json:"version"`
	CreatedAt      string   `json:"created_at" format:"date-time"`
	UpdatedAt      string   `json:"updated_at" format:"date-time"`
}

type AssignmentResponse struct {
	ID                 string  `json:"id"`
	AssetID            string  `json:"asset_id"`
	EmployeeID         string  `json:"employee_id"`
	LocationID         *string `json:"location_id,omitempty"`
	AssignedDate       string  `json:"assigned_date" format:"date-time"`
	ExpectedReturnDate *string `json:"expected_return_date,omitempty" format:"date-time"`
	ActualReturnDate   *string `json:"actual_return_date,omitempty" format:"date-time"`
	Notes              string  `json:"notes,omitempty"`
	ReturnNotes        string  `json:"return_notes,omitempty"`
	Active             bool    `json:"active"`
	Overdue            bool    `json:"overdue"`
	DaysAssigned       int     `json:"days_assigned"`
}

type EmployeeResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	PhoneNumber    string  `json:"phone_number,omitempty"`
	Department     string  `json:"department,omitempty"`
	JobTitle       string  `json:"job_title,omitempty"`
	WorkLocationID *string `json:"work_location_id,omitempty"`
	Active         bool    `json:"active"`
	StartDate      *string `json:"start_date,omitempty" format:"date-time"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
	UpdatedAt      string  `json:"updated_at" format:"date-time"`
}

type LocationResponse struct {
	ID          string `json:"id"`
	Building    string `json:"building"`
	Floor       int    `json:"floor"`
	Room        string `json:"room,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type UserResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role" enum:"viewer,it_officer,admin"`
	Department string `json:"department,omitempty"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at" format:"date-time"`
	UpdatedAt  string `json:"updated_at" format:"date-time"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type CreatedAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

type TimelineEntryResponse struct {
	Type         string  `json:"type" enum:"created,assigned,returned,maintenance,status_changed,location_changed,updated,support_ticket,deleted"`
	Status       string  `json:"status" enum:"completed,in_progress,pending,warning,error"`
	TS           string  `json:"ts" format:"date-time"`
	Seq          int64   `json:"seq"`
	ActorID      string  `json:"actor_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	EmployeeID   *string `json:"employee_id,omitempty"`
	LocationID   *string `json:"location_id,omitempty"`
	TicketNumber string  `json:"ticket_number,omitempty"`
}

type EventResponse struct {
	ID      int64          `json:"id"`
	AssetID string         `json:"asset_id"`
	Seq     int64          `json:"seq"`
	TS      string         `json:"ts" format:"date-time"`
	Type    string         `json:"type"`
	ActorID string         `json:"actor_id"`
	Payload map[string]any `json:"payload"`
}

type WhoAmIResponse struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role" enum:"viewer,it_officer,admin"`
	Source  string `json:"source"`
}

type DashboardResponse struct {
	TotalAssets        int                      `json:"total_assets"`
	ByStatus           map[string]int           `json:"by_status"`
	ByCategory         map[string]int           `json:"by_category"`
	ByCondition        map[string]int           `json:"by_condition"`
	ByLocation         []domain.LocationCount   `json:"by_location"`
	ByDepartment       []domain.DepartmentCount `json:"by_department"`
	WarrantyExpiring   int                      `json:"warranty_expiring"`
	OverdueAssignments int                      `json:"overdue_assignments"`
}

type OrgConfigResponse struct {
	Org      orgConfigSection      `json:"org"`
	Defaults defaultsConfigSection `json:"defaults"`
	Webhooks []webhookConfigItem   `json:"webhooks"`
}

type orgConfigSection struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type defaultsConfigSection struct {
	WarrantyAlertDays int `json:"warranty_alert_days"`
	PageSize          int `json:"page_size"`
}

type webhookConfigItem struct {
	URL     string   `json:"url"`
	Events  []string `json:"events"`
	Enabled bool     `json:"enabled"`
}

type paginatedAssets struct {
	Items      []AssetResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type paginatedAssignments struct {
	Items      []AssignmentResponse `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Conversion helpers

func assetResponse(a domain.Asset) AssetResponse {
	return AssetResponse{
		ID:             a.ID,
		AssetTag:       a.AssetTag,
		Category:       string(a.Category),
		Brand:          a.Brand,
		Model:          a.Model,
		SerialNumber:   a.SerialNumber,
		Condition:      string(a.Condition),
		PurchaseDate:   a.PurchaseDate,
		PurchasePrice:  a.PurchasePrice,
		WarrantyExpiry: a.WarrantyExpiry,
		Notes:          a.Notes,
		Status:         string(a.Status),
		LocationID:     a.LocationID,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func assignmentResponse(q query.Queries, as domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                 as.ID,
		AssetID:            as.AssetID,
		EmployeeID:         as.EmployeeID,
		LocationID:         as.LocationID,
		AssignedDate:       as.AssignedDate,
		ExpectedReturnDate: as.ExpectedReturnDate,
		ActualReturnDate:   as.ActualReturnDate,
		Notes:              as.Notes,
		ReturnNotes:        as.ReturnNotes,
		Active:             as.IsActive(),
		Overdue:            q.IsOverdue(as),
		DaysAssigned:       q.DaysAssigned(as),
	}
}

func employeeResponse(e domain.Employee) EmployeeResponse {
	return EmployeeResponse(e)
}

func locationResponse(l domain.Location) LocationResponse {
	return LocationResponse(l)
}

func userResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       string(u.Role),
		Department: u.Department,
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func apiKeyResponse(k domain.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:        k.ID,
		UserID:    k.UserID,
		Name:      k.Name,
		CreatedAt: k.CreatedAt,
	}
}

func timelineEntryResponse(e domain.TimelineEntry) TimelineEntryResponse {
	return TimelineEntryResponse{
		Type:         string(e.Type),
		Status:       string(e.Status),
		TS:           e.TS,
		Seq:          e.Seq,
		ActorID:      e.ActorID,
		Title:        e.Title,
		Description:  e.Description,
		EmployeeID:   e.EmployeeID,
		LocationID:   e.LocationID,
		TicketNumber: e.TicketNumber,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:      e.ID,
		AssetID: e.AssetID,
		Seq:     e.Seq,
		TS:      e.TS,
		Type:    e.Type,
		ActorID: e.ActorID,
		Payload: decodeJSONMap(e.Payload),
	}
}

func dashboardResponse(s domain.DashboardSummary) DashboardResponse {
	res := DashboardResponse{
		TotalAssets:        s.TotalAssets,
		ByStatus:           map[string]int{},
		ByCategory:         map[string]int{},
		ByCondition:        map[string]int{},
		ByLocation:         nonNilSlice(s.ByLocation),
		ByDepartment:       nonNilSlice(s.ByDepartment),
		WarrantyExpiring:   s.WarrantyExpiring,
		OverdueAssignments: s.OverdueAssignments,
	}
	for k, v := range s.ByStatus {
		res.ByStatus[string(k)] = v
	}
	for k, v := range s.ByCategory {
		res.ByCategory[string(k)] = v
	}
	for k, v := range s.ByCondition {
		res.ByCondition[string(k)] = v
	}
	return res
}

// orgConfigResponse omits webhook secrets.
func orgConfigResponse(cfg *config.Config) OrgConfigResponse {
	res := OrgConfigResponse{Webhooks: []webhookConfigItem{}}
	if cfg == nil {
		return res
	}
	res.Org.ID = cfg.Org.ID
	res.Org.Name = cfg.Org.Name
	res.Defaults.WarrantyAlertDays = cfg.Defaults.WarrantyAlertDays
	res.Defaults.PageSize = cfg.Defaults.PageSize
	for _, hook := range cfg.Webhooks {
		enabled := hook.Enabled == nil || *hook.Enabled
		res.Webhooks = append(res.Webhooks, webhookConfigItem{
			URL:     hook.URL,
			Events:  nonNilSlice(hook.Events),
			Enabled: enabled,
		})
	}
	return res
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var tmp any
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return map[string]any{}
	}
	if obj, ok := tmp.(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
