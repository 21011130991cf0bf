package domain

import "fmt"

// AssetStatus is the single state variable of an asset. Decoded once at the
// store/API boundary; never compared against raw strings downstream.
type AssetStatus string

const (
	StatusAvailable        AssetStatus = "available"
	StatusAssigned         AssetStatus = "assigned"
	StatusUnderMaintenance AssetStatus = "under_maintenance"
	StatusRetired          AssetStatus = "retired"
	StatusLost             AssetStatus = "lost"
)

func ParseAssetStatus(s string) (AssetStatus, error) {
	switch AssetStatus(s) {
	case StatusAvailable, StatusAssigned, StatusUnderMaintenance, StatusRetired, StatusLost:
		return AssetStatus(s), nil
	}
	return "", fmt.Errorf("unknown asset status %q", s)
}

type AssetCategory string

const (
	CategoryLaptop      AssetCategory = "laptop"
	CategoryMonitor     AssetCategory = "monitor"
	CategoryMobilePhone AssetCategory = "mobile_phone"
	CategoryKeyboard    AssetCategory = "keyboard"
	CategoryMouse       AssetCategory = "mouse"
	CategoryHeadset     AssetCategory = "headset"
	CategoryWebcam      AssetCategory = "webcam"
	CategoryPrinter     AssetCategory = "printer"
	CategoryRouter      AssetCategory = "router"
	CategorySwitch      AssetCategory = "switch"
	CategoryAccessPoint AssetCategory = "access_point"
	CategoryTablet      AssetCategory = "tablet"
	CategoryOther       AssetCategory = "other"
)

func ParseAssetCategory(s string) (AssetCategory, error) {
	switch AssetCategory(s) {
	case CategoryLaptop, CategoryMonitor, CategoryMobilePhone, CategoryKeyboard,
		CategoryMouse, CategoryHeadset, CategoryWebcam, CategoryPrinter,
		CategoryRouter, CategorySwitch, CategoryAccessPoint, CategoryTablet,
		CategoryOther:
		return AssetCategory(s), nil
	}
	return "", fmt.Errorf("unknown asset category %q", s)
}

type AssetCondition string

const (
	ConditionVeryBad  AssetCondition = "very_bad"
	ConditionBad      AssetCondition = "bad"
	ConditionFair     AssetCondition = "fair"
	ConditionGood     AssetCondition = "good"
	ConditionVeryGood AssetCondition = "very_good"
	ConditionNew      AssetCondition = "new"
)

func ParseAssetCondition(s string) (AssetCondition, error) {
	switch AssetCondition(s) {
	case ConditionVeryBad, ConditionBad, ConditionFair, ConditionGood,
		ConditionVeryGood, ConditionNew:
		return AssetCondition(s), nil
	}
	return "", fmt.Errorf("unknown asset condition %q", s)
}

type Role string

const (
	RoleViewer    Role = "viewer"
	RoleITOfficer Role = "it_officer"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleViewer, RoleITOfficer, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type Action string

const (
	ActionCreate      Action = "create"
	ActionEdit        Action = "edit"
	ActionDelete      Action = "delete"
	ActionAssign      Action = "assign"
	ActionReturn      Action = "return"
	ActionManageUsers Action = "manage_users"
)

type Asset struct {
	ID             string         `json:"id"`
	AssetTag       string         `json:"asset_tag"`
	Category       AssetCategory  `json:"category"`
	Brand          string         `json:"brand"`
	Model          string         `json:"model"`
	SerialNumber   *string        `json:"serial_number,omitempty"`
	Condition      AssetCondition `json:"condition"`
	PurchaseDate   *string        `json:"purchase_date,omitempty" format:"date-time"`
	PurchasePrice  *float64       `json:"purchase_price,omitempty"`
	WarrantyExpiry *string        `json:"warranty_expiry,omitempty" format:"date-time"`
	Notes          string         `json:"notes,omitempty"`
	Status         AssetStatus    `json:"status"`
	LocationID     *string        `json:"location_id,omitempty"`
	Version        int64          `json:"version"`
	CreatedAt      string         `json:"created_at" format:"date-time"`
	UpdatedAt      string         `json:"updated_at" format:"date-time"`
	DeletedAt      *string        `json:"deleted_at,omitempty" format:"date-time"`
}

type Assignment struct {
	ID                 string  `json:"id"`
	AssetID            string  `json:"asset_id"`
	EmployeeID         string  `json:"employee_id"`
	LocationID         *string `json:"location_id,omitempty"`
	AssignedDate       string  `json:"assigned_date" format:"date-time"`
	ExpectedReturnDate *string `json:"expected_return_date,omitempty" format:"date-time"`
	ActualReturnDate   *string `json:"actual_return_date,omitempty" format:"date-time"`
	Notes              string  `json:"notes,omitempty"`
	ReturnNotes        string  `json:"return_notes,omitempty"`
}

// IsActive reports whether the assignment is still open.
func (a Assignment) IsActive() bool {
	return a.ActualReturnDate == nil
}

type Employee struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	PhoneNumber    string  `json:"phone_number,omitempty"`
	Department     string  `json:"department"`
	JobTitle       string  `json:"job_title,omitempty"`
	WorkLocationID *string `json:"work_location_id,omitempty"`
	Active         bool    `json:"active"`
	StartDate      *string `json:"start_date,omitempty" format:"date-time"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
	UpdatedAt      string  `json:"updated_at" format:"date-time"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type Location struct {
	ID          string `json:"id"`
	Building    string `json:"building"`
	Floor       int    `json:"floor"`
	Room        string `json:"room,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at" format:"date-time"`
	UpdatedAt  string `json:"updated_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// Event is one row of the append-only per-asset lifecycle log. Seq is unique
// and monotonically increasing per asset; it is the ordering tie-breaker when
// two events of the same asset carry the same timestamp.
type Event struct {
	ID      int64  `json:"id"`
	AssetID string `json:"asset_id"`
	Seq     int64  `json:"seq"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	ActorID string `json:"actor_id"`
	Payload string `json:"payload_json"`
}

type TimelineType string

const (
	TimelineCreated         TimelineType = "created"
	TimelineAssigned        TimelineType = "assigned"
	TimelineReturned        TimelineType = "returned"
	TimelineMaintenance     TimelineType = "maintenance"
	TimelineStatusChanged   TimelineType = "status_changed"
	TimelineLocationChanged TimelineType = "location_changed"
	TimelineUpdated         TimelineType = "updated"
	TimelineSupportTicket   TimelineType = "support_ticket"
	TimelineDeleted         TimelineType = "deleted"
)

type TimelineStatus string

const (
	TimelineCompleted  TimelineStatus = "completed"
	TimelineInProgress TimelineStatus = "in_progress"
	TimelinePending    TimelineStatus = "pending"
	TimelineWarning    TimelineStatus = "warning"
	TimelineError      TimelineStatus = "error"
)

type TimelineEntry struct {
	Type         TimelineType   `json:"type"`
	Status       TimelineStatus `json:"status"`
	TS           string         `json:"ts" format:"date-time"`
	Seq          int64          `json:"seq"`
	ActorID      string         `json:"actor_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	EmployeeID   *string        `json:"employee_id,omitempty"`
	LocationID   *string        `json:"location_id,omitempty"`
	TicketNumber string         `json:"ticket_number,omitempty"`
}

type LocationCount struct {
	Building string `json:"building"`
	Floor    int    `json:"floor"`
	Count    int    `json:"count"`
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// DashboardSummary aggregates asset counts from a single store snapshot.
type DashboardSummary struct {
	TotalAssets        int                    `json:"total_assets"`
	ByStatus           map[AssetStatus]int    `json:"by_status"`
	ByCategory         map[AssetCategory]int  `json:"by_category"`
	ByCondition        map[AssetCondition]int `json:"by_condition"`
	ByLocation         []LocationCount        `json:"by_location"`
	ByDepartment       []DepartmentCount      `json:"by_department"`
	WarrantyExpiring   int                    `json:"warranty_expiring"`
	OverdueAssignments int                    `json:"overdue_assignments"`
}
