package assetlinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Assetline HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Asset represents the API asset model (partial).
type Asset struct {
	ID             string   `json:"id"`
	AssetTag       string   `json:"asset_tag"`
	Category       string   `json:"category"`
	Brand          string   `json:"brand"`
	Model          string   `json:"model"`
	SerialNumber   *string  `json:"serial_number,omitempty"`
	Condition      string   `json:"condition"`
	Status         string   `json:"status"`
	LocationID     *string  `json:"location_id,omitempty"`
	WarrantyExpiry *string  `json:"warranty_expiry,omitempty"`
	PurchasePrice  *float64 `json:"purchase_price,omitempty"`
	Version        int64    `json:"version"`
}

// Assignment represents a custody record.
type Assignment struct {
	ID                 string  `json:"id"`
	AssetID            string  `json:"asset_id"`
	EmployeeID         string  `json:"employee_id"`
	AssignedDate       string  `json:"assigned_date"`
	ExpectedReturnDate *string `json:"expected_return_date,omitempty"`
	ActualReturnDate   *string `json:"actual_return_date,omitempty"`
	Active             bool    `json:"active"`
	Overdue            bool    `json:"overdue"`
	DaysAssigned       int     `json:"days_assigned"`
}

// Event represents a log entry.
type Event struct {
	ID      int64          `json:"id"`
	TS      string         `json:"ts"`
	Type    string         `json:"type"`
	AssetID string         `json:"asset_id"`
	Seq     int64          `json:"seq"`
	ActorID string         `json:"actor_id"`
	Payload map[string]any `json:"payload"`
}

// TimelineEntry is one projected history row for an asset.
type TimelineEntry struct {
	TS          string         `json:"ts"`
	Type        string         `json:"type"`
	Status      string         `json:"status"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ActorID     string         `json:"actor_id"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// Dashboard summarizes the asset fleet.
type Dashboard struct {
	TotalAssets        int            `json:"total_assets"`
	ByStatus           map[string]int `json:"by_status"`
	ByCategory         map[string]int `json:"by_category"`
	ByCondition        map[string]int `json:"by_condition"`
	WarrantyExpiring   int            `json:"warranty_expiring"`
	OverdueAssignments int            `json:"overdue_assignments"`
}

// WhoAmI describes the authenticated caller.
type WhoAmI struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	Source  string `json:"source"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedAssets wraps asset list responses with cursors.
type PaginatedAssets struct {
	Items      []Asset `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// PaginatedAssignments wraps assignment list responses with cursors.
type PaginatedAssignments struct {
	Items      []Assignment `json:"items"`
	NextCursor string       `json:"next_cursor"`
}

// PaginatedEvents wraps event list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// CreateAsset registers an asset.
func (c *Client) CreateAsset(ctx context.Context, assetTag, category, brand, model string) (Asset, error) {
	body := map[string]any{
		"asset_tag": assetTag,
		"category":  category,
		"brand":     brand,
		"model":     model,
	}
	var resp Asset
	err := c.do(ctx, http.MethodPost, "assets", body, &resp)
	return resp, err
}

// GetAsset fetches an asset by id.
func (c *Client) GetAsset(ctx context.Context, id string) (Asset, error) {
	var resp Asset
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("assets/%s", url.PathEscape(id)), nil, &resp)
	return resp, err
}

// ListAssets returns a page of assets. Pass zero values for defaults.
func (c *Client) ListAssets(ctx context.Context, status, category string, limit int, cursor string) (PaginatedAssets, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if category != "" {
		q.Set("category", category)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "assets"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedAssets
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// AvailableAssets returns assets ready to hand out.
func (c *Client) AvailableAssets(ctx context.Context, category string) ([]Asset, error) {
	endpoint := "assets/available"
	if category != "" {
		endpoint += "?category=" + url.QueryEscape(category)
	}
	var resp struct {
		Items []Asset `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// Assign hands an asset to an employee.
func (c *Client) Assign(ctx context.Context, assetID, employeeID string, expectedReturnDate string) (Assignment, error) {
	body := map[string]any{
		"employee_id": employeeID,
	}
	if expectedReturnDate != "" {
		body["expected_return_date"] = expectedReturnDate
	}
	var resp Assignment
	endpoint := fmt.Sprintf("assets/%s/assign", url.PathEscape(assetID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Return closes an assignment and frees the asset.
func (c *Client) Return(ctx context.Context, assignmentID, returnNotes string) (Assignment, error) {
	body := map[string]any{}
	if returnNotes != "" {
		body["return_notes"] = returnNotes
	}
	var resp Assignment
	endpoint := fmt.Sprintf("assignments/%s/return", url.PathEscape(assignmentID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// ChangeCondition records a condition assessment.
func (c *Client) ChangeCondition(ctx context.Context, assetID, condition string) (Asset, error) {
	body := map[string]any{"condition": condition}
	var resp Asset
	endpoint := fmt.Sprintf("assets/%s/condition", url.PathEscape(assetID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Timeline returns the projected history of an asset, newest first.
func (c *Client) Timeline(ctx context.Context, assetID string, limit int) ([]TimelineEntry, error) {
	endpoint := fmt.Sprintf("assets/%s/timeline", url.PathEscape(assetID))
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Items []TimelineEntry `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	endpoint := "events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	if cursor != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint = fmt.Sprintf("%s%scursor=%s", endpoint, sep, url.QueryEscape(cursor))
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Dashboard returns fleet-wide counts.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var resp Dashboard
	err := c.do(ctx, http.MethodGet, "reports/dashboard", nil, &resp)
	return resp, err
}

// OverdueAssignments returns active assignments past their expected return date.
func (c *Client) OverdueAssignments(ctx context.Context) ([]Assignment, error) {
	var resp struct {
		Items []Assignment `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "reports/overdue", nil, &resp)
	return resp.Items, err
}

// WhoAmI returns the caller's identity as the server sees it.
func (c *Client) WhoAmI(ctx context.Context) (WhoAmI, error) {
	var resp WhoAmI
	err := c.do(ctx, http.MethodGet, "me", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/v1/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
