package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"assetline/internal/domain"
	"assetline/internal/engine"
	"assetline/internal/engine/auth"
	"assetline/internal/query"
	"assetline/internal/repo"
	"assetline/internal/timeline"
)

// Config for the HTTP API handler.
type Config struct {
	Engine    engine.Engine
	Queries   query.Queries
	Projector timeline.Projector
	BasePath  string
	Auth      AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_state"`
	Message string         `json:"message" example:"asset LT-0042 is retired, not available"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"asset_id\":\"a1\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Assetline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the required envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Assetline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerAssets(group, cfg.Engine, cfg.Queries, cfg.Projector)
	registerAssignments(group, cfg.Engine, cfg.Queries)
	registerEmployees(group, cfg.Engine)
	registerLocations(group, cfg.Engine)
	registerUsers(group, cfg.Engine)
	registerReports(group, cfg.Queries)
	registerEvents(group, cfg.Engine)
	registerOrg(group, cfg.Engine)
	registerMe(group)
	registerDevAuth(group, cfg.Auth)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var fe *auth.ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"role": string(fe.Role), "action": string(fe.Action)})
	}
	var ie *engine.InactiveError
	if errors.As(err, &ie) {
		return newAPIError(http.StatusUnprocessableEntity, "inactive_reference", err.Error(), map[string]any{"kind": ie.Kind, "id": ie.ID})
	}
	var se *engine.InvalidStateError
	if errors.As(err, &se) {
		return newAPIError(http.StatusConflict, "invalid_state", err.Error(), nil)
	}
	var ce *engine.ConflictError
	if errors.As(err, &ce) {
		return newAPIError(http.StatusConflict, "conflict", err.Error(), nil)
	}
	var be *engine.InvalidInputError
	if errors.As(err, &be) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	devLoginPath := path.Join(basePath, "auth/dev/login")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	if !strings.HasPrefix(devLoginPath, "/") {
		devLoginPath = "/" + devLoginPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath || route == devLoginPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Assetline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerAssets(api huma.API, e engine.Engine, q query.Queries, p timeline.Projector) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-asset",
		Method:        http.MethodPost,
		Path:          "/assets",
		Summary:       "Register asset",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateAssetRequest `json:"body"`
	}) (*struct {
		Body AssetResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.AssetCreateOptions{
			ID:             stringOrEmpty(input.Body.ID),
			AssetTag:       input.Body.AssetTag,
			Category:       domain.AssetCategory(input.Body.Category),
			Brand:          input.Body.Brand,
			Model:          input.Body.Model,
			SerialNumber:   stringOrEmpty(input.Body.SerialNumber),
			Condition:      domain.AssetCondition(stringOrEmpty(input.Body.Condition)),
			PurchaseDate:   stringOrEmpty(input.Body.PurchaseDate),
			PurchasePrice:  input.Body.PurchasePrice,
			WarrantyExpiry: stringOrEmpty(input.Body.WarrantyExpiry),
			Notes:          stringOrEmpty(input.Body.Notes),
			Status:         domain.AssetStatus(stringOrEmpty(input.Body.Status)),
			LocationID:     stringOrEmpty(input.Body.LocationID),
		}
		res, err := e.CreateAsset(ctx, opts, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssetResponse `json:"body"`
		}{Body: assetResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-assets",
		Method:      http.MethodGet,
		Path:        "/assets",
		Summary:     "List assets",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status     string `query:"status" enum:"available,assigned,under_maintenance,retired,lost"`
		Category   string `query:"category"`
		LocationID string `query:"location_id"`
		Search     string `query:"search"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body paginatedAssets `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit, pageSize(e))
		cursorCreatedAt, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
		}
		f := repo.AssetFilters{
			Status:          input.Status,
			Category:        input.Category,
			LocationID:      input.LocationID,
			Search:          input.Search,
			Limit:           limit + 1,
			CursorCreatedAt: cursorCreatedAt,
			CursorID:        cursorID,
		}
		items, err := e.Repo.ListAssets(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedAssets{Items: []AssetResponse{}}
		if len(items) > limit {
			resp.NextCursor = composeCursor(items[limit-1].CreatedAt, items[limit-1].ID)
			items = items[:limit]
		}
		for _, a := range items {
			resp.Items = append(resp.Items, assetResponse(a))
		}
		return &struct {
			Body paginatedAssets `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-available-assets",
		Method:      http.MethodGet,
		Path:        "/assets/available",
		Summary:     "List assignable assets",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Category string `query:"category"`
		Search   string `query:"search"`
		Limit    int    `query:"limit" default:"50"`
		Cursor   string `query:"cursor"`
	}) (*struct {
		Body paginatedAssets `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit, pageSize(e))
		cursorCreatedAt, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
		}
		f := repo.AssetFilters{
			Category:        input.Category,
			Search:          input.Search,
			Limit:           limit + 1,
			CursorCreatedAt: cursorCreatedAt,
			CursorID:        cursorID,
		}
		items, err := q.FindAvailableAssets(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedAssets{Items: []AssetResponse{}}
		if len(items) > limit {
			resp.NextCursor = composeCursor(items[limit-1].CreatedAt, items[limit-1].ID)
			items = items[:limit]
		}
		for _, a := range items {
			resp.Items = append(resp.Items, assetResponse(a))
		}
		return &struct {
			Body paginatedAssets `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-asset",
		Method:      http.MethodGet,
		Path:        "/assets/{asset_id}",
		Summary:     "Get asset",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string `path:"asset_id"`
	}) (*struct {
		Body AssetResponse `json:"body"`
	}, error) {
		a, err := e.Repo.GetAsset(ctx, input.AssetID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssetResponse `json:"body"`
		}{Body: assetResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-asset",
		Method:      http.MethodPatch,
		Path:        "/assets/{asset_id}",
		Summary:     "Update asset",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		AssetID string             `path:"asset_id"`
		Body    UpdateAssetRequest `json:"body"`
	}) (*struct {
		Body AssetResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		patch := engine.AssetPatch{
			AssetTag:       input.Body.AssetTag,
			Brand:          input.Body.Brand,
			Model:          input.Body.Model,
			SerialNumber:   input.Body.SerialNumber,
			PurchaseDate:   input.Body.PurchaseDate,
			PurchasePrice:  input.Body.PurchasePrice,
			WarrantyExpiry: input.Body.WarrantyExpiry,
			Notes:          input.Body.Notes,
			LocationID:     input.Body.LocationID,
		}
		if input.Body.Category != nil {
			c, err := domain.ParseAssetCategory(*input.Body.Category)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
			}
			patch.Category = &c
		}
		if input.Body.Condition != nil {
			c, err := domain.ParseAssetCondition(*input.Body.Condition)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
			}
			patch.Condition = &c
		}
		if input.Body.Status != nil {
			s, err := domain.ParseAssetStatus(*input.Body.Status)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
			}
			patch.Status = &s
		}
		res, err := e.UpdateAsset(ctx, input.AssetID, patch, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssetResponse `json:"body"`
		}{Body: assetResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-asset",
		Method:        http.MethodDelete,
		Path:          "/assets/{asset_id}",
		Summary:       "Delete asset",
		DefaultStatus: http.StatusNoContent,
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		AssetID string `path:"asset_id"`
	}) (*struct{}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteAsset(ctx, input.AssetID, actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "assign-asset",
		Method:        http.MethodPost,
		Path:          "/assets/{asset_id}/assign",
		Summary:       "Assign asset to employee",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		AssetID string             `path:"asset_id"`
		Body    AssignAssetRequest `json:"body"`
	}) (*struct {
		Body AssignmentResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.EmployeeID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "employee_id is required", nil)
		}
		res, err := e.Assign(ctx, engine.AssignOptions{
			AssetID:            input.AssetID,
			EmployeeID:         input.Body.EmployeeID,
			LocationID:         stringOrEmpty(input.Body.LocationID),
			AssignedDate:       stringOrEmpty(input.Body.AssignedDate),
			ExpectedReturnDate: stringOrEmpty(input.Body.ExpectedReturnDate),
			Notes:              stringOrEmpty(input.Body.Notes),
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssignmentResponse `json:"body"`
		}{Body: assignmentResponse(q, res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-asset-condition",
		Method:      http.MethodPost,
		Path:        "/assets/{asset_id}/condition",
		Summary:     "Change asset condition",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		AssetID string                 `path:"asset_id"`
		Body    ChangeConditionRequest `json:"body"`
	}) (*struct {
		Body AssetResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.ChangeCondition(ctx, input.AssetID, domain.AssetCondition(input.Body.Condition), actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssetResponse `json:"body"`
		}{Body: assetResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "link-support-ticket",
		Method:        http.MethodPost,
		Path:          "/assets/{asset_id}/support-ticket",
		Summary:       "Link support ticket",
		DefaultStatus: http.StatusNoContent,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		AssetID string               `path:"asset_id"`
		Body    SupportTicketRequest `json:"body"`
	}) (*struct{}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.LinkSupportTicket(ctx, input.AssetID, input.Body.TicketNumber, stringOrEmpty(input.Body.Note), actor); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "asset-timeline",
		Method:      http.MethodGet,
		Path:        "/assets/{asset_id}/timeline",
		Summary:     "Asset timeline",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string `path:"asset_id"`
		Limit   int    `query:"limit"`
	}) (*struct {
		Body struct {
			Items []TimelineEntryResponse `json:"items"`
		} `json:"body"`
	}, error) {
		entries, err := p.Timeline(ctx, input.AssetID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Items []TimelineEntryResponse `json:"items"`
			} `json:"body"`
		}{}
		out.Body.Items = []TimelineEntryResponse{}
		for _, entry := range entries {
			out.Body.Items = append(out.Body.Items, timelineEntryResponse(entry))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "asset-events",
		Method:      http.MethodGet,
		Path:        "/assets/{asset_id}/events",
		Summary:     "Asset event log",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssetID string `path:"asset_id"`
	}) (*struct {
		Body struct {
			Items []EventResponse `json:"items"`
		} `json:"body"`
	}, error) {
		if _, err := e.Repo.GetAsset(ctx, input.AssetID); err != nil {
			return nil, handleError(err)
		}
		evts, err := e.Repo.ListAssetEvents(ctx, input.AssetID)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Items []EventResponse `json:"items"`
			} `json:"body"`
		}{}
		out.Body.Items = []EventResponse{}
		for _, evt := range evts {
			out.Body.Items = append(out.Body.Items, eventResponse(evt))
		}
		return out, nil
	})
}

func registerAssignments(api huma.API, e engine.Engine, q query.Queries) {
	huma.Register(api, huma.Operation{
		OperationID: "list-assignments",
		Method:      http.MethodGet,
		Path:        "/assignments",
		Summary:     "List assignments",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		AssetID    string `query:"asset_id"`
		EmployeeID string `query:"employee_id"`
		Active     bool   `query:"active"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*struct {
		Body paginatedAssignments `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit, pageSize(e))
		cursorDate, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
		}
		items, err := e.Repo.ListAssignments(ctx, repo.AssignmentFilters{
			AssetID:    input.AssetID,
			EmployeeID: input.EmployeeID,
			ActiveOnly: input.Active,
			Limit:      limit + 1,
			CursorDate: cursorDate,
			CursorID:   cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedAssignments{Items: []AssignmentResponse{}}
		if len(items) > limit {
			resp.NextCursor = composeCursor(items[limit-1].AssignedDate, items[limit-1].ID)
			items = items[:limit]
		}
		for _, as := range items {
			resp.Items = append(resp.Items, assignmentResponse(q, as))
		}
		return &struct {
			Body paginatedAssignments `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-assignment",
		Method:      http.MethodGet,
		Path:        "/assignments/{assignment_id}",
		Summary:     "Get assignment",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		AssignmentID string `path:"assignment_id"`
	}) (*struct {
		Body AssignmentResponse `json:"body"`
	}, error) {
		as, err := e.Repo.GetAssignment(ctx, input.AssignmentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssignmentResponse `json:"body"`
		}{Body: assignmentResponse(q, as)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "return-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{assignment_id}/return",
		Summary:     "Return assigned asset",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		AssignmentID string             `path:"assignment_id"`
		Body         ReturnAssetRequest `json:"body"`
	}) (*struct {
		Body AssignmentResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.Return(ctx, engine.ReturnOptions{
			AssignmentID:     input.AssignmentID,
			ActualReturnDate: stringOrEmpty(input.Body.ActualReturnDate),
			ReturnNotes:      stringOrEmpty(input.Body.ReturnNotes),
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AssignmentResponse `json:"body"`
		}{Body: assignmentResponse(q, res)}, nil
	})
}

func registerEmployees(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-employee",
		Method:        http.MethodPost,
		Path:          "/employees",
		Summary:       "Register employee",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateEmployeeRequest `json:"body"`
	}) (*struct {
		Body EmployeeResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.CreateEmployee(ctx, engine.EmployeeCreateOptions{
			EmployeeID:     input.Body.EmployeeID,
			FirstName:      input.Body.FirstName,
			LastName:       input.Body.LastName,
			Email:          input.Body.Email,
			PhoneNumber:    stringOrEmpty(input.Body.PhoneNumber),
			Department:     stringOrEmpty(input.Body.Department),
			JobTitle:       stringOrEmpty(input.Body.JobTitle),
			WorkLocationID: stringOrEmpty(input.Body.WorkLocationID),
			StartDate:      stringOrEmpty(input.Body.StartDate),
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EmployeeResponse `json:"body"`
		}{Body: employeeResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-employees",
		Method:      http.MethodGet,
		Path:        "/employees",
		Summary:     "List employees",
	}, func(ctx context.Context, input *struct {
		Department string `query:"department"`
		Active     bool   `query:"active"`
		Search     string `query:"search"`
		Limit      int    `query:"limit" default:"50"`
	}) (*struct {
		Body struct {
			Items []EmployeeResponse `json:"items"`
		} `json:"body"`
	}, error) {
		items, err := e.Repo.ListEmployees(ctx, repo.EmployeeFilters{
			Department: input.Department,
			ActiveOnly: input.Active,
			Search:     input.Search,
			Limit:      normalizeLimit(input.Limit, pageSize(e)),
		})
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Items []EmployeeResponse `json:"items"`
			} `json:"body"`
		}{}
		out.Body.Items = []EmployeeResponse{}
		for _, emp := range items {
			out.Body.Items = append(out.Body.Items, employeeResponse(emp))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-employee",
		Method:      http.MethodGet,
		Path:        "/employees/{employee_id}",
		Summary:     "Get employee",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EmployeeID string `path:"employee_id"`
	}) (*struct {
		Body EmployeeResponse `json:"body"`
	}, error) {
		emp, err := e.Repo.GetEmployee(ctx, input.EmployeeID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EmployeeResponse `json:"body"`
		}{Body: employeeResponse(emp)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-employee",
		Method:      http.MethodPatch,
		Path:        "/employees/{employee_id}",
		Summary:     "Update employee",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		EmployeeID string                `path:"employee_id"`
		Body       UpdateEmployeeRequest `json:"body"`
	}) (*struct {
		Body EmployeeResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.UpdateEmployee(ctx, input.EmployeeID, engine.EmployeePatch{
			FirstName:      input.Body.FirstName,
			LastName:       input.Body.LastName,
			Email:          input.Body.Email,
			PhoneNumber:    input.Body.PhoneNumber,
			Department:     input.Body.Department,
			JobTitle:       input.Body.JobTitle,
			WorkLocationID: input.Body.WorkLocationID,
			Active:         input.Body.Active,
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EmployeeResponse `json:"body"`
		}{Body: employeeResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deactivate-employee",
		Method:      http.MethodDelete,
		Path:        "/employees/{employee_id}",
		Summary:     "Deactivate employee",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		EmployeeID string `path:"employee_id"`
	}) (*struct {
		Body EmployeeResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.DeactivateEmployee(ctx, input.EmployeeID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EmployeeResponse `json:"body"`
		}{Body: employeeResponse(res)}, nil
	})
}

func registerLocations(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-location",
		Method:        http.MethodPost,
		Path:          "/locations",
		Summary:       "Register location",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateLocationRequest `json:"body"`
	}) (*struct {
		Body LocationResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.CreateLocation(ctx, engine.LocationCreateOptions{
			Building:    input.Body.Building,
			Floor:       input.Body.Floor,
			Room:        stringOrEmpty(input.Body.Room),
			Description: stringOrEmpty(input.Body.Description),
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LocationResponse `json:"body"`
		}{Body: locationResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-locations",
		Method:      http.MethodGet,
		Path:        "/locations",
		Summary:     "List locations",
	}, func(ctx context.Context, input *struct {
		Active bool `query:"active"`
	}) (*struct {
		Body struct {
			Items []LocationResponse `json:"items"`
		} `json:"body"`
	}, error) {
		items, err := e.Repo.ListLocations(ctx, input.Active)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Items []LocationResponse `json:"items"`
			} `json:"body"`
		}{}
		out.Body.Items = []LocationResponse{}
		for _, l := range items {
			out.Body.Items = append(out.Body.Items, locationResponse(l))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-location",
		Method:      http.MethodGet,
		Path:        "/locations/{location_id}",
		Summary:     "Get location",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		LocationID string `path:"location_id"`
	}) (*struct {
		Body LocationResponse `json:"body"`
	}, error) {
		l, err := e.Repo.GetLocation(ctx, input.LocationID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LocationResponse `json:"body"`
		}{Body: locationResponse(l)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-location",
		Method:      http.MethodPatch,
		Path:        "/locations/{location_id}",
		Summary:     "Update location",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		LocationID string                `path:"location_id"`
		Body       UpdateLocationRequest `json:"body"`
	}) (*struct {
		Body LocationResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.UpdateLocation(ctx, input.LocationID, engine.LocationPatch{
			Building:    input.Body.Building,
			Floor:       input.Body.Floor,
			Room:        input.Body.Room,
			Description: input.Body.Description,
			Active:      input.Body.Active,
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LocationResponse `json:"body"`
		}{Body: locationResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deactivate-location",
		Method:      http.MethodDelete,
		Path:        "/locations/{location_id}",
		Summary:     "Deactivate location",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		LocationID string `path:"location_id"`
	}) (*struct {
		Body LocationResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.DeactivateLocation(ctx, input.LocationID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body LocationResponse `json:"body"`
		}{Body: locationResponse(res)}, nil
	})
}

func registerUsers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create user",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateUserRequest `json:"body"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.CreateUser(ctx, engine.UserCreateOptions{
			Email:      input.Body.Email,
			FirstName:  input.Body.FirstName,
			LastName:   input.Body.LastName,
			Role:       domain.Role(input.Body.Role),
			Department: stringOrEmpty(input.Body.Department),
		}, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Items []UserResponse `json:"items"`
		} `json:"body"`
	}, error) {
		items, err := e.Repo.ListUsers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Items []UserResponse `json:"items"`
			} `json:"body"`
		}{}
		out.Body.Items = []UserResponse{}
		for _, u := range items {
			out.Body.Items = append(out.Body.Items, userResponse(u))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{user_id}",
		Summary:     "Get user",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		u, err := e.Repo.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPatch,
		Path:        "/users/{user_id}",
		Summary:     "Update user",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		UserID string            `path:"user_id"`
		Body   UpdateUserRequest `json:"body"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		patch := engine.UserPatch{
			Email:      input.Body.Email,
			FirstName:  input.Body.FirstName,
			LastName:   input.Body.LastName,
			Department: input.Body.Department,
			Active:     input.Body.Active,
		}
		if input.Body.Role != nil {
			role := domain.Role(*input.Body.Role)
			patch.Role = &role
		}
		res, err := e.UpdateUser(ctx, input.UserID, patch, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deactivate-user",
		Method:      http.MethodDelete,
		Path:        "/users/{user_id}",
		Summary:     "Deactivate user",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.DeactivateUser(ctx, input.UserID, actor)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/users/{user_id}/api-keys",
		Summary:       "Issue API key",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		UserID string              `path:"user_id"`
		Body   CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body CreatedAPIKeyResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := auth.Require(actor.Role, domain.ActionManageUsers); err != nil {
			return nil, handleError(err)
		}
		user, err := e.Repo.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		// The plaintext key is returned exactly once; only its hash is stored.
		plaintext := uuid.New().String() + uuid.New().String()
		key := domain.APIKey{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Name:      input.Body.Name,
			KeyHash:   repo.HashAPIKey(plaintext),
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := e.Repo.InsertAPIKey(ctx, key); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CreatedAPIKeyResponse `json:"body"`
		}{Body: CreatedAPIKeyResponse{
			APIKeyResponse: apiKeyResponse(key),
			Key:            plaintext,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/users/{user_id}/api-keys",
		Summary:     "List API keys",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*struct {
		Body struct {
			Items []APIKeyResponse `json:"items"`
		} `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := auth.Require(actor.Role, domain.ActionManageUsers); err != nil {
			return nil, handleError(err)
		}
		items, err := e.Repo.ListAPIKeys(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Items []APIKeyResponse `json:"items"`
			} `json:"body"`
		}{}
		out.Body.Items = []APIKeyResponse{}
		for _, k := range items {
			out.Body.Items = append(out.Body.Items, apiKeyResponse(k))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "revoke-api-key",
		Method:        http.MethodDelete,
		Path:          "/users/{user_id}/api-keys/{key_id}",
		Summary:       "Revoke API key",
		DefaultStatus: http.StatusNoContent,
		Errors: []int{
			http.StatusForbidden,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
		KeyID  string `path:"key_id"`
	}) (*struct{}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := auth.Require(actor.Role, domain.ActionManageUsers); err != nil {
			return nil, handleError(err)
		}
		if err := e.Repo.DeleteAPIKey(ctx, input.KeyID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerReports(api huma.API, q query.Queries) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/reports/dashboard",
		Summary:     "Dashboard summary",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body DashboardResponse `json:"body"`
	}, error) {
		summary, err := q.DashboardSummary(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DashboardResponse `json:"body"`
		}{Body: dashboardResponse(summary)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "warranty-expiring",
		Method:      http.MethodGet,
		Path:        "/reports/warranty-expiring",
		Summary:     "Assets with expiring warranty",
	}, func(ctx context.Context, input *struct {
		Days int `query:"days"`
	}) (*struct {
		Body struct {
			Items []AssetResponse `json:"items"`
		} `json:"body"`
	}, error) {
		items, err := q.WarrantyExpiring(ctx, input.Days)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Items []AssetResponse `json:"items"`
			} `json:"body"`
		}{}
		out.Body.Items = []AssetResponse{}
		for _, a := range items {
			out.Body.Items = append(out.Body.Items, assetResponse(a))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "overdue-assignments",
		Method:      http.MethodGet,
		Path:        "/reports/overdue",
		Summary:     "Overdue assignments",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Items []AssignmentResponse `json:"items"`
		} `json:"body"`
	}, error) {
		items, err := q.OverdueAssignments(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				Items []AssignmentResponse `json:"items"`
			} `json:"body"`
		}{}
		out.Body.Items = []AssignmentResponse{}
		for _, as := range items {
			out.Body.Items = append(out.Body.Items, assignmentResponse(q, as))
		}
		return out, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		AssetID string `query:"asset_id"`
		Type    string `query:"type"`
		ActorID string `query:"actor_id"`
		Limit   int    `query:"limit" default:"50"`
		Cursor  string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit, pageSize(e))
		var cursorID int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			cursorID = parsed
		}
		items, err := e.Repo.LatestEvents(ctx, repo.EventFilters{
			AssetID: input.AssetID,
			Type:    input.Type,
			ActorID: input.ActorID,
			Limit:   limit + 1,
			Cursor:  cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			resp.NextCursor = fmt.Sprintf("%d", items[limit-1].ID)
			items = items[:limit]
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}

func registerOrg(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "org-config",
		Method:      http.MethodGet,
		Path:        "/org/config",
		Summary:     "Org configuration",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body OrgConfigResponse `json:"body"`
	}, error) {
		return &struct {
			Body OrgConfigResponse `json:"body"`
		}{Body: orgConfigResponse(e.Config)}, nil
	})
}

func registerMe(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Current principal",
		Errors: []int{
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body WhoAmIResponse `json:"body"`
	}, error) {
		principal, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		return &struct {
			Body WhoAmIResponse `json:"body"`
		}{Body: WhoAmIResponse{
			ActorID: principal.ActorID,
			Role:    string(principal.Role),
			Source:  principal.Source,
		}}, nil
	})
}

func registerDevAuth(api huma.API, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actor := strings.TrimSpace(input.Body.ActorID)
		if actor == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		role := domain.RoleViewer
		if input.Body.Role != "" {
			parsed, err := domain.ParseRole(input.Body.Role)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
			}
			role = parsed
		}
		token, err := signDevToken(authCfg.JWTSecret, actor, role, time.Hour)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token}}, nil
	})
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
}

func normalizeLimit(in, fallback int) int {
	if in <= 0 {
		if fallback > 0 {
			return fallback
		}
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}

// pageSize is the org-configured default list size.
func pageSize(e engine.Engine) int {
	if e.Config == nil {
		return 0
	}
	return e.Config.Defaults.PageSize
}

func parseCompositeCursor(cursor string) (string, string, error) {
	if cursor == "" {
		return "", "", nil
	}
	parts := strings.SplitN(cursor, "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid cursor")
	}
	return parts[0], parts[1], nil
}

func composeCursor(ts, id string) string {
	if ts == "" || id == "" {
		return ""
	}
	return ts + "|" + id
}

func stringOrEmpty(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
