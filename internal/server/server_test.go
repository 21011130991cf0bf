package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"assetline/internal/config"
	"assetline/internal/db"
	"assetline/internal/domain"
	"assetline/internal/engine"
	"assetline/internal/migrate"
	"assetline/internal/query"
	"assetline/internal/repo"
	"assetline/internal/timeline"
)

const testJWTSecret = "test-secret"

var adminHeaders = map[string]string{"X-Actor-Id": "tester", "X-Actor-Role": "admin"}

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("org-1")
	e := engine.New(conn, cfg)
	handler, err := New(Config{
		Engine:    e,
		Queries:   query.New(conn, cfg.Defaults.WarrantyAlertDays),
		Projector: timeline.Projector{Repo: e.Repo},
		BasePath:  "/v1",
		Auth: AuthConfig{
			JWTSecret:              testJWTSecret,
			AllowLegacyActorHeader: true,
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v (%s)", err, string(data))
	}
	return envelope.Error.Code
}

func seedEmployee(t *testing.T, srv *testServer) string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/employees", map[string]any{
		"employee_id": "EMP-001",
		"first_name":  "Ada",
		"last_name":   "Lovelace",
		"email":       "ada@example.com",
	}, adminHeaders)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("seed employee: %d %s", res.StatusCode, string(data))
	}
	var emp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(data, &emp)
	return emp.ID
}

func TestHealthRequiresNoAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health: %d %s", res.StatusCode, string(data))
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/assets", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d %s", res.StatusCode, string(data))
	}
	if code := errorCode(t, data); code != "unauthorized" {
		t.Fatalf("expected unauthorized code, got %s", code)
	}
}

func TestAssetLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	employeeID := seedEmployee(t, srv)

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/assets", map[string]any{
		"asset_tag": "IT-0001",
		"category":  "laptop",
		"brand":     "Lenovo",
		"model":     "T14",
	}, adminHeaders)
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create asset: %d %s", createRes.StatusCode, string(data))
	}
	var created AssetResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal asset: %v", err)
	}
	if created.Status != "available" {
		t.Fatalf("expected available, got %s", created.Status)
	}

	assignRes, assignBody := doJSON(t, client, http.MethodPost, srv.URL+"/v1/assets/"+created.ID+"/assign", map[string]any{
		"employee_id": employeeID,
	}, adminHeaders)
	if assignRes.StatusCode != http.StatusCreated {
		t.Fatalf("assign: %d %s", assignRes.StatusCode, string(assignBody))
	}
	var assignment AssignmentResponse
	_ = json.Unmarshal(assignBody, &assignment)
	if !assignment.Active {
		t.Fatalf("expected active assignment")
	}

	// assigning again conflicts with lifecycle state
	dupRes, dupBody := doJSON(t, client, http.MethodPost, srv.URL+"/v1/assets/"+created.ID+"/assign", map[string]any{
		"employee_id": employeeID,
	}, adminHeaders)
	if dupRes.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", dupRes.StatusCode, string(dupBody))
	}
	if code := errorCode(t, dupBody); code != "invalid_state" {
		t.Fatalf("expected invalid_state, got %s", code)
	}

	returnRes, returnBody := doJSON(t, client, http.MethodPost, srv.URL+"/v1/assignments/"+assignment.ID+"/return", map[string]any{}, adminHeaders)
	if returnRes.StatusCode != http.StatusOK {
		t.Fatalf("return: %d %s", returnRes.StatusCode, string(returnBody))
	}

	timelineRes, timelineBody := doJSON(t, client, http.MethodGet, srv.URL+"/v1/assets/"+created.ID+"/timeline", nil, adminHeaders)
	if timelineRes.StatusCode != http.StatusOK {
		t.Fatalf("timeline: %d %s", timelineRes.StatusCode, string(timelineBody))
	}
	var page struct {
		Items []TimelineEntryResponse `json:"items"`
	}
	if err := json.Unmarshal(timelineBody, &page); err != nil {
		t.Fatalf("unmarshal timeline: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 timeline entries, got %d", len(page.Items))
	}
}

func TestViewerForbidden(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	viewerHeaders := map[string]string{"X-Actor-Id": "reader", "X-Actor-Role": "viewer"}
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/assets", map[string]any{
		"asset_tag": "IT-0002",
		"category":  "laptop",
		"brand":     "Dell",
		"model":     "XPS",
	}, viewerHeaders)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %s", res.StatusCode, string(data))
	}
	if code := errorCode(t, data); code != "forbidden" {
		t.Fatalf("expected forbidden code, got %s", code)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/assets/"+uuid.New().String(), nil, adminHeaders)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %s", res.StatusCode, string(data))
	}
	if code := errorCode(t, data); code != "not_found" {
		t.Fatalf("expected not_found code, got %s", code)
	}
}

func TestDevLoginAndJWT(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	loginRes, loginBody := doJSON(t, client, http.MethodPost, srv.URL+"/v1/auth/dev/login", map[string]any{
		"actor_id": "dev-user",
		"role":     "it_officer",
	}, nil)
	if loginRes.StatusCode != http.StatusOK {
		t.Fatalf("dev login: %d %s", loginRes.StatusCode, string(loginBody))
	}
	var login DevLoginResponse
	if err := json.Unmarshal(loginBody, &login); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	if login.Token == "" {
		t.Fatalf("expected token")
	}

	meRes, meBody := doJSON(t, client, http.MethodGet, srv.URL+"/v1/me", nil, map[string]string{
		"Authorization": "Bearer " + login.Token,
	})
	if meRes.StatusCode != http.StatusOK {
		t.Fatalf("me: %d %s", meRes.StatusCode, string(meBody))
	}
	var me WhoAmIResponse
	if err := json.Unmarshal(meBody, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.ActorID != "dev-user" || me.Role != "it_officer" || me.Source != "jwt" {
		t.Fatalf("unexpected identity %+v", me)
	}

	badRes, badBody := doJSON(t, client, http.MethodGet, srv.URL+"/v1/me", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if badRes.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d %s", badRes.StatusCode, string(badBody))
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()
	user, err := srv.Engine.CreateUser(ctx, engine.UserCreateOptions{
		Email: "ops@example.com",
		Role:  domain.RoleITOfficer,
	}, engine.Actor{ID: "tester", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	plaintext := uuid.New().String() + uuid.New().String()
	key := domain.APIKey{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Name:      "ci",
		KeyHash:   repo.HashAPIKey(plaintext),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := srv.Engine.Repo.InsertAPIKey(ctx, key); err != nil {
		t.Fatalf("insert key: %v", err)
	}

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/me", nil, map[string]string{
		"X-Api-Key": plaintext,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me with api key: %d %s", res.StatusCode, string(data))
	}
	var me WhoAmIResponse
	_ = json.Unmarshal(data, &me)
	if me.ActorID != user.ID || me.Source != "api_key" {
		t.Fatalf("unexpected identity %+v", me)
	}

	// deactivated users lose key access
	if _, err := srv.Engine.DeactivateUser(ctx, user.ID, engine.Actor{ID: "tester", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/me", nil, map[string]string{
		"X-Api-Key": plaintext,
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after deactivation, got %d %s", res.StatusCode, string(data))
	}
}

func TestValidationErrorsMapToBadRequest(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/assets", map[string]any{
		"asset_tag": "IT-0003",
		"category":  "spaceship",
		"brand":     "X",
		"model":     "1",
	}, adminHeaders)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad enum, got %d %s", res.StatusCode, string(data))
	}
	if code := errorCode(t, data); code != "bad_request" {
		t.Fatalf("expected bad_request code, got %s", code)
	}
}
