package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/freelancer-bff/internal/api/http/handlers"
	"github.com/spec-kit/freelancer-bff/internal/auth"
	"github.com/spec-kit/freelancer-bff/internal/config"
	"github.com/spec-kit/freelancer-bff/internal/domain"
	"github.com/spec-kit/freelancer-bff/internal/observability"
	"github.com/spec-kit/freelancer-bff/internal/repository"
	"github.com/spec-kit/freelancer-bff/internal/service"
	"github.com/spec-kit/freelancer-bff/internal/upstream"
	apperrors "github.com/spec-kit/freelancer-bff/pkg/util"
)

type recordedCall struct {
	Method string
	Path   string
	Query  string
	Body   string
}

type fakeBackend struct {
	mu     sync.Mutex
	calls  []recordedCall
	status int
	body   string
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
	status, payload := b.status, b.body
	b.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if payload == "" {
		payload = `{"ok":true}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(payload))
}

func (b *fakeBackend) last(t *testing.T) recordedCall {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		t.Fatalf("expected an upstream call")
	}
	return b.calls[len(b.calls)-1]
}

func (b *fakeBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type stubSubjects map[int64]*domain.Subject

func (s stubSubjects) GetByID(_ context.Context, id int64) (*domain.Subject, error) {
	if subject, ok := s[id]; ok {
		return subject, nil
	}
	return nil, repository.ErrSubjectNotFound
}

type stubSignIn struct {
	tokens *auth.TokenManager
}

func (s stubSignIn) SignIn(_ context.Context, username, password string) (*service.AccessToken, error) {
	if username != "john" || password != "changeme" {
		return nil, apperrors.NewInvalidCredentials()
	}
	token, exp, err := s.tokens.Issue(auth.ClaimsInput{SubjectID: 1, SubjectName: "john"})
	if err != nil {
		return nil, err
	}
	return &service.AccessToken{Token: token, ExpiresAt: exp}, nil
}

type testServer struct {
	app      *fiber.App
	backend  *fakeBackend
	tokens   *auth.TokenManager
	subjects stubSubjects
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	client := upstream.NewClient(config.UpstreamConfig{BaseURL: srv.URL, TimeoutSeconds: 2}, logger)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	subjects := stubSubjects{
		1: {ID: 1, Username: "john", IsActive: true, Roles: []domain.Role{domain.RoleFreelancer}},
		2: {ID: 2, Username: "root", IsActive: true, Roles: []domain.Role{domain.RoleAdmin, domain.RoleFreelancer}},
		3: {ID: 3, Username: "lawyer", IsActive: true, Roles: []domain.Role{domain.RoleLegalAnalyst}},
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	err := RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("bff", "test", handlers.HealthDependencies{Upstream: client, Metrics: metrics}),
		Auth:           handlers.NewAuthHandler(stubSignIn{tokens: tokens}),
		Proxy:          handlers.NewProxyHandler(client, logger),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, subjects, nil, logger),
		RoleGate:       auth.NewRoleGate(true, nil),
	})
	if err != nil {
		t.Fatalf("register routes: %v", err)
	}

	return &testServer{app: app, backend: backend, tokens: tokens, subjects: subjects}
}

func (s *testServer) tokenFor(t *testing.T, id int64) string {
	t.Helper()
	token, _, err := s.tokens.Issue(auth.ClaimsInput{SubjectID: id, SubjectName: s.subjects[id].Username})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, target, token, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func TestRouter_PublicRegisterWithoutToken(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/freelancers/register", "", `{"username":"ana","roles":["ADMIN"]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	call := s.backend.last(t)
	if call.Method != http.MethodPost || call.Path != "/freelancers/register" {
		t.Fatalf("unexpected upstream call: %+v", call)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(call.Body), &sent); err != nil {
		t.Fatalf("decode forwarded body: %v", err)
	}
	roles, _ := sent["roles"].([]any)
	if len(roles) != 1 || roles[0] != "FREELANCER" {
		t.Fatalf("expected registration roles forced to FREELANCER, got %v", sent["roles"])
	}
	if sent["username"] != "ana" {
		t.Fatalf("expected other fields kept, got %v", sent)
	}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/clients", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if s.backend.count() != 0 {
		t.Fatalf("upstream must not be called for rejected requests")
	}
}

func TestRouter_RoleGateOnAdminRoute(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/freelancers/7", s.tokenFor(t, 1), "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if s.backend.count() != 0 {
		t.Fatalf("upstream must not be called for forbidden requests")
	}

	resp = s.do(t, http.MethodGet, "/freelancers/7", s.tokenFor(t, 2), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if call := s.backend.last(t); call.Path != "/freelancers/7" {
		t.Fatalf("unexpected upstream path %q", call.Path)
	}
}

func TestRouter_RouteRolesOverrideGroupRoles(t *testing.T) {
	s := newTestServer(t)

	// templates group is freelancer-only but listing also admits legal analysts
	if resp := s.do(t, http.MethodGet, "/templates", s.tokenFor(t, 3), ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for legal analyst listing, got %d", resp.StatusCode)
	}
	if resp := s.do(t, http.MethodPost, "/templates", s.tokenFor(t, 3), `{}`); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for legal analyst create, got %d", resp.StatusCode)
	}
	if resp := s.do(t, http.MethodDelete, "/categories/4", s.tokenFor(t, 1), ""); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for freelancer delete, got %d", resp.StatusCode)
	}
}

func TestRouter_ProfileUsesAuthenticatedSubject(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPatch, "/freelancers/profile", s.tokenFor(t, 1), `{"nome":"John"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	call := s.backend.last(t)
	if call.Method != http.MethodPut || call.Path != "/freelancers/1" || call.Body != `{"nome":"John"}` {
		t.Fatalf("unexpected upstream call: %+v", call)
	}

	resp = s.do(t, http.MethodPatch, "/freelancers/change-password", s.tokenFor(t, 1), `{"currentPassword":"a","newPassword":"b"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if call := s.backend.last(t); call.Method != http.MethodPut || call.Path != "/freelancers/1/change-password" {
		t.Fatalf("unexpected upstream call: %+v", call)
	}
}

func TestRouter_UpdateMapsToPut(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPatch, "/clients/9", s.tokenFor(t, 1), `{"nome":"ACME"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if call := s.backend.last(t); call.Method != http.MethodPut || call.Path != "/clients/9" {
		t.Fatalf("unexpected upstream call: %+v", call)
	}
}

func TestRouter_KanbanTaskGetsKanbanIDFromPath(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/kanbans/12/tasks", s.tokenFor(t, 1), `{"titulo":"write","kanbanId":99}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	call := s.backend.last(t)
	if call.Path != "/kanbans/tasks" {
		t.Fatalf("unexpected upstream path %q", call.Path)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(call.Body), &sent); err != nil {
		t.Fatalf("decode forwarded body: %v", err)
	}
	if sent["kanbanId"] != float64(12) {
		t.Fatalf("expected kanbanId 12, got %v", sent["kanbanId"])
	}
}

func TestRouter_NonNumericIDRejected(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/clients/abc", s.tokenFor(t, 1), "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if s.backend.count() != 0 {
		t.Fatalf("upstream must not be called for invalid ids")
	}
}

func TestRouter_DeleteAnswersNoContent(t *testing.T) {
	s := newTestServer(t)
	s.backend.body = `{"message":"removed"}`

	resp := s.do(t, http.MethodDelete, "/clients/5", s.tokenFor(t, 1), "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); body != "" {
		t.Fatalf("expected empty body, got %q", body)
	}
}

func TestRouter_QueryStringPassesThrough(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/services/price-range?minPrice=500&maxPrice=2000", s.tokenFor(t, 1), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if call := s.backend.last(t); call.Query != "minPrice=500&maxPrice=2000" {
		t.Fatalf("unexpected query %q", call.Query)
	}
}

func TestRouter_UpstreamErrorPassesThrough(t *testing.T) {
	s := newTestServer(t)
	s.backend.status = http.StatusConflict
	s.backend.body = `{"message":"email already registered"}`

	resp := s.do(t, http.MethodPost, "/clients", s.tokenFor(t, 1), `{"email":"a@b.c"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); body != `{"message":"email already registered"}` {
		t.Fatalf("expected upstream body verbatim, got %q", body)
	}
}

func TestRouter_Login(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/auth/login", "", `{"username":"john","password":"changeme"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := s.tokens.Verify(payload.AccessToken)
	if err != nil || claims.Sub != 1 {
		t.Fatalf("expected token for subject 1, got %+v (%v)", claims, err)
	}

	resp = s.do(t, http.MethodPost, "/auth/login", "", `{"username":"john","password":"nope"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "INVALID_CREDENTIALS") {
		t.Fatalf("expected INVALID_CREDENTIALS, got %s", body)
	}
}

func TestRouter_HealthIsPublic(t *testing.T) {
	s := newTestServer(t)

	if resp := s.do(t, http.MethodGet, "/health/live", "", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp := s.do(t, http.MethodGet, "/health/metrics", "", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRouter_UnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/nope", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "NOT_FOUND") {
		t.Fatalf("expected error envelope, got %s", body)
	}
}
