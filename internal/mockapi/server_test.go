package mockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-formsubmit/internal/openapi/parser"
	"github.com/goliatone/go-formsubmit/pkg/client"
	"github.com/goliatone/go-formsubmit/pkg/collect"
	"github.com/goliatone/go-formsubmit/pkg/forms"
	"github.com/goliatone/go-formsubmit/pkg/session"
	"github.com/goliatone/go-formsubmit/pkg/store"
	"github.com/goliatone/go-formsubmit/pkg/submit"
)

func newTestServer(t *testing.T, options ...Option) (*Server, *httptest.Server) {
	t.Helper()
	api := New(append([]Option{WithBcryptCost(bcrypt.MinCost)}, options...)...)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func post(t *testing.T, url string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestSignupAndLogin(t *testing.T) {
	_, srv := newTestServer(t)

	signup := map[string]string{
		"full_name": "Jo", "business_name": "Jo's", "email": "A@B.com",
		"phone": "1", "country": "NG", "assistant_name": "Ava", "password": "secret",
	}
	resp, body := post(t, srv.URL+"/signup-technician", signup, "")
	if resp.StatusCode != http.StatusOK || body["status"] != "success" {
		t.Fatalf("signup: %d %v", resp.StatusCode, body)
	}

	resp, body = post(t, srv.URL+"/signup-technician", signup, "")
	if resp.StatusCode != http.StatusConflict || body["detail"] != "Email already exists" {
		t.Fatalf("duplicate signup: %d %v", resp.StatusCode, body)
	}

	resp, body = post(t, srv.URL+"/login", map[string]string{"email": "a@b.com", "password": "wrong"}, "")
	if resp.StatusCode != http.StatusUnauthorized || body["detail"] != "Invalid email or password" {
		t.Fatalf("bad login: %d %v", resp.StatusCode, body)
	}

	resp, body = post(t, srv.URL+"/login", map[string]string{"email": "a@b.com", "password": "secret"}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %v", resp.StatusCode, body)
	}
	tech, _ := body["technician"].(map[string]any)
	if body["token_type"] != "bearer" || tech["full_name"] != "Jo" || tech["email"] != "a@b.com" {
		t.Fatalf("unexpected login body: %v", body)
	}
	if token, _ := body["access_token"].(string); token == "" {
		t.Fatalf("missing token")
	}
}

func TestSignup_MissingCredentials(t *testing.T) {
	_, srv := newTestServer(t)
	resp, body := post(t, srv.URL+"/signup-technician", map[string]string{"email": "x@y.z"}, "")
	if resp.StatusCode != http.StatusBadRequest || body["detail"] != "Email & password required" {
		t.Fatalf("unexpected: %d %v", resp.StatusCode, body)
	}
}

func TestLogin_ValidationShape(t *testing.T) {
	_, srv := newTestServer(t)
	resp, _ := post(t, srv.URL+"/login", map[string]string{"email": "a@b.com"}, "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestServices_RequireBearer(t *testing.T) {
	api, srv := newTestServer(t)
	if _, err := api.Register(Technician{Email: "a@b.com", FullName: "Jo"}, "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, body := post(t, srv.URL+"/services", map[string]any{"name": "Cut", "price": 10}, "")
	if resp.StatusCode != http.StatusUnauthorized || body["detail"] != "Missing or invalid auth header" {
		t.Fatalf("no auth: %d %v", resp.StatusCode, body)
	}
	resp, body = post(t, srv.URL+"/services", map[string]any{"name": "Cut", "price": 10}, "garbage")
	if resp.StatusCode != http.StatusUnauthorized || body["detail"] != "Invalid token" {
		t.Fatalf("bad token: %d %v", resp.StatusCode, body)
	}

	other := New(WithSecret("other"))
	forged, err := other.issueToken("a@b.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if resp, _ := post(t, srv.URL+"/services", map[string]any{"name": "Cut", "price": 10}, forged); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("token signed with another key accepted: %d", resp.StatusCode)
	}
}

func TestServices_ExpiredToken(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	api, srv := newTestServer(t, WithClock(func() time.Time { return now }), WithTokenTTL(time.Hour))
	if _, err := api.Register(Technician{Email: "a@b.com"}, "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := api.issueToken("a@b.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if resp, _ := post(t, srv.URL+"/services", map[string]any{"name": "Cut", "price": 10}, token); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired token accepted: %d", resp.StatusCode)
	}
}

func TestServices_CreateAndList(t *testing.T) {
	api, srv := newTestServer(t)
	tech, err := api.Register(Technician{Email: "a@b.com"}, "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _ := api.issueToken(tech.Email)

	resp, body := post(t, srv.URL+"/services", map[string]any{"name": "Cut"}, token)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("missing price: %d %v", resp.StatusCode, body)
	}

	resp, body = post(t, srv.URL+"/services", map[string]any{
		"name": "Cut", "category": "Hair", "price": 12.5, "duration_minutes": 30, "booking_note": "Bring photos",
	}, token)
	if resp.StatusCode != http.StatusOK || body["currency"] != "NGN" || body["active"] != true {
		t.Fatalf("create: %d %v", resp.StatusCode, body)
	}

	services := api.ServicesFor(tech.ID)
	if len(services) != 1 {
		t.Fatalf("expected one service, got %d", len(services))
	}
	got := services[0]
	if got.Name != "Cut" || got.Price != 12.5 || got.DurationMinutes != 30 || got.Description == nil || *got.Description != "Bring photos" {
		t.Fatalf("unexpected service: %+v", got)
	}
}

func TestEndToEnd_SignupLoginService(t *testing.T) {
	api, srv := newTestServer(t)
	registry, err := forms.Default()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	kv := store.NewMemory(nil)
	requester := client.New(client.WithBaseURL(srv.URL))
	var navigated []string
	nav := submit.NavigatorFunc(func(_ context.Context, target string) error {
		navigated = append(navigated, target)
		return nil
	})
	noWait := submit.WithWait(func(context.Context, time.Duration) error { return nil })

	run := func(formID string, values map[string]string) (submit.Result, *collect.MapSurface) {
		t.Helper()
		spec, ok := registry.Get(formID)
		if !ok {
			t.Fatalf("form %q missing", formID)
		}
		surface := collect.NewMapSurface(values)
		s, err := submit.New(spec, collect.New(surface), requester, kv, submit.WithNavigator(nav), noWait)
		if err != nil {
			t.Fatalf("submitter: %v", err)
		}
		return s.Submit(context.Background()), surface
	}

	res, _ := run("signup", map[string]string{
		"full_name": "Jo", "business_name": "Jo's", "email": "a@b.com", "phone": "1",
		"country": "NG", "assistant_name": "Ava", "password": "secret",
	})
	if !res.Success() {
		t.Fatalf("signup: %+v", res)
	}

	res, _ = run("service", map[string]string{"service_name": "Cut", "price": "10"})
	if res.Outcome != submit.OutcomeUnauthenticated {
		t.Fatalf("service before login: %+v", res)
	}

	res, _ = run("login", map[string]string{"email": "a@b.com", "password": "secret"})
	if !res.Success() {
		t.Fatalf("login: %+v", res)
	}
	sess, err := session.Load(context.Background(), kv)
	if err != nil || sess.Name != "Jo" || sess.Email != "a@b.com" {
		t.Fatalf("session: %+v %v", sess, err)
	}
	claims, err := session.Inspect(sess.Token)
	if err != nil || claims.Subject != "a@b.com" {
		t.Fatalf("claims: %+v %v", claims, err)
	}

	res, surface := run("service", map[string]string{
		"service_name": "Cut", "category": "Hair", "price": "10", "duration": "45.0", "description": "",
	})
	if !res.Success() {
		t.Fatalf("service: %+v", res)
	}
	for element, value := range surface.Snapshot() {
		if value != "" {
			t.Fatalf("element %q not reset", element)
		}
	}

	tech, _ := api.Technician("a@b.com")
	services := api.ServicesFor(tech.ID)
	if len(services) != 1 || services[0].DurationMinutes != 45 || services[0].Description != nil {
		t.Fatalf("unexpected services: %+v", services)
	}
	if diff := cmp.Diff([]string{"technician_login.html", "dashboard.html"}, navigated); diff != "" {
		t.Fatalf("navigation mismatch (-want +got):\n%s", diff)
	}
}

func TestContractMatchesForms(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/openapi.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("contract is not JSON:\n%s", raw)
	}

	operations, err := parser.New().Operations(context.Background(), raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := map[string]string{}
	for id, op := range operations {
		got[id] = op.Method + " " + op.Path
	}
	want := map[string]string{
		"login":   "POST /login",
		"signup":  "POST /signup-technician",
		"service": "POST /services",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	api, srv := newTestServer(t, WithMetrics(reg))
	other := New(WithMetrics(reg))

	post(t, srv.URL+"/login", map[string]string{"email": "x@y.com", "password": "nope"}, "")
	post(t, srv.URL+"/login", map[string]string{"email": "x@y.com", "password": "nope"}, "")
	post(t, srv.URL+"/services", map[string]any{"name": "Cut", "price": 1}, "")

	if api.requests != other.requests {
		t.Fatalf("servers on one registry should share the counter")
	}
	if got := testutil.ToFloat64(api.requests.WithLabelValues(http.MethodPost, "/login", "401")); got != 2 {
		t.Fatalf("login 401 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(api.requests.WithLabelValues(http.MethodPost, "/services", "401")); got != 1 {
		t.Fatalf("services 401 count = %v, want 1", got)
	}
}
