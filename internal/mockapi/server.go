// Package mockapi is an in-memory stand-in for the technician backend. It
// serves the same routes and error shapes so the CLI and tests can run
// without the real service.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-formsubmit/pkg/logging"
)

const (
	defaultSecret   = "formsubmit-mock-secret"
	defaultTokenTTL = 7 * 24 * time.Hour
	defaultCurrency = "NGN"
	defaultDuration = 60
)

// Technician is a registered account.
type Technician struct {
	ID            int    `json:"id"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	BusinessName  string `json:"business_name"`
	Country       string `json:"country"`
	AssistantName string `json:"assistant_name,omitempty"`
	passwordHash  []byte
}

// Service is a bookable service owned by a technician.
type Service struct {
	ID              int      `json:"id"`
	TechnicianID    int      `json:"technician_id"`
	Name            string   `json:"name"`
	Category        *string  `json:"category"`
	Description     *string  `json:"description"`
	Price           float64  `json:"price"`
	Currency        string   `json:"currency"`
	DurationMinutes int      `json:"duration_minutes"`
	DepositRequired bool     `json:"deposit_required"`
	DepositAmount   *float64 `json:"deposit_amount"`
	Active          bool     `json:"active"`
}

// Server holds the in-memory state and the router.
type Server struct {
	mu          sync.RWMutex
	technicians map[string]*Technician
	services    []Service
	nextTech    int
	nextService int

	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *slog.Logger
	router chi.Router

	registerer prometheus.Registerer
	requests   *prometheus.CounterVec
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HS256 signing key.
func WithSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// WithTokenTTL sets how long issued tokens are valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger logs each request.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a server with empty state.
func New(options ...Option) *Server {
	s := &Server{
		technicians: make(map[string]*Technician),
		nextTech:    1,
		nextService: 1,
		secret:      []byte(defaultSecret),
		ttl:         defaultTokenTTL,
		cost:        bcrypt.DefaultCost,
		now:         time.Now,
		logger:      logging.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.registerMetrics()
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "mock backend running"})
	})
	r.Get("/openapi.json", s.handleContract)
	r.Post("/signup-technician", s.handleSignup)
	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireTechnician)
		r.Get("/me", s.handleMe)
		r.Post("/services", s.handleCreateService)
		r.Get("/services/me", s.handleListServices)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := s.now()
		next.ServeHTTP(ww, r)
		s.countRequest(r, ww.Status())
		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("request_id", r.Header.Get("X-Request-ID")),
			slog.Duration("elapsed", s.now().Sub(start)),
		)
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeValidation(w, "body", "Invalid JSON body")
		return
	}
	field := func(name string) string {
		v, _ := body[name].(string)
		return strings.TrimSpace(v)
	}

	email := strings.ToLower(field("email"))
	password, _ := body["password"].(string)
	if email == "" || password == "" {
		writeDetail(w, http.StatusBadRequest, "Email & password required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Password could not be hashed")
		return
	}

	s.mu.Lock()
	if _, exists := s.technicians[email]; exists {
		s.mu.Unlock()
		writeDetail(w, http.StatusConflict, "Email already exists")
		return
	}
	fullName := field("full_name")
	if fullName == "" {
		fullName = field("business_name")
	}
	tech := &Technician{
		ID:            s.nextTech,
		FullName:      fullName,
		Email:         email,
		Phone:         field("phone"),
		BusinessName:  field("business_name"),
		Country:       field("country"),
		AssistantName: field("assistant_name"),
		passwordHash:  hash,
	}
	s.nextTech++
	s.technicians[email] = tech
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"message":       "Account created successfully",
		"technician_id": tech.ID,
	})
}

type loginRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, "body", "Invalid JSON body")
		return
	}
	if req.Email == nil {
		writeValidation(w, "email", "Field required")
		return
	}
	if req.Password == nil {
		writeValidation(w, "password", "Field required")
		return
	}

	s.mu.RLock()
	tech, ok := s.technicians[strings.ToLower(strings.TrimSpace(*req.Email))]
	s.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(tech.passwordHash, []byte(*req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.issueToken(tech.Email)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"technician":   tech,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	tech := technicianFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            tech.ID,
		"email":         tech.Email,
		"full_name":     tech.FullName,
		"business_name": tech.BusinessName,
	})
}

type serviceRequest struct {
	Name            *string  `json:"name"`
	Category        *string  `json:"category"`
	Description     *string  `json:"description"`
	BookingNote     *string  `json:"booking_note"`
	Price           *float64 `json:"price"`
	Currency        *string  `json:"currency"`
	DurationMinutes *int     `json:"duration_minutes"`
	DepositRequired *bool    `json:"deposit_required"`
	DepositAmount   *float64 `json:"deposit_amount"`
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, "body", "Input should be a valid number or string")
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		writeValidation(w, "name", "Field required")
		return
	}
	if req.Price == nil {
		writeValidation(w, "price", "Field required")
		return
	}

	tech := technicianFrom(r.Context())
	svc := Service{
		TechnicianID:    tech.ID,
		Name:            strings.TrimSpace(*req.Name),
		Category:        req.Category,
		Description:     req.Description,
		Price:           *req.Price,
		Currency:        defaultCurrency,
		DurationMinutes: defaultDuration,
		DepositAmount:   req.DepositAmount,
		Active:          true,
	}
	if svc.Description == nil {
		svc.Description = req.BookingNote
	}
	if req.Currency != nil {
		svc.Currency = *req.Currency
	}
	if req.DurationMinutes != nil {
		svc.DurationMinutes = *req.DurationMinutes
	}
	if req.DepositRequired != nil {
		svc.DepositRequired = *req.DepositRequired
	}

	s.mu.Lock()
	svc.ID = s.nextService
	s.nextService++
	s.services = append(s.services, svc)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ServicesFor(technicianFrom(r.Context()).ID))
}

// ServicesFor returns the services created by technician id, oldest first.
func (s *Server) ServicesFor(id int) []Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Service, 0)
	for _, svc := range s.services {
		if svc.TechnicianID == id {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Technician looks up an account by email.
func (s *Server) Technician(email string) (Technician, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tech, ok := s.technicians[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return Technician{}, false
	}
	return *tech, true
}

// Register adds an account directly, bypassing the HTTP route.
func (s *Server) Register(tech Technician, password string) (Technician, error) {
	email := strings.ToLower(strings.TrimSpace(tech.Email))
	if email == "" || password == "" {
		return Technician{}, errors.New("mockapi: email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Technician{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.technicians[email]; exists {
		return Technician{}, errors.New("mockapi: email already exists")
	}
	tech.ID = s.nextTech
	tech.Email = email
	tech.passwordHash = hash
	s.nextTech++
	s.technicians[email] = &tech
	return tech, nil
}

type ctxKey struct{}

func technicianFrom(ctx context.Context) *Technician {
	tech, _ := ctx.Value(ctxKey{}).(*Technician)
	return tech
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{
			"loc":  []string{"body", field},
			"msg":  msg,
			"type": "value_error",
		}},
	})
}
