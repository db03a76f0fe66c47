// Package httpapi exposes the authentication engine over HTTP. It
// translates JSON requests into engine calls and the engine's error
// taxonomy into status codes; no authentication logic lives here.
//
// Error bodies are deliberately generic. Credential failures, unknown
// emails, and revoked tokens all read the same to a client so the API
// cannot be used to enumerate accounts.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	authcore "github.com/ethrane/authcore"
	"github.com/ethrane/authcore/middleware"
)

// Server routes HTTP requests to an Engine.
type Server struct {
	engine *authcore.Engine
	logger *log.Logger
}

// NewServer wires the routes. A nil logger falls back to the process
// default.
func NewServer(engine *authcore.Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{engine: engine, logger: logger}
}

// Handler returns the HTTP routing surface.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify", s.handleVerify).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	guarded := r.NewRoute().Subrouter()
	guarded.Use(middleware.Guard(s.engine))
	guarded.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	guarded.HandleFunc("/auth/logout-all", s.handleLogoutAll).Methods(http.MethodPost)

	r.Use(s.requestContext)

	return r
}

// requestContext attaches the client IP and device descriptor so the
// engine can record them in audit events and refresh records.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ctx = authcore.WithClientIP(ctx, host)
		}
		if ua := r.UserAgent(); ua != "" {
			ctx = authcore.WithDeviceInfo(ctx, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
	Token string `json:"token"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceInfo string `json:"deviceInfo"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type accountResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Verified       bool   `json:"verified"`
	CreatedAt      string `json:"created_at"`
	ActiveSessions int    `json:"active_sessions"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.engine.Signup(r.Context(), authcore.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	msg := "verification email sent"
	if result.PendingReplaced {
		msg = "verification email re-sent"
	}
	s.writeJSON(w, http.StatusCreated, messageResponse{Message: msg})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var email, secret string

	if r.Method == http.MethodGet {
		q := r.URL.Query()
		email, secret = q.Get("email"), q.Get("token")
	} else {
		var req verifyRequest
		if !s.decode(w, r, &req) {
			return
		}
		email = req.Email
		secret = req.OTP
		if secret == "" {
			secret = req.Token
		}
	}

	if err := s.engine.VerifyEmail(r.Context(), email, secret); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "email verified"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	pair, err := s.engine.Login(r.Context(), authcore.LoginRequest{
		Email:      req.Email,
		Password:   req.Password,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}

	pair, err := s.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.Logout(r.Context(), req.RefreshToken); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, authcore.ErrUnauthorized)
		return
	}

	if err := s.engine.LogoutAll(r.Context(), accountID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "logged out everywhere"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		s.writeError(w, r, authcore.ErrUnauthorized)
		return
	}

	info, err := s.engine.Account(r.Context(), accountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, accountResponse{
		ID:             info.ID,
		Name:           info.Name,
		Email:          info.Email,
		Verified:       info.Verified,
		CreatedAt:      info.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		ActiveSessions: info.ActiveSessions,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "invalid request"})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("httpapi: encode response: %v", err)
	}
}

// writeError maps the engine's error taxonomy to HTTP. Bodies carry the
// sentinel's message, never backend detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, authcore.ErrValidation),
		errors.Is(err, authcore.ErrDuplicateAccount),
		errors.Is(err, authcore.ErrInvalidOrExpiredSecret),
		errors.Is(err, authcore.ErrVerificationAttempts):
		status = http.StatusBadRequest
	case errors.Is(err, authcore.ErrInvalidCredentials),
		errors.Is(err, authcore.ErrInvalidRefreshToken),
		errors.Is(err, authcore.ErrReuseDetected),
		errors.Is(err, authcore.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, authcore.ErrNotVerified):
		status = http.StatusForbidden
	case errors.Is(err, authcore.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, authcore.ErrTransport),
		errors.Is(err, authcore.ErrConflict),
		errors.Is(err, authcore.ErrStoreUnavailable):
		s.logger.Printf("httpapi: %s %s: %v", r.Method, r.URL.Path, err)
	default:
		s.logger.Printf("httpapi: %s %s: %v", r.Method, r.URL.Path, err)
		message = "internal error"
	}

	s.writeJSON(w, status, messageResponse{Message: message})
}
