package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/putrawicaksono/minibank/internal/auth"
	"github.com/putrawicaksono/minibank/internal/bank"
	"github.com/putrawicaksono/minibank/internal/config"
	"github.com/putrawicaksono/minibank/internal/http/handlers"
	"github.com/putrawicaksono/minibank/internal/login"
	"github.com/putrawicaksono/minibank/internal/middleware"
	"github.com/putrawicaksono/minibank/internal/storage"
)

// Deps bundles everything the HTTP layer is wired over.
type Deps struct {
	Accounts storage.AccountStore
	Users    storage.UserStore
	Ledger   storage.TransactionLedger
	Log      *logrus.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Router(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Router builds the full route tree. Exposed separately so tests can mount
// it on an httptest server.
func Router(cfg config.Config, deps Deps) http.Handler {
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	engine := bank.NewEngine(deps.Accounts, deps.Ledger, deps.Log)

	userLogins := login.NewThrottle(login.UserIdentities(deps.Users), hasher, tokens, deps.Log, cfg.MaxLoginAttempts, cfg.LockoutWindow)
	customerLogins := login.NewThrottle(login.CustomerIdentities(deps.Accounts), hasher, tokens, deps.Log, cfg.MaxLoginAttempts, cfg.LockoutWindow)

	r := mux.NewRouter()
	r.Use(middleware.Logging(deps.Log))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	handlers.NewHealthHandler(time.Now()).Register(r)
	handlers.NewAuthHandler(deps.Users, hasher, userLogins, customerLogins, deps.Log).Register(r)

	accountHandler := handlers.NewAccountHandler(deps.Accounts, hasher, deps.Log)
	accountHandler.RegisterPublic(r)

	protected := r.PathPrefix("/").Subrouter()
	protected.Use(middleware.RequireAuth(tokens))
	accountHandler.RegisterProtected(protected)
	handlers.NewTransferHandler(engine, deps.Accounts, hasher, deps.Log).Register(protected)

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
