package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/putrawicaksono/minibank/internal/auth"
	"github.com/putrawicaksono/minibank/internal/http/respond"
	"github.com/putrawicaksono/minibank/internal/login"
	"github.com/putrawicaksono/minibank/internal/models"
	"github.com/putrawicaksono/minibank/internal/models/dto"
	"github.com/putrawicaksono/minibank/internal/storage"
)

// AuthHandler owns registration and both login endpoints. User and
// customer logins run through the same throttle machinery, each with its
// own identity store.
type AuthHandler struct {
	users          storage.UserStore
	hasher         auth.CredentialHasher
	userLogins     *login.Throttle
	customerLogins *login.Throttle
	log            *logrus.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users storage.UserStore, hasher auth.CredentialHasher, userLogins, customerLogins *login.Throttle, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		users:          users,
		hasher:         hasher,
		userLogins:     userLogins,
		customerLogins: customerLogins,
		log:            log,
	}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/customers/login", h.handleCustomerLogin).Methods(http.MethodPost)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		respond.Error(w, http.StatusBadRequest, "name and email are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		respond.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	passwordHash, err := h.hasher.Hash(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	created, err := h.users.CreateUser(r.Context(), models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "user already exists")
			return
		}
		h.log.WithError(err).Error("create user failed")
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	respond.JSON(w, http.StatusCreated, "user created", dto.RegisterResponse{User: created})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	h.authenticate(w, r, h.userLogins, strings.TrimSpace(req.Email), req.Password)
}

func (h *AuthHandler) handleCustomerLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.CustomerLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	h.authenticate(w, r, h.customerLogins, strings.TrimSpace(req.AccountNumber), req.AccessCode)
}

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request, throttle *login.Throttle, id, secret string) {
	if id == "" || secret == "" {
		respond.Error(w, http.StatusBadRequest, "identifier and secret are required")
		return
	}
	token, err := throttle.Authenticate(r.Context(), id, secret)
	if err != nil {
		// Unknown identities answer as invalid credentials so login
		// cannot be used to enumerate accounts.
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.WithError(err).Error("login failed")
		}
		respond.Error(w, status, msg)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token})
}
