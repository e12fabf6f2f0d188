package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/vanshika/basketwise/internal/auth"
)

type claimsKey struct{}

// AuthHandlers serves sign-up and login and guards authenticated routes.
type AuthHandlers struct {
	logger  *zap.Logger
	service *auth.Service
}

// NewAuthHandlers constructs an AuthHandlers instance.
func NewAuthHandlers(logger *zap.Logger, svc *auth.Service) *AuthHandlers {
	return &AuthHandlers{logger: logger, service: svc}
}

func (h *AuthHandlers) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var payload signUpRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.SignUp(r.Context(), auth.SignUpInput(payload))
	if err != nil {
		h.fail(w, r, err, "failed to create account")
		return
	}

	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *AuthHandlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var payload loginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.fail(w, r, err, "failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token:     token.Value,
		ExpiresAt: formatTime(token.ExpiresAt),
		User:      toUserResponse(user),
	})
}

func (h *AuthHandlers) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeProblem(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}

	user, err := h.service.User(r.Context(), claims)
	if errors.Is(err, auth.ErrUserNotFound) {
		writeProblem(w, r, http.StatusUnauthorized, "account no longer exists")
		return
	}
	if err != nil {
		h.fail(w, r, err, "failed to load account")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// requireAuth rejects requests without a valid bearer token and stores the
// verified claims on the request context.
func (h *AuthHandlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeProblem(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := h.service.Verify(raw)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			writeProblem(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func (h *AuthHandlers) fail(w http.ResponseWriter, r *http.Request, err error, detail string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(detail, zap.Error(err))
		writeProblem(w, r, status, detail)
		return
	}
	writeProblem(w, r, status, err.Error())
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func claimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return claims, ok
}
