package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tinysteps/internal/logger"
	"tinysteps/internal/service"
	"tinysteps/internal/validation"
)

// AuthHandler handles account HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	frontendURL          string
	log                  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL, frontendURL string, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		authService:          authService,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		frontendURL:          frontendURL,
		log:                  log,
	}
}

// Register creates an account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		var ve validation.ValidationError
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			respondWithError(w, http.StatusConflict, MsgEmailTaken, "", nil)
		case errors.As(err, &ve):
			respondWithError(w, http.StatusBadRequest, ve.Error(), "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, MsgInternalServerError, "failed to register user", err)
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]UserView{
		"user": {Name: user.Name, Email: user.Email},
	})
}

// Login exchanges credentials for a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.log.Info("failed login attempt", zap.String("email", logger.Redact(req.Email)))
		respondWithError(w, http.StatusBadRequest, MsgInvalidCredentials, "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, MsgInternalServerError, "failed to log in", err)
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User:  UserView{Name: user.Name, Email: user.Email},
	})
}

// ForgotPassword mails a reset link. The response never reveals whether the
// address has an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.log.Error("password reset request failed",
			zap.String("email", logger.Redact(req.Email)),
			zap.Error(err),
		)
	}
	respondWithJSON(w, http.StatusOK, MessageResponse{Message: MsgResetEmailSent})
}

// ResetPassword sets a new password using the token from the reset link
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, MsgInvalidJSON, "", err)
		return
	}

	err := h.authService.ResetPassword(r.Context(), r.PathValue("token"), req.Password)
	if err != nil {
		var ve validation.ValidationError
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			respondWithError(w, http.StatusBadRequest, MsgInvalidResetToken, "", nil)
		case errors.As(err, &ve):
			respondWithError(w, http.StatusBadRequest, ve.Error(), "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, MsgInternalServerError, "failed to reset password", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: MsgPasswordReset})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	user, err := h.authService.GetUser(r.Context(), userID)
	if errors.Is(err, service.ErrNotFound) {
		respondWithError(w, http.StatusUnauthorized, MsgUnauthorized, "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, MsgInternalServerError, "failed to load user", err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
