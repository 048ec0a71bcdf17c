package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"tomato_backend/internal/httputil"
	"tomato_backend/internal/model"
	"tomato_backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// SignIn handles POST /user/auth
// Exchanges a Google ID token for a session token.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.GoogleToken) == "" {
		httputil.WriteBadRequest(w, "googleToken is required")
		return
	}

	resp, err := h.authService.SignIn(r.Context(), req.GoogleToken, req.FirebaseToken)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidIdentityToken):
			httputil.WriteBadRequestWithCode(w, model.CodeTokenInvalid, "Invalid Google token")
		case errors.Is(err, model.ErrMissingSigningSecret):
			log.Printf("[ERROR] SignIn handler: %v", err)
			httputil.WriteInternalError(w, model.MsgInternalFailure)
		default:
			log.Printf("[ERROR] SignIn handler: %v", err)
			httputil.WriteInternalError(w, "Failed to sign in")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
