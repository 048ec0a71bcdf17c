package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tomato_backend/internal/httputil"
	"tomato_backend/internal/model"
	"tomato_backend/internal/service"
	"tomato_backend/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetUser handles GET /user/{id}
// Unknown ids yield a JSON null. Device tokens are only shown to the user themselves.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteJSON(w, http.StatusOK, nil)
			return
		}
		log.Printf("[ERROR] GetUser handler: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	if viewerID, ok := middleware.GetUserIDFromContext(r.Context()); !ok || viewerID != user.ID {
		user = user.Public()
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// Me handles GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorizedWithCode(w, model.CodeNoToken, model.MsgNoToken)
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Me handler: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
