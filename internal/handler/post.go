package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tomato_backend/internal/httputil"
	"tomato_backend/internal/model"
	"tomato_backend/internal/service"
	"tomato_backend/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// Create handles POST /posts
// The owner is always the authenticated user, whatever the body says.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorizedWithCode(w, model.CodeNoToken, model.MsgNoToken)
		return
	}

	var req model.CreatePostRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		log.Printf("[ERROR] Create post handler: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to create post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// GetByID handles GET /posts/{id}
// Missing posts, and private posts of someone else, yield a JSON null.
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	post, err := h.postService.GetByID(r.Context(), postID, viewerFrom(r))
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			httputil.WriteJSON(w, http.StatusOK, nil)
			return
		}
		log.Printf("[ERROR] GetByID post handler: post=%s err=%v", postID, err)
		httputil.WriteInternalError(w, "Failed to get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Update handles PUT /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorizedWithCode(w, model.CodeNoToken, model.MsgNoToken)
		return
	}
	postID := chi.URLParam(r, "id")

	var patch model.UpdatePostRequest
	if err := httputil.DecodeJSON(r, &patch); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if patch.Empty() {
		httputil.WriteBadRequest(w, "No fields to update")
		return
	}

	post, err := h.postService.Update(r.Context(), postID, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrForbidden):
			httputil.WriteForbidden(w, "You can only update your own posts")
		default:
			if writeValidationError(w, err) {
				return
			}
			log.Printf("[ERROR] Update post handler: post=%s user=%s err=%v", postID, userID, err)
			httputil.WriteInternalError(w, "Failed to update post")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorizedWithCode(w, model.CodeNoToken, model.MsgNoToken)
		return
	}
	postID := chi.URLParam(r, "id")

	err := h.postService.Delete(r.Context(), postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrForbidden):
			httputil.WriteForbidden(w, "You can only delete your own posts")
		default:
			log.Printf("[ERROR] Delete post handler: post=%s user=%s err=%v", postID, userID, err)
			httputil.WriteInternalError(w, "Failed to delete post")
		}
		return
	}

	httputil.WriteMessage(w, "Post deleted successfully")
}

// GetPublic handles GET /posts
// Query params (optional, all four or none): start_lat, end_lat, start_long, end_long
func (h *PostHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	bbox, err := parseBoundingBox(r.URL.Query())
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	posts, err := h.postService.QueryPublic(r.Context(), bbox)
	if err != nil {
		log.Printf("[ERROR] GetPublic posts handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to get posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, posts)
}

// GetAuthenticated handles GET /posts-authenticated
// Query params:
//   - userPostOnly: "true" to list only the caller's posts
//   - start_lat, end_lat, start_long, end_long (optional)
func (h *PostHandler) GetAuthenticated(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorizedWithCode(w, model.CodeNoToken, model.MsgNoToken)
		return
	}

	query := r.URL.Query()
	userPostOnly := false
	if raw := query.Get("userPostOnly"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteBadRequest(w, "userPostOnly must be true or false")
			return
		}
		userPostOnly = parsed
	}

	bbox, err := parseBoundingBox(query)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	posts, err := h.postService.QueryForUser(r.Context(), userID, userPostOnly, bbox)
	if err != nil {
		log.Printf("[ERROR] GetAuthenticated posts handler: user=%s err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, posts)
}

// GetAtLocation handles GET /posts-at-location?latitude=..&longitude=..
func (h *PostHandler) GetAtLocation(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	lat, err := strconv.ParseFloat(query.Get("latitude"), 64)
	if err != nil {
		httputil.WriteBadRequest(w, "latitude must be a number")
		return
	}
	long, err := strconv.ParseFloat(query.Get("longitude"), 64)
	if err != nil {
		httputil.WriteBadRequest(w, "longitude must be a number")
		return
	}

	posts, err := h.postService.QueryAtLocation(r.Context(), lat, long, viewerFrom(r))
	if err != nil {
		if writeValidationError(w, err) {
			return
		}
		log.Printf("[ERROR] GetAtLocation posts handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to get posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, posts)
}

// viewerFrom returns the authenticated user's id, or nil for anonymous requests.
func viewerFrom(r *http.Request) *string {
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

// writeValidationError answers 400 for post validation errors and reports
// whether it did.
func writeValidationError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, model.ErrInvalidCoordinates):
		httputil.WriteBadRequest(w, "Latitude must be within [-90, 90] and longitude within [-180, 180]")
	case errors.Is(err, model.ErrTooManyImages):
		httputil.WriteBadRequest(w, fmt.Sprintf("Too many images (max %d)", model.MaxPostImages))
	case errors.Is(err, model.ErrNoteTooLong):
		httputil.WriteBadRequest(w, fmt.Sprintf("Note too long (max %d characters)", model.MaxPostNoteLength))
	default:
		return false
	}
	return true
}

var boundingBoxParams = [4]string{"start_lat", "end_lat", "start_long", "end_long"}

// parseBoundingBox reads the four bbox query parameters. It returns nil when
// none is present and an error when only some are, or one is not a number.
func parseBoundingBox(query url.Values) (*model.BoundingBox, error) {
	present := 0
	for _, name := range boundingBoxParams {
		if query.Get(name) != "" {
			present++
		}
	}
	if present == 0 {
		return nil, nil
	}
	if present != len(boundingBoxParams) {
		return nil, errors.New("start_lat, end_lat, start_long and end_long must be given together")
	}

	var values [4]float64
	for i, name := range boundingBoxParams {
		v, err := strconv.ParseFloat(query.Get(name), 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", name)
		}
		values[i] = v
	}

	return &model.BoundingBox{
		StartLat:  values[0],
		EndLat:    values[1],
		StartLong: values[2],
		EndLong:   values[3],
	}, nil
}
