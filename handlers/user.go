package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/quickchat/models"
	"github.com/akinalp/quickchat/pkg"
	"github.com/akinalp/quickchat/services"
)

// UserHandler, profil endpoint'leri.
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler, constructor.
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile godoc
// GET /api/users/{id} — herhangi bir kullanıcının public profili.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "user id is required")
		return
	}

	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, user)
}

// UpdateProfile godoc
// PATCH /api/users/me — display name / bio kısmi güncelleme.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.Error(w, pkg.ErrUnauthorized)
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, updated)
}

// UpdateAvatar godoc
// PUT /api/users/me/avatar — multipart/form-data, "avatar" alanı.
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.Error(w, pkg.ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	updated, err := h.userService.UpdateAvatar(r.Context(), user.ID, file, header)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, updated)
}
