package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/service"
	"github.com/carrerakart/kartapi/pkg/httpx"
)

type UsersHandler struct {
	UserService *service.UserService
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// toUserResponse strips the password hash from outward representations.
func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// HandleLogin authenticates by email/password and returns a bearer token.
func (h *UsersHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, token, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "login successful", loginResponse{
		Token: token,
		User:  toUserResponse(u),
	})
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// HandleCreate registers a new user (admin only).
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.UserService.CreateUser(r.Context(), req.Name, req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, "user created", toUserResponse(u))
}

// HandleList returns a page of active users.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	users, total, err := h.UserService.ListUsers(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WritePage(w, http.StatusOK, "users retrieved", toUserResponses(users), newPagination(page, limit, total))
}

// HandleGet returns one user by id, deactivated records included.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserService.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "user retrieved", toUserResponse(u))
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

func (req updateUserRequest) params() service.UpdateUserParams {
	p := service.UpdateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsActive: req.IsActive,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		p.Role = &role
	}
	return p
}

// HandleUpdate applies a partial update to a user (admin only).
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.UserService.UpdateUser(r.Context(), r.PathValue("id"), req.params())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "user updated", toUserResponse(u))
}

// HandleDelete soft-deletes a user.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.UserService.DeactivateUser(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "user deactivated", nil)
}

// HandleProfile returns the authenticated caller's own record.
func (h *UsersHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserService.GetActiveUser(r.Context(), httpx.UserIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "profile retrieved", toUserResponse(u))
}

// HandleUpdateProfile lets callers change their own name, email and password.
// Role and active state are not self-serviceable.
func (h *UsersHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.UserService.UpdateProfile(r.Context(), httpx.UserIDFromCtx(r.Context()), req.params())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "profile updated", toUserResponse(u))
}

func pageParams(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
