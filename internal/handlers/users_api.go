package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/userdir/internal/mq"
	"github.com/jjudge-oj/userdir/internal/services"
	"github.com/jjudge-oj/userdir/internal/store"
)

const maxRequestBody = 1 << 20

// UserAPIHandler serves the JSON user endpoints.
type UserAPIHandler struct {
	dir *Directory
}

// NewUserAPIHandler constructs a handler backed by dir.
func NewUserAPIHandler(dir *Directory) *UserAPIHandler {
	return &UserAPIHandler{dir: dir}
}

// UserAPIRouter registers JSON user routes on the given router.
func UserAPIRouter(r chi.Router, dir *Directory) {
	handler := NewUserAPIHandler(dir)

	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Post("/seed", handler.SeedUsers)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Delete("/", handler.DeleteUser)
	})
}

// DeleteResponse reports how many users were removed.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func (h *UserAPIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	page, err := h.dir.listUsers(r.Context(), services.ListParams{Limit: limit, Offset: offset})
	if err != nil {
		h.dir.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *UserAPIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.dir.users.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.dir.logger.Error("get user", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserAPIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input services.CreateUserInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.dir.users.Create(r.Context(), input)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			writeFieldErrors(w, http.StatusUnprocessableEntity, "validation failed", verr.Fields)
		case errors.Is(err, store.ErrConflict):
			writeFieldErrors(w, http.StatusConflict, "email already exists", map[string][]string{
				services.FieldEmail: {emailTakenMessage},
			})
		default:
			h.dir.logger.Error("create user", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	h.dir.changed(r.Context(), mq.UserEvent{Kind: mq.EventUserCreated, UserID: user.ID})
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserAPIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.dir.users.DeleteUser(r.Context(), id)
	if err != nil {
		h.dir.logger.Error("delete user", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if deleted > 0 {
		h.dir.changed(r.Context(), mq.UserEvent{Kind: mq.EventUserDeleted, UserID: id})
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: deleted})
}

func (h *UserAPIHandler) SeedUsers(w http.ResponseWriter, r *http.Request) {
	count, err := parseOptionalInt(r.URL.Query().Get("count"))
	if err != nil || count < 0 {
		writeError(w, http.StatusBadRequest, "invalid count")
		return
	}
	if count > services.MaxSeedCount {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("count must not exceed %d", services.MaxSeedCount))
		return
	}

	n, err := h.dir.users.Seed(r.Context(), count)
	if err != nil {
		h.dir.logger.Error("seed users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to seed users")
		return
	}

	h.dir.changed(r.Context(), mq.UserEvent{Kind: mq.EventUsersSeeded, Count: n})
	w.WriteHeader(http.StatusNoContent)
}
