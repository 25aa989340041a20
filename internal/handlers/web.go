package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/userdir/internal/filters"
	"github.com/jjudge-oj/userdir/internal/mq"
	"github.com/jjudge-oj/userdir/internal/services"
	"github.com/jjudge-oj/userdir/internal/store"
	"github.com/jjudge-oj/userdir/types"
)

const (
	listPath          = "/"
	emailTakenMessage = "is already taken"
)

// WebHandler serves the HTML list view and its create and delete flows.
type WebHandler struct {
	dir *Directory
}

// NewWebHandler constructs a handler backed by dir.
func NewWebHandler(dir *Directory) *WebHandler {
	return &WebHandler{dir: dir}
}

// WebRouter registers HTML routes on the given router.
func WebRouter(r chi.Router, dir *Directory) {
	handler := NewWebHandler(dir)

	r.Get("/", handler.List)
	r.Post("/seed", handler.Seed)
	r.Get("/users/new", handler.NewUser)
	r.Post("/users", handler.CreateUser)
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/", handler.Show)
		r.Get("/delete", handler.ConfirmDelete)
		r.Post("/delete", handler.Delete)
	})
}

func (h *WebHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	state := filters.Decode(query)

	page, err := h.dir.listUsers(r.Context(), services.ListParams{Limit: state.Limit(), Offset: state.Offset()})
	if err != nil {
		h.dir.logger.Error("list users", "error", err)
		h.renderFailure(w)
		return
	}

	// Deleting the last row of the last page leaves the index past the end.
	if len(page.Users) == 0 && page.TotalCount > 0 && state.PageIndex > 0 {
		last := state.PageCount(page.TotalCount) - 1
		http.Redirect(w, r, filters.Href(listPath, filters.Encode(query, filters.Update{filters.KeyPageIndex: last})), http.StatusSeeOther)
		return
	}

	h.render(w, http.StatusOK, "list.html", buildListView(query, state, page))
}

func buildListView(query url.Values, state filters.State, page services.UserPage) listView {
	canonical := filters.Encode(query, state.Update())
	view := listView{
		Users:      make([]userRow, 0, len(page.Users)),
		TotalCount: page.TotalCount,
		PageNumber: state.PageIndex + 1,
		PageCount:  state.PageCount(page.TotalCount),
		ResetHref:  filters.Reset(listPath),
	}
	for _, user := range page.Users {
		base := fmt.Sprintf("/users/%d", user.ID)
		view.Users = append(view.Users, userRow{
			User:       user,
			ViewHref:   filters.Href(base, canonical),
			DeleteHref: filters.Href(base+"/delete", canonical),
		})
	}
	if len(page.Users) > 0 {
		view.First = state.Offset() + 1
		view.Last = state.Offset() + len(page.Users)
	}
	if state.PageIndex > 0 {
		view.PrevHref = filters.Href(listPath, filters.Encode(canonical, filters.Update{filters.KeyPageIndex: state.PageIndex - 1}))
	}
	if state.Offset()+len(page.Users) < page.TotalCount {
		view.NextHref = filters.Href(listPath, filters.Encode(canonical, filters.Update{filters.KeyPageIndex: state.PageIndex + 1}))
	}
	for _, size := range filters.PageSizes {
		view.PageSizes = append(view.PageSizes, pageSizeLink{
			Size:    size,
			Href:    filters.Href(listPath, filters.Encode(canonical, filters.Update{filters.KeyPageSize: size, filters.KeyPageIndex: 0})),
			Current: size == state.PageSize,
		})
	}
	return view
}

func (h *WebHandler) Show(w http.ResponseWriter, r *http.Request) {
	back := filters.Href(listPath, r.URL.Query())
	id, err := parseUserID(r)
	if err != nil {
		h.renderNotFound(w, back)
		return
	}

	user, err := h.dir.users.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, back)
			return
		}
		h.dir.logger.Error("get user", "user_id", id, "error", err)
		h.renderFailure(w)
		return
	}
	h.render(w, http.StatusOK, "detail.html", userView{User: user, BackHref: back})
}

func (h *WebHandler) NewUser(w http.ResponseWriter, _ *http.Request) {
	h.renderForm(w, http.StatusOK, services.CreateUserInput{}, nil)
}

func (h *WebHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	input := services.CreateUserInput{
		Username:   r.PostFormValue(services.FieldUsername),
		GivenName:  r.PostFormValue(services.FieldGivenName),
		FamilyName: r.PostFormValue(services.FieldFamilyName),
		DOB:        r.PostFormValue(services.FieldDOB),
		Title:      r.PostFormValue(services.FieldTitle),
		Department: r.PostFormValue(services.FieldDepartment),
		Email:      r.PostFormValue(services.FieldEmail),
	}

	user, err := h.dir.users.Create(r.Context(), input)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			h.renderForm(w, http.StatusUnprocessableEntity, input, verr.Fields)
		case errors.Is(err, store.ErrConflict):
			h.renderForm(w, http.StatusConflict, input, map[string][]string{
				services.FieldEmail: {emailTakenMessage},
			})
		default:
			h.dir.logger.Error("create user", "error", err)
			h.renderFailure(w)
		}
		return
	}

	h.dir.changed(r.Context(), mq.UserEvent{Kind: mq.EventUserCreated, UserID: user.ID})
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}

func (h *WebHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	back := filters.Href(listPath, query)
	id, err := parseUserID(r)
	if err != nil {
		h.renderNotFound(w, back)
		return
	}

	user, err := h.dir.users.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.renderNotFound(w, back)
			return
		}
		h.dir.logger.Error("get user", "user_id", id, "error", err)
		h.renderFailure(w)
		return
	}

	h.render(w, http.StatusOK, "confirm_delete.html", confirmDeleteView{
		User:       user,
		ActionHref: filters.Href(fmt.Sprintf("/users/%d/delete", id), query),
		CancelHref: back,
	})
}

func (h *WebHandler) Delete(w http.ResponseWriter, r *http.Request) {
	back := filters.Href(listPath, r.URL.Query())
	id, err := parseUserID(r)
	if err != nil {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	deleted, err := h.dir.users.DeleteUser(r.Context(), id)
	if err != nil {
		h.dir.logger.Error("delete user", "user_id", id, "error", err)
		h.renderFailure(w)
		return
	}
	if deleted > 0 {
		h.dir.changed(r.Context(), mq.UserEvent{Kind: mq.EventUserDeleted, UserID: id})
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *WebHandler) Seed(w http.ResponseWriter, r *http.Request) {
	n, err := h.dir.users.Seed(r.Context(), services.DefaultSeedCount)
	if err != nil {
		h.dir.logger.Error("seed users", "error", err)
		h.renderFailure(w)
		return
	}
	h.dir.changed(r.Context(), mq.UserEvent{Kind: mq.EventUsersSeeded, Count: n})
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}

func (h *WebHandler) renderForm(w http.ResponseWriter, status int, values services.CreateUserInput, fieldErrors map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = map[string][]string{}
	}
	h.render(w, status, "form.html", formView{
		Values:      values,
		Errors:      fieldErrors,
		Departments: types.Departments,
	})
}

func (h *WebHandler) renderNotFound(w http.ResponseWriter, back string) {
	h.render(w, http.StatusNotFound, "message.html", messageView{
		Title:    "User not found",
		Message:  "No user exists with that id. It may have been deleted.",
		BackHref: back,
	})
}

func (h *WebHandler) renderFailure(w http.ResponseWriter) {
	h.render(w, http.StatusInternalServerError, "message.html", messageView{
		Title:    "Something went wrong",
		Message:  "The request could not be completed. Please try again.",
		BackHref: listPath,
	})
}

func (h *WebHandler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.dir.logger.Error("render template", "template", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
