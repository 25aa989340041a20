package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jjudge-oj/userdir/internal/mq"
	"github.com/jjudge-oj/userdir/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) postForm(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seed(t *testing.T, n int) {
	t.Helper()
	_, err := e.users.Seed(t.Context(), n)
	require.NoError(t, err)
}

func graceForm() url.Values {
	return url.Values{
		"username":   {"grace.hopper"},
		"givenName":  {"Grace"},
		"familyName": {"Hopper"},
		"dob":        {"1906-12-09"},
		"title":      {"Rear Admiral"},
		"department": {"engineering"},
		"email":      {"grace@example.com"},
	}
}

func TestWeb_ListEmpty(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "No users.")
	assert.Contains(t, rec.Body.String(), "Page 1 of 1")
	assert.NotContains(t, rec.Body.String(), `rel="next"`)
}

func TestWeb_ListFirstPage(t *testing.T) {
	env := newTestEnv()
	env.seed(t, 25)

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Showing 1 to 10 of 25")
	assert.Contains(t, body, "Page 1 of 3")
	assert.Contains(t, body, "Engineering")
	assert.Contains(t, body, `href="/?pageIndex=1" rel="next"`)
	assert.NotContains(t, body, `rel="prev"`)
	assert.Contains(t, body, `href="/users/1"`)
	assert.Contains(t, body, `href="/users/1/delete"`)
	assert.Contains(t, body, "<strong>10</strong>")
	assert.Contains(t, body, `href="/?pageSize=20"`)
}

func TestWeb_ListThirdPage(t *testing.T) {
	env := newTestEnv()
	env.seed(t, 25)

	rec := env.do(t, http.MethodGet, "/?pageIndex=2&pageSize=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Showing 21 to 25 of 25")
	assert.Contains(t, body, "user0021")
	assert.NotContains(t, body, "user0020")
	assert.Contains(t, body, `href="/?pageIndex=1" rel="prev"`)
	assert.NotContains(t, body, `rel="next"`)
	// Row links carry the canonical query without the default page size.
	assert.Contains(t, body, `href="/users/21?pageIndex=2"`)
}

func TestWeb_ListMalformedQueryFallsBack(t *testing.T) {
	env := newTestEnv()
	env.seed(t, 15)

	rec := env.do(t, http.MethodGet, "/?pageSize=abc&pageIndex=-3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Showing 1 to 10 of 15")
}

func TestWeb_ListPastLastPageRedirects(t *testing.T) {
	env := newTestEnv()
	env.seed(t, 25)

	rec := env.do(t, http.MethodGet, "/?pageIndex=9&title=cto", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?pageIndex=2&title=cto", rec.Header().Get("Location"))
}

func TestWeb_ListHugePageIndexRedirects(t *testing.T) {
	env := newTestEnv()
	env.seed(t, 25)

	rec := env.do(t, http.MethodGet, "/?pageIndex=2305843009213693952&pageSize=4", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?pageIndex=6&pageSize=4", rec.Header().Get("Location"))
}

func TestWeb_Show(t *testing.T) {
	env := newTestEnv()
	require.Equal(t, http.StatusSeeOther, env.postForm(t, "/users", graceForm()).Code)

	rec := env.do(t, http.MethodGet, "/users/1?pageIndex=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Grace Hopper")
	assert.Contains(t, body, "grace@example.com")
	assert.Contains(t, body, "1906-12-09")
	assert.Contains(t, body, "2025-03-14 09:00 UTC")
	assert.Contains(t, body, "Engineering")
	assert.Contains(t, body, `href="/?pageIndex=2"`)
}

func TestWeb_ShowUnknownDepartment(t *testing.T) {
	env := newTestEnv()
	form := graceForm()
	form.Set("department", "Skunk Works")
	require.Equal(t, http.StatusSeeOther, env.postForm(t, "/users", form).Code)

	rec := env.do(t, http.MethodGet, "/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<dd>Unknown</dd>")
}

func TestWeb_ShowNotFound(t *testing.T) {
	env := newTestEnv()

	for _, target := range []string{"/users/999", "/users/abc"} {
		rec := env.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "User not found", target)
	}
}

func TestWeb_NewUserForm(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/users/new", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<form method="post" action="/users">`)
	assert.Contains(t, body, `<option value="hr">Human Resources</option>`)
	assert.NotContains(t, body, `class="error"`)
}

func TestWeb_CreateUser(t *testing.T) {
	env := newTestEnv()

	rec := env.postForm(t, "/users", graceForm())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, []mq.EventKind{mq.EventUserCreated}, env.events.kinds())

	list := env.do(t, http.MethodGet, "/", "")
	assert.Contains(t, list.Body.String(), "grace.hopper")
}

func TestWeb_CreateUser_ValidationError(t *testing.T) {
	env := newTestEnv()
	form := graceForm()
	form.Set("username", "abc")
	form.Set("department", "finance")

	rec := env.postForm(t, "/users", form)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "must be at least 4 characters")
	assert.Contains(t, body, `value="abc"`)
	assert.Contains(t, body, `<option value="finance" selected>Finance</option>`)
	assert.Empty(t, env.events.kinds())
}

func TestWeb_CreateUser_DuplicateEmail(t *testing.T) {
	env := newTestEnv()
	require.Equal(t, http.StatusSeeOther, env.postForm(t, "/users", graceForm()).Code)

	form := graceForm()
	form.Set("username", "another")
	rec := env.postForm(t, "/users", form)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), emailTakenMessage)
}

func TestWeb_ConfirmDelete(t *testing.T) {
	env := newTestEnv()
	env.seed(t, 3)

	rec := env.do(t, http.MethodGet, "/users/2/delete?pageSize=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "cannot be undone")
	assert.Contains(t, body, `action="/users/2/delete?pageSize=20"`)
	assert.Contains(t, body, `href="/?pageSize=20"`)

	// Viewing the confirmation does not delete anything.
	_, err := env.users.GetUser(t.Context(), 2)
	assert.NoError(t, err)
}

func TestWeb_ConfirmDeleteMissingUser(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/users/7/delete", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWeb_Delete(t *testing.T) {
	env := newTestEnv()
	env.seed(t, 3)

	rec := env.postForm(t, "/users/2/delete?pageSize=20&pageIndex=1", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?pageIndex=1&pageSize=20", rec.Header().Get("Location"))

	page, err := env.users.GetUsers(t.Context(), services.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, []mq.EventKind{mq.EventUserDeleted}, env.events.kinds())
}

func TestWeb_DeleteMissingIsNoop(t *testing.T) {
	env := newTestEnv()

	rec := env.postForm(t, "/users/5/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Empty(t, env.events.kinds())
}

func TestWeb_DeleteRefreshesCachedListing(t *testing.T) {
	env := newTestEnv()
	env.seed(t, 3)

	assert.Contains(t, env.do(t, http.MethodGet, "/", "").Body.String(), "of 3")
	env.postForm(t, "/users/1/delete", nil)
	assert.Contains(t, env.do(t, http.MethodGet, "/", "").Body.String(), "of 2")
}

func TestWeb_Seed(t *testing.T) {
	env := newTestEnv()

	rec := env.postForm(t, "/seed", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	list := env.do(t, http.MethodGet, "/", "")
	assert.Contains(t, list.Body.String(), "Showing 1 to 10 of 100")
}

func TestWeb_BackendFailure(t *testing.T) {
	env := newTestEnv()
	env.users.err = errBackendDown

	for _, tc := range []struct {
		method string
		target string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/users/1"},
		{http.MethodPost, "/users/1/delete"},
	} {
		rec := env.do(t, tc.method, tc.target, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.target)
		assert.Contains(t, rec.Body.String(), "Something went wrong", tc.target)
	}
}
