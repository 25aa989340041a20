package handlers

import (
	"embed"
	"html/template"
	"time"

	"github.com/jjudge-oj/userdir/internal/services"
	"github.com/jjudge-oj/userdir/types"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"department": types.RenderDepartment,
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
}).ParseFS(templatesFS, "templates/*.html"))

type listView struct {
	Users      []userRow
	TotalCount int
	First      int
	Last       int
	PageNumber int
	PageCount  int
	PrevHref   string
	NextHref   string
	ResetHref  string
	PageSizes  []pageSizeLink
}

// userRow links carry the list query so the list can be restored.
type userRow struct {
	types.User
	ViewHref   string
	DeleteHref string
}

type pageSizeLink struct {
	Size    int
	Href    string
	Current bool
}

type userView struct {
	User     types.User
	BackHref string
}

type formView struct {
	Values      services.CreateUserInput
	Errors      map[string][]string
	Departments []types.Department
}

type confirmDeleteView struct {
	User       types.User
	ActionHref string
	CancelHref string
}

type messageView struct {
	Title    string
	Message  string
	BackHref string
}
