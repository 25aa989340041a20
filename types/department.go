package types

// Department is a known department code offered by the create form.
type Department struct {
	// Code is the value stored on the user record.
	Code string `json:"code"`

	// Label is the human-readable department name.
	Label string `json:"label"`
}

// UnknownDepartment is the label rendered for values outside Departments.
const UnknownDepartment = "Unknown"

// Departments lists the known department codes in display order.
var Departments = []Department{
	{Code: "engineering", Label: "Engineering"},
	{Code: "marketing", Label: "Marketing"},
	{Code: "finance", Label: "Finance"},
	{Code: "it", Label: "IT"},
	{Code: "hr", Label: "Human Resources"},
}

// IsDepartment reports whether code is one of the known department codes.
func IsDepartment(code string) bool {
	for _, d := range Departments {
		if d.Code == code {
			return true
		}
	}
	return false
}

// RenderDepartment returns the display label for a department code, or
// UnknownDepartment when the code is not in the catalogue.
func RenderDepartment(code string) string {
	for _, d := range Departments {
		if d.Code == code {
			return d.Label
		}
	}
	return UnknownDepartment
}
