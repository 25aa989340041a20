package services

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jjudge-oj/userdir/types"
)

// Field names used in validation errors. They match the JSON and form keys.
const (
	FieldUsername   = "username"
	FieldGivenName  = "givenName"
	FieldFamilyName = "familyName"
	FieldDOB        = "dob"
	FieldTitle      = "title"
	FieldDepartment = "department"
	FieldEmail      = "email"
)

const minUsernameLength = 4

// CreateUserInput is the payload accepted by UserService.Create.
type CreateUserInput struct {
	Username   string `json:"username"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
	DOB        string `json:"dob"`
	Title      string `json:"title"`
	Department string `json:"department"`
	Email      string `json:"email"`
}

// ValidationError reports every failed rule, keyed by field name.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

type rule struct {
	valid   func(string) bool
	message string
}

type fieldRules struct {
	name  string
	value func(CreateUserInput) string
	rules []rule
}

var (
	required = rule{
		valid:   func(v string) bool { return v != "" },
		message: "is required",
	}
	minUsername = rule{
		valid:   func(v string) bool { return utf8.RuneCountInString(v) >= minUsernameLength },
		message: fmt.Sprintf("must be at least %d characters", minUsernameLength),
	}
	validEmail = rule{
		valid:   isEmail,
		message: "must be a valid email address",
	}
	validDate = rule{
		valid: func(v string) bool {
			_, err := types.ParseDate(v)
			return err == nil
		},
		message: "must be a valid date (YYYY-MM-DD)",
	}
)

// createUserRules is evaluated in order; every failing rule is reported.
var createUserRules = []fieldRules{
	{name: FieldUsername, value: func(in CreateUserInput) string { return in.Username }, rules: []rule{minUsername}},
	{name: FieldGivenName, value: func(in CreateUserInput) string { return in.GivenName }, rules: []rule{required}},
	{name: FieldFamilyName, value: func(in CreateUserInput) string { return in.FamilyName }, rules: []rule{required}},
	{name: FieldDOB, value: func(in CreateUserInput) string { return in.DOB }, rules: []rule{validDate}},
	{name: FieldTitle, value: func(in CreateUserInput) string { return in.Title }, rules: []rule{required}},
	{name: FieldDepartment, value: func(in CreateUserInput) string { return in.Department }, rules: []rule{required}},
	{name: FieldEmail, value: func(in CreateUserInput) string { return in.Email }, rules: []rule{validEmail}},
}

// Normalize returns a copy of the input with surrounding whitespace removed.
func (in CreateUserInput) Normalize() CreateUserInput {
	return CreateUserInput{
		Username:   strings.TrimSpace(in.Username),
		GivenName:  strings.TrimSpace(in.GivenName),
		FamilyName: strings.TrimSpace(in.FamilyName),
		DOB:        strings.TrimSpace(in.DOB),
		Title:      strings.TrimSpace(in.Title),
		Department: strings.TrimSpace(in.Department),
		Email:      strings.TrimSpace(in.Email),
	}
}

// Validate checks every rule against the normalized input and returns the
// user to persist. The returned error is a *ValidationError.
func (in CreateUserInput) Validate() (types.User, error) {
	in = in.Normalize()

	verr := &ValidationError{}
	for _, field := range createUserRules {
		value := field.value(in)
		for _, r := range field.rules {
			if !r.valid(value) {
				verr.add(field.name, r.message)
			}
		}
	}
	if len(verr.Fields) > 0 {
		return types.User{}, verr
	}

	dob, _ := types.ParseDate(in.DOB)
	return types.User{
		Username:   in.Username,
		GivenName:  in.GivenName,
		FamilyName: in.FamilyName,
		DOB:        dob,
		Title:      in.Title,
		Department: in.Department,
		Email:      in.Email,
	}, nil
}

// isEmail accepts a bare address such as "ada@example.com". Display-name
// forms like "Ada <ada@example.com>" are rejected.
func isEmail(v string) bool {
	if v == "" {
		return false
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return false
	}
	at := strings.LastIndex(v, "@")
	return at > 0 && at < len(v)-1
}
