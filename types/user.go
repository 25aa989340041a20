package types

import "time"

// User represents a member of the user directory.
// Rows are never updated once created; they are only inserted and deleted.
type User struct {
	// ID is the unique, system-assigned identifier of the user.
	// IDs increase monotonically and are never reused.
	ID int `json:"id" db:"id"`

	// Username is the user's handle. Always at least four characters.
	Username string `json:"username" db:"username"`

	// GivenName is the user's first name.
	GivenName string `json:"givenName" db:"given_name"`

	// FamilyName is the user's last name.
	FamilyName string `json:"familyName" db:"family_name"`

	// DOB is the user's date of birth. It carries no time component.
	DOB Date `json:"dob" db:"dob"`

	// Title is the user's job title.
	Title string `json:"title" db:"title"`

	// Department is usually one of the codes in Departments, but any
	// non-empty value is accepted.
	Department string `json:"department" db:"department"`

	// Email is the user's email address. Unique across the directory.
	Email string `json:"email" db:"email"`

	// CreatedAt is the timestamp at which the user was inserted.
	// It is assigned by the server and never changes.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
