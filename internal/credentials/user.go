package credentials

import "strings"

// LocalUser is the single stored user record. The password is stored as
// entered.
type LocalUser struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Mobile    string `json:"mobile" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

// Profile is the editable view of the stored user.
type Profile struct {
	Name     string
	Email    string
	Mobile   string
	Password string
	ImageURI string
}

// NormalizeEmail trims and lower-cases an entered address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName joins first and last name the way the profile shows them.
func (u LocalUser) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SplitName splits a display name at its first space. Everything after the
// first word becomes the last name, so multi-word first names do not survive
// an edit.
func SplitName(name string) (first, last string) {
	parts := strings.Split(strings.TrimSpace(name), " ")
	return parts[0], strings.Join(parts[1:], " ")
}
