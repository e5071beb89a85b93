package models

// User is the subset of a user record the notification handlers read.
// Email is empty when the user has no delivery address.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// HasEmail reports whether the user can receive mail.
func (u *User) HasEmail() bool {
	return u != nil && u.Email != ""
}
