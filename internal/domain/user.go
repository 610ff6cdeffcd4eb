package domain

import (
	"errors"
	"strings"
)

// User is a pharmacy staff member. Admins maintain stock; any user may issue invoices.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	IsAdmin  bool   `json:"is_admin"`
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return errors.New("username is required")
	}
	return nil
}
