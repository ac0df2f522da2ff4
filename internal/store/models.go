package store

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	UserName     string
	IsGuest      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is the name shown in the top bar.
func (u User) DisplayName() string {
	if u.UserName != "" {
		return u.UserName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}
