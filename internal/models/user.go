package models

import "time"

// User represents a user in the system
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// UserView is the public projection of a User.
type UserView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Serialize projects the user to its public fields.
func (u User) Serialize() UserView {
	return UserView{ID: u.ID, Username: u.Username}
}
