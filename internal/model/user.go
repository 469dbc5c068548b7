package model

import "time"

// User is an account identified by email instead of a username.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	Surname      string     `json:"surname"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Token is the single API key issued to a user.
type Token struct {
	Key       string    `json:"token"`
	UserID    int64     `json:"-"`
	CreatedAt time.Time `json:"-"`
}
