package models

import "time"

type User struct {
	ID              int64      `json:"id" db:"id"`
	Username        string     `json:"username" db:"username"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	ThemePreference string     `json:"theme" db:"theme_preference"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	LastActivity    *time.Time `json:"-" db:"last_activity"`
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)
