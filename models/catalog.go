package models

import "time"

type Category struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Icon   string `json:"icon" db:"icon"`
	UserID *int64 `json:"user_id" db:"user_id"`
}

type Tag struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
