package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Entry struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	EntryDate      time.Time `json:"entry_date"`
	TimeSpent      int       `json:"time_spent"` // hours
	WhatYouLearned string    `json:"what_you_learned"`
	ToRemember     string    `json:"to_remember"`
	CreatedAt      time.Time `json:"created_at"`
}

type Tag struct {
	ID      int64  `json:"id"`
	EntryID int64  `json:"entry_id"`
	Tag     string `json:"tag"`
}
