package domain

import "time"

// User represents a shopper account.
type User struct {
	ID           string
	Name         string
	Email        string
	Username     string
	PasswordHash string
	Age          int
	Gender       string
	CreatedAt    time.Time
}
