package model

import "errors"

var (
	ErrNotConfigured    = errors.New("database connection string is not set")
	ErrNotConnected     = errors.New("database is not connected")
	ErrDuplicateEmail   = errors.New("email is already taken")
	ErrInsertNotVisible = errors.New("inserted user not found on re-read")
)
