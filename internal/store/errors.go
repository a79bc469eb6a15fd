package store

import "errors"

var (
	ErrStoreNotFound    = errors.New("store not found")
	ErrStoreExists      = errors.New("store already exists")
	ErrLanguageNotFound = errors.New("language not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
)
