package domain

import "errors"

// Expected, recoverable failures. The router maps them onto ack payloads.
var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrRoomFull             = errors.New("room is full")
	ErrRoomNotFound         = errors.New("room not found")
	ErrInvalidPassword      = errors.New("invalid password")
)
