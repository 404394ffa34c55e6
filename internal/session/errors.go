package session

import "errors"

var (
	ErrNotFound       = errors.New("intake session not found")
	ErrUnknownSection = errors.New("unknown anamnesis section")
)
