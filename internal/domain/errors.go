package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInputTooLarge = errors.New("input image too large")
	ErrEngineFailure = errors.New("engine failure")
)
