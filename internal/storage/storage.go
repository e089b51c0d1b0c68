package storage

import "errors"

var (
	ErrMachineNotFound = errors.New("coffee machine not found")
	ErrSpecNotFound    = errors.New("spec not found")
	ErrSpecExists      = errors.New("spec already exists")
	ErrorNoSuchKey     = errors.New("no such key")
)

var (
	ErrInvalidFilePath = errors.New("invalid file path")
)
