package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound        = errors.New("domain: not found")
	ErrSessionNotFound = errors.New("domain: session not found")
	ErrBranchNotFound  = errors.New("domain: branch not found")
)
