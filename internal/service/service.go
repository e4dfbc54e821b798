// Package service holds the business rules between the HTTP layer and the
// store.
package service

import "errors"

var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)
