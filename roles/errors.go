package roles

import "errors"

var (
	// ErrUnauthorized indicates the acting principal lacks the required role.
	ErrUnauthorized = errors.New("roles: principal lacks required role")

	// ErrEmptyPrincipal indicates an empty principal identity.
	ErrEmptyPrincipal = errors.New("roles: principal must not be empty")
)
