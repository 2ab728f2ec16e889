package session

import "errors"

// Sentinel errors
var (
	// ErrInvalidCredentials is returned when the remote service rejects
	// a login or refresh attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoSession is returned when a refresh is attempted without a
	// stored refresh token.
	ErrNoSession = errors.New("no session")
)
