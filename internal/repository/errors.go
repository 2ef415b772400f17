package repository

import "errors"

var (
	// ErrNotFound is returned when a record looked up by id is absent.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateUser is returned when a user with the same phone already
	// exists; callers re-fetch instead of failing.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrDuplicateSession is returned when a session for the same user and
	// subject already exists; callers re-fetch instead of failing.
	ErrDuplicateSession = errors.New("session already exists")
)
