package lead

import "errors"

var (
	// ErrNotFound means no lead matches the given id.
	ErrNotFound = errors.New("lead not found")
	// ErrDuplicateEmail means a lead with this email already exists.
	ErrDuplicateEmail = errors.New("lead with this email already exists")
	// ErrInvalidEmail means the address fails the basic shape check.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidStatus means the requested pipeline stage is not one of
	// pending, sent, in_progress, completed.
	ErrInvalidStatus = errors.New("invalid lead status")
	// ErrMissingFields means a required lead field is empty.
	ErrMissingFields = errors.New("company name, contact name and email are required")
)
