package domain

import "errors"

// Unique-collision sentinels shared by the storage layer and the
// services. Repositories translate driver-level unique violations into
// these; services branch on them without importing the storage layer.
var (
	// ErrDuplicateNumber surfaces a store-level unique collision on a
	// record number. Creation paths retry exactly once by re-drawing
	// from the counter; a second collision is returned to the caller.
	ErrDuplicateNumber = errors.New("record number already exists")

	// ErrEmailTaken reports a unique collision on a user email.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrUserNotFound is returned when a user lookup matches no row.
	ErrUserNotFound = errors.New("user not found")
)
