package services

import "errors"

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnknownAction          = errors.New("unknown action")
	ErrUserNotFound           = errors.New("user not found")
	ErrLocationNotFound       = errors.New("location not found")
	ErrStorageUnavailable     = errors.New("file storage is not configured")
)
