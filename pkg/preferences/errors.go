package preferences

import "errors"

var (
	// ErrNotFound is returned by Storage.Get when the user has no stored preferences.
	ErrNotFound = errors.New("preferences not found")

	// ErrStorageNil is returned when a nil storage is provided to NewService.
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrEmptyUserID is returned for operations that require a user id.
	ErrEmptyUserID = errors.New("user id is required")
)

// IsNotFound reports whether err means "no stored preferences for this user".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
