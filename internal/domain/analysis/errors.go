package analysis

import "errors"

// Validation rejections: the selection is ignored without a state change.
var (
	ErrNoFile          = errors.New("no file provided")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
)

// IsRejection reports whether err is a silent validation rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNoFile) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrFileTooLarge)
}

// ErrSessionNotFound indicates an unknown or torn-down session id.
var ErrSessionNotFound = errors.New("session not found")
