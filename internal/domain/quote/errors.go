package quote

import "errors"

var (
	// ErrQuoteNotFound indicates the quote doesn't exist.
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrUnknownProject indicates a link target project doesn't exist.
	ErrUnknownProject = errors.New("linked project not found")
	// ErrInvalidInput indicates invalid quote input.
	ErrInvalidInput = errors.New("invalid quote input")
)
