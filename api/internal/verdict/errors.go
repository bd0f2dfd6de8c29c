package verdict

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse: JSON без обязательных полей или не той формы.
var ErrMalformedResponse = errors.New("invalid prediction data")

// UnsupportedFileTypeError: file_type вне {image, audio, video}.
type UnsupportedFileTypeError struct {
	FileType string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file_type: %s", e.FileType)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
