package wbfs

import (
	"errors"
	"io"
)

// isEOF reports whether err indicates a short read rather than some other
// native I/O failure, so callers can distinguish Truncated from IoFailure.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
