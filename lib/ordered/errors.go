package ordered

import "fmt"

// Code classifies errors of the ordered layer
type Code uint8

const (
	CodeInvalidArgument    Code = iota + 1 // malformed key, value or operation, nothing was changed
	CodeNotFound                           // the key does not exist
	CodeStorageUnavailable                 // the backing store failed, the cause is wrapped
	CodeNotOpen                            // the store was not opened or is closed
)

func (c Code) String() string {
	switch c {
	case CodeInvalidArgument:
		return "InvalidArgument"
	case CodeNotFound:
		return "NotFound"
	case CodeStorageUnavailable:
		return "StorageUnavailable"
	case CodeNotOpen:
		return "NotOpen"
	default:
		return "Unknown"
	}
}

// Error is the error type of the ordered layer. errors.Is matches any two errors with the
// same code, so callers compare against the sentinels below. Storage errors keep their
// cause in Err.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

var (
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument, Msg: "invalid argument"}
	ErrNotFound           = &Error{Code: CodeNotFound, Msg: "not found"}
	ErrStorageUnavailable = &Error{Code: CodeStorageUnavailable, Msg: "storage unavailable"}
	ErrNotOpen            = &Error{Code: CodeNotOpen, Msg: "store is not open"}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func invalidArgument(format string, args ...any) error {
	return &Error{Code: CodeInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func notFound(key string) error {
	return &Error{Code: CodeNotFound, Msg: fmt.Sprintf("key %q not found", key)}
}

// storageError wraps a failure of the backing store. Errors of this package pass through.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Code: CodeStorageUnavailable, Msg: op, Err: err}
}
