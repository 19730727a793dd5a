package errorkit

import "fmt"

// Error is a string based error type, so sentinel errors can be declared as constants.
//
//	const ErrSomething errorkit.Error = "something went wrong"
type Error string

func (err Error) Error() string { return string(err) }

// Wrap returns an error that matches both err and cause with errors.Is and errors.As.
func (err Error) Wrap(cause error) error {
	if cause == nil {
		return err
	}
	return &wrappedError{kind: err, cause: cause}
}

// F is a shorthand for err.Wrap(fmt.Errorf(format, a...)).
func (err Error) F(format string, a ...any) error { return err.Wrap(fmt.Errorf(format, a...)) }

type wrappedError struct {
	kind  Error
	cause error
}

func (w *wrappedError) Error() string {
	return string(w.kind) + ": " + w.cause.Error()
}

func (w *wrappedError) Unwrap() []error { return []error{w.kind, w.cause} }
