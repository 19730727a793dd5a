package errorkit

import "errors"

// Merge combines the non nil errors into one.
// It returns nil when there is none, and the error itself when there is exactly one.
func Merge(errs ...error) error {
	var n int
	var last error
	for _, err := range errs {
		if err != nil {
			n++
			last = err
		}
	}
	switch n {
	case 0:
		return nil
	case 1:
		return last
	default:
		return errors.Join(errs...)
	}
}
