package crud

import "go.llib.dev/rxcrud/pkg/errorkit"

const (
	// ErrInvalidArgument is returned synchronously for absent arguments,
	// or as the terminal error of a stream that carried an absent element.
	ErrInvalidArgument errorkit.Error = "err-invalid-argument"
	// ErrNotFound is used between a repository and its primitive store.
	// The repository contract itself reports not found as an empty result.
	ErrNotFound      errorkit.Error = "err-not-found"
	ErrAlreadyExists errorkit.Error = "err-already-exists"
)
