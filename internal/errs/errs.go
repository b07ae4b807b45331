// Package errs defines the outcome kinds shared by every container in the module.
//
// Public packages re-export these values, so callers can test any returned error
// with errors.Is against either the package-level or these sentinels.
package errs

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidArgument reports a nil receiver, a nil/empty buffer or an
	// out-of-range parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfMemory reports that the injected allocator refused a request.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrNotFound reports a lookup or removal of an absent key.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists reports an insert of a key that is already present.
	ErrAlreadyExists = errors.New("already exists")
)
