package repo

import (
	"fmt"
)

type NoTagsError struct {
	Wrapped error
	Dir     string
}

func (e *NoTagsError) Error() string {
	where := e.Dir
	if where == "" {
		where = "the current directory"
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("could not find a release tag in %s: %v", where, e.Wrapped)
	}
	return fmt.Sprintf("could not find a release tag in %s", where)
}

func (e *NoTagsError) Unwrap() error {
	return e.Wrapped
}
