package app

import (
	"fmt"
)

type NoChecksumInOutputError struct {
	Source string
}

func (e *NoChecksumInOutputError) Error() string {
	return fmt.Sprintf("no 'Actual hash' line found in %s", e.Source)
}
