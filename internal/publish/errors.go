package publish

import (
	"fmt"

	"github.com/andyballingall/portpub/internal/port"
)

type MissingCredentialsError struct{}

func (e *MissingCredentialsError) Error() string {
	return "Missing github repository owner and access token"
}

// ChecksumNotDiscoveredError is returned when the second build is attempted before
// a discovery build produced a checksum.
type ChecksumNotDiscoveredError struct{}

func (e *ChecksumNotDiscoveredError) Error() string {
	return "second build requires the checksum found by the first build"
}

type ChecksumNotFoundError struct {
	Package string
}

func (e *ChecksumNotFoundError) Error() string {
	return fmt.Sprintf("the first build of %s did not report the archive checksum", e.Package)
}

type RecipeMismatchError struct {
	Checksum port.Checksum
}

func (e *RecipeMismatchError) Error() string {
	return fmt.Sprintf("recipe does not embed checksum %s", e.Checksum)
}

type VerificationFailedError struct {
	Package  string
	ExitCode int
}

func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("verification build of %s failed with exit code %d", e.Package, e.ExitCode)
}

type WorkDirError struct {
	Path    string
	Wrapped error
}

func (e *WorkDirError) Error() string {
	return fmt.Sprintf("working copy %s: %v", e.Path, e.Wrapped)
}

func (e *WorkDirError) Unwrap() error {
	return e.Wrapped
}

type CopyBackError struct {
	Wrapped error
}

func (e *CopyBackError) Error() string {
	return fmt.Sprintf("failed to copy the version index back: %v", e.Wrapped)
}

func (e *CopyBackError) Unwrap() error {
	return e.Wrapped
}

type PushFailedError struct {
	Branch  string
	Wrapped error
}

func (e *PushFailedError) Error() string {
	return fmt.Sprintf("failed to push to %s: %v", e.Branch, e.Wrapped)
}

func (e *PushFailedError) Unwrap() error {
	return e.Wrapped
}
